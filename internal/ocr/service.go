// Package ocr provides text recognition for scanned invoice images using
// Google Cloud Vision.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
package ocr

import (
	"context"
	"time"
)

// OCRService defines the interface for image text recognition.
type OCRService interface {
	// RecognizeImage extracts text from an image (JPEG/PNG) held in memory.
	RecognizeImage(ctx context.Context, imageData []byte) (*OCRResult, error)
}

// OCRResult contains extracted text with metadata.
type OCRResult struct {
	// Text is the full recognized text of the document.
	Text string

	// Confidence is the average recognition confidence (0.0-1.0).
	Confidence float32

	// ProcessedAt is when the recognition completed.
	ProcessedAt time.Time

	// ProcessingDuration is how long the Vision call took.
	ProcessingDuration time.Duration
}
