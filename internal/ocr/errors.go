package ocr

import (
	"errors"
	"fmt"
)

// Common OCR errors
var (
	// ErrInvalidImage is returned when the provided data is not a usable image.
	ErrInvalidImage = errors.New("invalid or corrupted image")

	// ErrImageTooLarge is returned when the image exceeds size limits.
	ErrImageTooLarge = errors.New("image exceeds maximum size limit")

	// ErrOCRFailed is returned when the Vision API call fails.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrEmptyDocument is returned when no text could be recognized.
	ErrEmptyDocument = errors.New("no text found in document")

	// ErrMissingCredentials is returned when Google Cloud credentials are not configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials")
)

// OCRError wraps errors with additional context about OCR failures.
type OCRError struct {
	// Op is the operation that failed.
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}

	return &OCRError{Op: op, Err: err, Details: details}
}
