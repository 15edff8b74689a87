package extraction

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"finrecon/internal/logger"
	"finrecon/internal/ocr"
	"finrecon/pkg/models"
)

// patternConfidence is the flat confidence assigned to every field the
// pattern scanner finds. Regex hits are plausible but unverified, so they
// land well below the review threshold.
const patternConfidence = 0.4

var (
	// GSTIN: 2-digit state code, 10-char PAN, entity digit, Z, checksum.
	gstinPattern = regexp.MustCompile(`\b(\d{2}[A-Z]{5}\d{4}[A-Z]\d[A-Z]\d|\d{2}[A-Z]{5}\d{4}[A-Z]\dZ[A-Z0-9])\b`)

	invoiceNoPattern = regexp.MustCompile(`(?i)(?:invoice\s*(?:no|number|#)\.?\s*:?\s*)([A-Z0-9][A-Z0-9/\-]{1,24})`)

	datePattern = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})\b`)

	totalPattern = regexp.MustCompile(`(?i)(?:grand\s+total|total\s+amount|amount\s+payable|total)\s*:?\s*(?:₹|Rs\.?|INR)?\s*([\d,]+(?:\.\d{1,2})?)`)
)

// PatternExtractor is the offline fallback: no AI provider, just regular
// expressions over recognized text. Images go through OCR first; PDFs use
// their embedded text layer.
type PatternExtractor struct {
	ocr ocr.OCRService
	log zerolog.Logger
}

// NewPatternExtractor creates the fallback extractor. The OCR service may be
// nil, in which case image files are rejected and only PDFs are handled.
func NewPatternExtractor(ocrService ocr.OCRService) *PatternExtractor {
	return &PatternExtractor{
		ocr: ocrService,
		log: logger.WithComponent("extract-pattern"),
	}
}

// Name implements Extractor.
func (e *PatternExtractor) Name() string { return "pattern" }

// Extract scans the document text for GSTINs, an invoice number, a date and
// a total amount. Fields it cannot find are simply absent from the result.
func (e *PatternExtractor) Extract(ctx context.Context, data []byte, filename string, invoiceType models.InvoiceType) (*RawResult, error) {
	const op = "Extract"

	text, err := e.documentText(ctx, data, filename)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, WrapExtractionError(e.Name(), op, ErrExtractionFailed, "no text recognized in document")
	}

	result := NewRawResult()

	if m := invoiceNoPattern.FindStringSubmatch(text); m != nil {
		result.SetString(FieldInvoiceNo, strings.TrimSpace(m[1]), patternConfidence)
	}

	if m := datePattern.FindStringSubmatch(text); m != nil {
		result.SetString(FieldInvoiceDate,
			fmt.Sprintf("%s/%s/%s", pad2(m[1]), pad2(m[2]), m[3]), patternConfidence)
	}

	// The first GSTIN on an invoice belongs to the issuer, and invoices are
	// always issued by the supplier. This holds for both directions: on a
	// sales invoice the supplier is the user's own company.
	gstins := uniqueStrings(gstinPattern.FindAllString(text, 4))
	if len(gstins) > 0 {
		result.SetString(FieldSupplierGSTNo, gstins[0], patternConfidence)
	}
	if len(gstins) > 1 {
		result.SetString(FieldBuyerGSTNo, gstins[1], patternConfidence)
	}

	if m := totalPattern.FindStringSubmatch(text); m != nil {
		if amount, err := parseAmountString(m[1]); err == nil && amount > 0 {
			result.SetNumber(FieldTotalAmount, amount, patternConfidence)
		}
	}

	e.log.Info().
		Str("filename", filename).
		Int("fields", len(result.Values)).
		Msg("Pattern extraction completed")

	return result, nil
}

// documentText produces plain text for the scanner: PDF text layer for
// PDFs, OCR for supported images.
func (e *PatternExtractor) documentText(ctx context.Context, data []byte, filename string) (string, error) {
	const op = "documentText"

	mimeType := mimeTypeForFile(filename)
	switch {
	case mimeType == "application/pdf":
		text, err := pdfPlainText(data)
		if err != nil {
			return "", WrapExtractionError(e.Name(), op, err, "pdf text extraction")
		}
		return text, nil
	case strings.HasPrefix(mimeType, "image/"):
		if e.ocr == nil {
			return "", WrapExtractionError(e.Name(), op, ErrMissingCredentials, "no OCR service configured for image input")
		}
		ocrResult, err := e.ocr.RecognizeImage(ctx, data)
		if err != nil {
			return "", WrapExtractionError(e.Name(), op, err, "image OCR")
		}
		return ocrResult.Text, nil
	default:
		return "", WrapExtractionError(e.Name(), op, ErrUnsupportedFormat, filename)
	}
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
