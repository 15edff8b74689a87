package extraction

import (
	"context"
	"errors"
	"testing"

	"finrecon/internal/ocr"
	"finrecon/pkg/models"
)

type textOCR struct {
	text string
}

func (o textOCR) RecognizeImage(ctx context.Context, imageData []byte) (*ocr.OCRResult, error) {
	return &ocr.OCRResult{Text: o.text, Confidence: 0.9}, nil
}

const sampleInvoiceText = `ACME TRADERS PVT LTD
GSTIN: 27AAPFU0939F1ZV
Invoice No: INV-2026-042
Date: 5/4/2026

Billed to: SUNRISE RETAIL
GSTIN: 29ABCDE1234F1Z5

Grand Total: Rs. 1,18,000.00`

func TestPatternExtractorFieldScan(t *testing.T) {
	e := NewPatternExtractor(textOCR{text: sampleInvoiceText})

	result, err := e.Extract(context.Background(), []byte("fake-png"), "invoice.png", models.InvoiceTypePurchase)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	wantStrings := map[string]string{
		FieldInvoiceNo:   "INV-2026-042",
		FieldInvoiceDate: "05/04/2026",
	}
	for field, want := range wantStrings {
		raw, ok := result.Values[field]
		if !ok || raw.Str != want {
			t.Errorf("%s = %q (present=%v), want %q", field, raw.Str, ok, want)
		}
	}

	total, ok := result.Values[FieldTotalAmount]
	if !ok || total.Num != 118000 {
		t.Errorf("total_amount = %v (present=%v), want 118000", total.Num, ok)
	}

	for field := range result.Values {
		if c := result.Confidence[field]; c != patternConfidence {
			t.Errorf("confidence[%s] = %v, want %v", field, c, patternConfidence)
		}
	}
}

// The document's first GSTIN belongs to the issuing supplier on both
// purchase and sales invoices; the direction must not swap the two sides.
func TestPatternExtractorGSTINAttribution(t *testing.T) {
	for _, invoiceType := range []models.InvoiceType{models.InvoiceTypePurchase, models.InvoiceTypeSales} {
		t.Run(string(invoiceType), func(t *testing.T) {
			e := NewPatternExtractor(textOCR{text: sampleInvoiceText})

			result, err := e.Extract(context.Background(), []byte("fake-png"), "invoice.png", invoiceType)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}

			if got := result.Values[FieldSupplierGSTNo].Str; got != "27AAPFU0939F1ZV" {
				t.Errorf("supplier_gst_no = %q, want the issuer's 27AAPFU0939F1ZV", got)
			}
			if got := result.Values[FieldBuyerGSTNo].Str; got != "29ABCDE1234F1Z5" {
				t.Errorf("buyer_gst_no = %q, want 29ABCDE1234F1Z5", got)
			}
		})
	}
}

func TestPatternExtractorRejectsImageWithoutOCR(t *testing.T) {
	e := NewPatternExtractor(nil)

	_, err := e.Extract(context.Background(), []byte("fake-png"), "invoice.png", models.InvoiceTypePurchase)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("error = %v, want ErrMissingCredentials", err)
	}
}
