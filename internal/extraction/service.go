// Package extraction is the single boundary between raw AI field extraction
// and the rest of the system.
//
// Every provider (Document AI, OpenAI, the offline pattern scanner) produces
// a RawResult: a strict union of typed field values plus a confidence map.
// Nothing downstream ever sees provider-shaped payloads; the invoice
// normalizer consumes RawResult and nothing else.
package extraction

import (
	"context"

	"finrecon/pkg/models"
)

// Canonical extraction field names. These are the only keys a RawResult may
// carry; unknown provider entities are dropped at the provider boundary.
const (
	FieldInvoiceNo       = "invoice_no"
	FieldInvoiceDate     = "invoice_date"
	FieldSupplierName    = "supplier_name"
	FieldSupplierGSTNo   = "supplier_gst_no"
	FieldSupplierAddress = "supplier_address"
	FieldBuyerName       = "buyer_name"
	FieldBuyerGSTNo      = "buyer_gst_no"
	FieldBuyerAddress    = "buyer_address"
	FieldBasicAmount     = "basic_amount"
	FieldGSTAmount       = "gst_amount"
	FieldTotalAmount     = "total_amount"
)

// ValueKind tags the union arm of a RawValue.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
)

// RawValue is one extracted field value. Exactly one arm is meaningful,
// selected by Kind.
type RawValue struct {
	Kind ValueKind
	Str  string
	Num  float64
}

// StringValue builds a string-kind RawValue.
func StringValue(s string) RawValue { return RawValue{Kind: KindString, Str: s} }

// NumberValue builds a number-kind RawValue.
func NumberValue(f float64) RawValue { return RawValue{Kind: KindNumber, Num: f} }

// RawResult is the provider-independent extraction output. Field presence is
// map membership in Values; Confidence carries one score in [0,1] per field
// the provider reported on.
type RawResult struct {
	Values     map[string]RawValue
	Confidence map[string]float64
}

// NewRawResult returns an empty result ready for provider population.
func NewRawResult() *RawResult {
	return &RawResult{
		Values:     make(map[string]RawValue),
		Confidence: make(map[string]float64),
	}
}

// SetString records a string field with its confidence.
func (r *RawResult) SetString(field, value string, confidence float64) {
	r.Values[field] = StringValue(value)
	r.Confidence[field] = clamp01(confidence)
}

// SetNumber records a numeric field with its confidence.
func (r *RawResult) SetNumber(field string, value, confidence float64) {
	r.Values[field] = NumberValue(value)
	r.Confidence[field] = clamp01(confidence)
}

// Has reports whether the provider produced a value for field.
func (r *RawResult) Has(field string) bool {
	_, ok := r.Values[field]
	return ok
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Extractor turns an uploaded invoice file into a RawResult.
type Extractor interface {
	// Extract runs field extraction on the file contents. The invoice type
	// steers direction-specific prompting; providers that do not prompt may
	// ignore it. Implementations return an error on hard provider failure -
	// recovery (empty record, zero confidence) is the caller's concern.
	Extract(ctx context.Context, data []byte, filename string, invoiceType models.InvoiceType) (*RawResult, error)

	// Name identifies the provider for logging.
	Name() string
}
