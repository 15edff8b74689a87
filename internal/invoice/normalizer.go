// Package invoice owns the invoice lifecycle: normalization of raw
// extraction output, validation flags, verification edits, manual entry and
// Tally export.
package invoice

import (
	"fmt"
	"strings"

	"finrecon/internal/extraction"
	"finrecon/pkg/models"
)

// TrackedFields returns the confidence-tracked field set for a direction.
// Both GST numbers are tracked alongside the counterparty's name; addresses
// and the own-side name are extracted but not scored.
func TrackedFields(invoiceType models.InvoiceType) []string {
	nameField := extraction.FieldSupplierName
	if invoiceType == models.InvoiceTypeSales {
		nameField = extraction.FieldBuyerName
	}
	return []string{
		extraction.FieldInvoiceNo,
		extraction.FieldInvoiceDate,
		nameField,
		extraction.FieldSupplierGSTNo,
		extraction.FieldBuyerGSTNo,
		extraction.FieldBasicAmount,
		extraction.FieldGSTAmount,
		extraction.FieldTotalAmount,
	}
}

// Normalize converts a raw extraction result into the canonical field set
// plus a complete confidence map. Every tracked field gets a score; fields
// the provider never produced score zero. Normalize never fails: a nil or
// empty raw result yields an empty record with all-zero confidence.
func Normalize(raw *extraction.RawResult, invoiceType models.InvoiceType) (models.ExtractedData, map[string]float64) {
	if raw == nil {
		raw = extraction.NewRawResult()
	}

	data := models.ExtractedData{
		InvoiceNo:       stringField(raw, extraction.FieldInvoiceNo),
		InvoiceDate:     stringField(raw, extraction.FieldInvoiceDate),
		SupplierName:    stringField(raw, extraction.FieldSupplierName),
		SupplierGSTNo:   stringField(raw, extraction.FieldSupplierGSTNo),
		SupplierAddress: stringField(raw, extraction.FieldSupplierAddress),
		BuyerName:       stringField(raw, extraction.FieldBuyerName),
		BuyerGSTNo:      stringField(raw, extraction.FieldBuyerGSTNo),
		BuyerAddress:    stringField(raw, extraction.FieldBuyerAddress),
		BasicAmount:     numberField(raw, extraction.FieldBasicAmount),
		GSTAmount:       numberField(raw, extraction.FieldGSTAmount),
		TotalAmount:     numberField(raw, extraction.FieldTotalAmount),
	}

	completeAmounts(&data, raw)

	scores := make(map[string]float64, 8)
	for _, field := range TrackedFields(invoiceType) {
		scores[field] = raw.Confidence[field]
	}
	return data, scores
}

// completeAmounts derives a missing amount when the other two are present.
// Derived values carry no confidence: the field stays at zero in the score
// map, so review surfaces it.
func completeAmounts(data *models.ExtractedData, raw *extraction.RawResult) {
	hasBasic := raw.Has(extraction.FieldBasicAmount)
	hasGST := raw.Has(extraction.FieldGSTAmount)
	hasTotal := raw.Has(extraction.FieldTotalAmount)

	switch {
	case !hasTotal && hasBasic && hasGST:
		data.TotalAmount = data.BasicAmount + data.GSTAmount
	case !hasBasic && hasTotal && hasGST:
		data.BasicAmount = data.TotalAmount - data.GSTAmount
	case !hasGST && hasTotal && hasBasic:
		data.GSTAmount = data.TotalAmount - data.BasicAmount
	}
}

func stringField(raw *extraction.RawResult, field string) string {
	v, ok := raw.Values[field]
	if !ok {
		return ""
	}
	if v.Kind == extraction.KindNumber {
		return strings.TrimSpace(fmt.Sprintf("%v", v.Num))
	}
	return strings.TrimSpace(v.Str)
}

func numberField(raw *extraction.RawResult, field string) float64 {
	v, ok := raw.Values[field]
	if !ok || v.Kind != extraction.KindNumber {
		return 0
	}
	return v.Num
}
