package invoice

import (
	"testing"

	"finrecon/internal/extraction"
	"finrecon/pkg/models"
)

func TestNormalizeFillsEveryTrackedField(t *testing.T) {
	raw := extraction.NewRawResult()
	raw.SetString(extraction.FieldInvoiceNo, "INV-001", 0.95)
	raw.SetString(extraction.FieldSupplierName, "ABC Traders", 0.9)
	raw.SetNumber(extraction.FieldTotalAmount, 11800, 0.92)

	data, scores := Normalize(raw, models.InvoiceTypePurchase)

	if data.InvoiceNo != "INV-001" {
		t.Errorf("InvoiceNo = %q, want INV-001", data.InvoiceNo)
	}
	if data.SupplierName != "ABC Traders" {
		t.Errorf("SupplierName = %q, want ABC Traders", data.SupplierName)
	}
	if data.TotalAmount != 11800 {
		t.Errorf("TotalAmount = %v, want 11800", data.TotalAmount)
	}
	if data.BuyerName != "" || data.BasicAmount != 0 {
		t.Errorf("missing fields should normalize to zero values, got buyer=%q basic=%v", data.BuyerName, data.BasicAmount)
	}

	if len(scores) != 8 {
		t.Fatalf("score map has %d entries, want 8", len(scores))
	}
	if scores[extraction.FieldInvoiceNo] != 0.95 {
		t.Errorf("invoice_no confidence = %v, want 0.95", scores[extraction.FieldInvoiceNo])
	}
	if scores[extraction.FieldInvoiceDate] != 0 {
		t.Errorf("missing invoice_date should score 0, got %v", scores[extraction.FieldInvoiceDate])
	}
	if scores[extraction.FieldBasicAmount] != 0 {
		t.Errorf("missing basic_amount should score 0, got %v", scores[extraction.FieldBasicAmount])
	}
}

func TestNormalizeNilResultYieldsEmptyRecord(t *testing.T) {
	data, scores := Normalize(nil, models.InvoiceTypeSales)

	if data != (models.ExtractedData{}) {
		t.Errorf("expected zero-value record, got %+v", data)
	}
	if len(scores) != 8 {
		t.Fatalf("score map has %d entries, want 8", len(scores))
	}
	for field, score := range scores {
		if score != 0 {
			t.Errorf("field %s scored %v, want 0", field, score)
		}
	}
}

func TestNormalizeDerivesMissingAmount(t *testing.T) {
	tests := []struct {
		name      string
		basic     *float64
		gst       *float64
		total     *float64
		wantBasic float64
		wantGST   float64
		wantTotal float64
		derived   string
	}{
		{
			name:  "total from basic and gst",
			basic: ptr(10000.0), gst: ptr(1800.0),
			wantBasic: 10000, wantGST: 1800, wantTotal: 11800,
			derived: extraction.FieldTotalAmount,
		},
		{
			name:  "basic from total and gst",
			total: ptr(11800.0), gst: ptr(1800.0),
			wantBasic: 10000, wantGST: 1800, wantTotal: 11800,
			derived: extraction.FieldBasicAmount,
		},
		{
			name:  "gst from total and basic",
			total: ptr(11800.0), basic: ptr(10000.0),
			wantBasic: 10000, wantGST: 1800, wantTotal: 11800,
			derived: extraction.FieldGSTAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := extraction.NewRawResult()
			if tt.basic != nil {
				raw.SetNumber(extraction.FieldBasicAmount, *tt.basic, 0.9)
			}
			if tt.gst != nil {
				raw.SetNumber(extraction.FieldGSTAmount, *tt.gst, 0.9)
			}
			if tt.total != nil {
				raw.SetNumber(extraction.FieldTotalAmount, *tt.total, 0.9)
			}

			data, scores := Normalize(raw, models.InvoiceTypePurchase)

			if data.BasicAmount != tt.wantBasic || data.GSTAmount != tt.wantGST || data.TotalAmount != tt.wantTotal {
				t.Errorf("amounts = %v/%v/%v, want %v/%v/%v",
					data.BasicAmount, data.GSTAmount, data.TotalAmount,
					tt.wantBasic, tt.wantGST, tt.wantTotal)
			}
			if scores[tt.derived] != 0 {
				t.Errorf("derived field %s scored %v, want 0", tt.derived, scores[tt.derived])
			}
		})
	}
}

func TestTrackedFieldsDependOnDirection(t *testing.T) {
	purchase := TrackedFields(models.InvoiceTypePurchase)
	sales := TrackedFields(models.InvoiceTypeSales)

	if len(purchase) != 8 || len(sales) != 8 {
		t.Fatalf("tracked sets: purchase=%d sales=%d, want 8 each", len(purchase), len(sales))
	}
	if !contains(purchase, extraction.FieldSupplierName) || contains(purchase, extraction.FieldBuyerName) {
		t.Errorf("purchase should track supplier_name, not buyer_name: %v", purchase)
	}
	if !contains(sales, extraction.FieldBuyerName) || contains(sales, extraction.FieldSupplierName) {
		t.Errorf("sales should track buyer_name, not supplier_name: %v", sales)
	}
	for _, set := range [][]string{purchase, sales} {
		if contains(set, extraction.FieldSupplierAddress) || contains(set, extraction.FieldBuyerAddress) {
			t.Errorf("addresses must not be confidence-tracked: %v", set)
		}
	}
}

func ptr(f float64) *float64 { return &f }

func contains(set []string, field string) bool {
	for _, f := range set {
		if f == field {
			return true
		}
	}
	return false
}
