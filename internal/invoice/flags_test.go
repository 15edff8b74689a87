package invoice

import (
	"testing"

	"finrecon/pkg/models"
)

func purchaseInvoice(id, invoiceNo, supplier string) *models.Invoice {
	return &models.Invoice{
		ID:   id,
		Type: models.InvoiceTypePurchase,
		ExtractedData: models.ExtractedData{
			InvoiceNo:    invoiceNo,
			SupplierName: supplier,
		},
	}
}

func TestIsDuplicate(t *testing.T) {
	existing := []*models.Invoice{
		purchaseInvoice("inv-1", "INV-001", "ABC Traders"),
		purchaseInvoice("inv-2", "INV-002", "XYZ Enterprises"),
	}

	tests := []struct {
		name string
		inv  *models.Invoice
		want bool
	}{
		{
			name: "same number same party",
			inv:  purchaseInvoice("inv-new", "INV-001", "ABC Traders"),
			want: true,
		},
		{
			name: "case and whitespace insensitive",
			inv:  purchaseInvoice("inv-new", "  inv-001 ", "abc traders"),
			want: true,
		},
		{
			name: "same number different party",
			inv:  purchaseInvoice("inv-new", "INV-001", "Other Supplier"),
			want: false,
		},
		{
			name: "different number same party",
			inv:  purchaseInvoice("inv-new", "INV-003", "ABC Traders"),
			want: false,
		},
		{
			name: "empty invoice number never flags",
			inv:  purchaseInvoice("inv-new", "", "ABC Traders"),
			want: false,
		},
		{
			name: "record never matches itself",
			inv:  purchaseInvoice("inv-1", "INV-001", "ABC Traders"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicate(tt.inv, existing); got != tt.want {
				t.Errorf("isDuplicate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDuplicateIgnoresOtherDirection(t *testing.T) {
	sales := purchaseInvoice("inv-1", "INV-001", "ABC Traders")
	sales.Type = models.InvoiceTypeSales
	sales.ExtractedData.BuyerName = "ABC Traders"

	inv := purchaseInvoice("inv-new", "INV-001", "ABC Traders")
	if isDuplicate(inv, []*models.Invoice{sales}) {
		t.Error("a sales invoice must not flag a purchase invoice as duplicate")
	}
}

func TestGSTMismatch(t *testing.T) {
	const companyGST = "27AAPFU0939F1ZV"

	tests := []struct {
		name     string
		invType  models.InvoiceType
		supplier string
		buyer    string
		company  string
		want     bool
	}{
		{
			name:    "purchase buyer matches company",
			invType: models.InvoiceTypePurchase,
			buyer:   companyGST, company: companyGST,
			want: false,
		},
		{
			name:    "purchase buyer differs from company",
			invType: models.InvoiceTypePurchase,
			buyer:   "29AAACX1234M1Z5", company: companyGST,
			want: true,
		},
		{
			name:    "purchase ignores supplier gst",
			invType: models.InvoiceTypePurchase,
			supplier: "29AAACX1234M1Z5", buyer: companyGST, company: companyGST,
			want: false,
		},
		{
			name:    "sales supplier differs from company",
			invType: models.InvoiceTypeSales,
			supplier: "29AAACX1234M1Z5", company: companyGST,
			want: true,
		},
		{
			name:    "sales supplier matches company",
			invType: models.InvoiceTypeSales,
			supplier: companyGST, company: companyGST,
			want: false,
		},
		{
			name:    "no company gst configured",
			invType: models.InvoiceTypePurchase,
			buyer:   "29AAACX1234M1Z5", company: "",
			want: false,
		},
		{
			name:    "own side gst missing",
			invType: models.InvoiceTypePurchase,
			buyer:   "", company: companyGST,
			want: false,
		},
		{
			name:    "comparison is case insensitive",
			invType: models.InvoiceTypePurchase,
			buyer:   "27aapfu0939f1zv", company: companyGST,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &models.Invoice{
				Type: tt.invType,
				ExtractedData: models.ExtractedData{
					SupplierGSTNo: tt.supplier,
					BuyerGSTNo:    tt.buyer,
				},
			}
			if got := gstMismatch(inv, tt.company); got != tt.want {
				t.Errorf("gstMismatch() = %v, want %v", got, tt.want)
			}
		})
	}
}
