package invoice

import (
	"strings"

	"finrecon/pkg/models"
)

// ComputeFlags recomputes validation flags for an invoice against the user's
// other invoices of the same direction and the company GST number from
// settings. It runs on every create and every verification save.
func ComputeFlags(inv *models.Invoice, existing []*models.Invoice, companyGSTNo string) models.ValidationFlags {
	return models.ValidationFlags{
		IsDuplicate: isDuplicate(inv, existing),
		GSTMismatch: gstMismatch(inv, companyGSTNo),
	}
}

// isDuplicate reports whether another stored invoice of the same direction
// carries the same invoice number and counterparty. Comparison is
// case-insensitive on trimmed values; an empty invoice number never flags.
func isDuplicate(inv *models.Invoice, existing []*models.Invoice) bool {
	invoiceNo := normalizeKey(inv.ExtractedData.InvoiceNo)
	if invoiceNo == "" {
		return false
	}
	counterparty := normalizeKey(inv.Counterparty())

	for _, other := range existing {
		if other.ID == inv.ID || other.Type != inv.Type {
			continue
		}
		if normalizeKey(other.ExtractedData.InvoiceNo) == invoiceNo &&
			normalizeKey(other.Counterparty()) == counterparty {
			return true
		}
	}
	return false
}

// gstMismatch checks the own-side GST number against the company's. On a
// purchase invoice the company is the buyer; on a sales invoice the
// supplier. Missing values on either side never flag.
func gstMismatch(inv *models.Invoice, companyGSTNo string) bool {
	company := normalizeKey(companyGSTNo)
	if company == "" {
		return false
	}

	ownSide := inv.ExtractedData.BuyerGSTNo
	if inv.Type == models.InvoiceTypeSales {
		ownSide = inv.ExtractedData.SupplierGSTNo
	}
	own := normalizeKey(ownSide)
	if own == "" {
		return false
	}

	return own != company
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
