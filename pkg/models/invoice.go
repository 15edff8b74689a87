package models

import "time"

// InvoiceType distinguishes purchase (payable) from sales (receivable) invoices.
type InvoiceType string

const (
	InvoiceTypePurchase InvoiceType = "purchase"
	InvoiceTypeSales    InvoiceType = "sales"
)

// Valid reports whether t is a known invoice type.
func (t InvoiceType) Valid() bool {
	return t == InvoiceTypePurchase || t == InvoiceTypeSales
}

// InvoiceStatus follows the verification lifecycle of an invoice record.
type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "pending"
	InvoiceStatusVerified InvoiceStatus = "verified"
	InvoiceStatusExported InvoiceStatus = "exported"
)

// ExtractedData is the canonical field set of an invoice. Every field is
// always present after normalization; extraction output the provider omitted
// becomes "" or 0 rather than a missing key.
type ExtractedData struct {
	InvoiceNo   string `json:"invoice_no"`
	InvoiceDate string `json:"invoice_date"` // DD/MM/YYYY as printed on the invoice

	SupplierName    string `json:"supplier_name"`
	SupplierGSTNo   string `json:"supplier_gst_no"`
	SupplierAddress string `json:"supplier_address"`

	BuyerName    string `json:"buyer_name"`
	BuyerGSTNo   string `json:"buyer_gst_no"`
	BuyerAddress string `json:"buyer_address"`

	BasicAmount float64 `json:"basic_amount"`
	GSTAmount   float64 `json:"gst_amount"`
	TotalAmount float64 `json:"total_amount"`
}

// ValidationFlags are recomputed on every create and verification save.
type ValidationFlags struct {
	IsDuplicate bool `json:"is_duplicate"`
	GSTMismatch bool `json:"gst_mismatch"`
}

// Invoice is a stored invoice record with extraction metadata.
type Invoice struct {
	ID     string      `json:"id"`
	UserID string      `json:"user_id"`
	Type   InvoiceType `json:"invoice_type"`

	Filename string `json:"filename,omitempty"`

	ExtractedData ExtractedData `json:"extracted_data"`

	// ConfidenceScores holds one entry in [0,1] per tracked field. The
	// tracked set depends on the invoice direction; see invoice.TrackedFields.
	ConfidenceScores map[string]float64 `json:"confidence_scores"`

	ValidationFlags ValidationFlags `json:"validation_flags"`

	Status        InvoiceStatus `json:"status"`
	IsManualEntry bool          `json:"is_manual_entry"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Counterparty returns the name on the other side of the invoice:
// the supplier for purchases, the buyer for sales.
func (inv *Invoice) Counterparty() string {
	if inv.Type == InvoiceTypePurchase {
		return inv.ExtractedData.SupplierName
	}
	return inv.ExtractedData.BuyerName
}

// CounterpartyGST returns the GST number of the counterparty.
func (inv *Invoice) CounterpartyGST() string {
	if inv.Type == InvoiceTypePurchase {
		return inv.ExtractedData.SupplierGSTNo
	}
	return inv.ExtractedData.BuyerGSTNo
}
