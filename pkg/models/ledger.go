package models

import "time"

// InvoiceRef is the audit-display slice of an invoice inside a ledger entry.
type InvoiceRef struct {
	ID          string    `json:"id"`
	InvoiceNo   string    `json:"invoice_no"`
	InvoiceDate string    `json:"invoice_date"`
	Amount      float64   `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentRef is the audit-display slice of a settled (or unmatched) payment.
type PaymentRef struct {
	StatementID      string    `json:"statement_id"`
	TransactionIndex int       `json:"transaction_index"`
	Date             time.Time `json:"date"`
	Description      string    `json:"description"`
	Amount           float64   `json:"amount"`
	MatchType        MatchType `json:"match_type"`
	MatchScore       float64   `json:"match_score,omitempty"`
}

// LedgerEntry is the computed per-counterparty position. It is never stored;
// the aggregator rebuilds it from invoices, transactions, and overrides on
// every report request.
type LedgerEntry struct {
	Name  string `json:"name"`
	GSTNo string `json:"gst_no,omitempty"`

	TotalInvoiced float64 `json:"total_invoiced"`
	TotalSettled  float64 `json:"total_settled"`
	// Outstanding (receivables) or balance due (payables):
	// TotalInvoiced - TotalSettled. Negative values are meaningful
	// (over-collection / over-payment), not clamped.
	Outstanding float64 `json:"outstanding"`

	Invoices []InvoiceRef `json:"invoices"`
	Payments []PaymentRef `json:"payments"`
}

// LedgerSummary totals a report across all counterparties.
type LedgerSummary struct {
	TotalInvoiced    float64 `json:"total_invoiced"`
	TotalSettled     float64 `json:"total_settled"`
	TotalOutstanding float64 `json:"total_outstanding"`
}

// LedgerReport is a full receivables or payables report.
type LedgerReport struct {
	Direction MappingDirection `json:"direction"`
	Entries   []LedgerEntry    `json:"entries"`
	Summary   LedgerSummary    `json:"summary"`
	// UnmatchedPayments are transactions of the report's direction that
	// carry no mapping at all. They are surfaced here, never folded into
	// any counterparty's totals.
	UnmatchedPayments []PaymentRef `json:"unmatched_payments"`
}
