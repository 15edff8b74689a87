package models

import "time"

// MatchType records how a transaction was assigned to a counterparty.
type MatchType string

const (
	MatchTypeAuto   MatchType = "auto"
	MatchTypeManual MatchType = "manual"
	MatchTypeNone   MatchType = "none"
)

// MappingDirection tells which ledger side a mapping belongs to.
type MappingDirection string

const (
	MappingReceivable MappingDirection = "receivable"
	MappingPayable    MappingDirection = "payable"
)

// Transaction is a single statement row. Exactly one of Credit and Debit is
// set; a row carrying both (or neither) never survives parsing.
// Transactions are addressed by their position within the owning statement.
type Transaction struct {
	Index       int       `json:"index"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`

	Credit *float64 `json:"credit,omitempty"`
	Debit  *float64 `json:"debit,omitempty"`

	// PartyName is the heuristic counterparty guess pulled out of the
	// description. It is a hint for the matching engine, nothing more.
	PartyName string `json:"party_name,omitempty"`

	// Mapping fields are computed on read, except for manual overrides.
	MappedBuyer    string    `json:"mapped_buyer,omitempty"`
	MappedSupplier string    `json:"mapped_supplier,omitempty"`
	MatchType      MatchType `json:"match_type"`
	MatchScore     float64   `json:"match_score,omitempty"` // 0-100, auto matches only
}

// Amount returns the transaction amount regardless of direction.
func (t *Transaction) Amount() float64 {
	if t.Credit != nil {
		return *t.Credit
	}
	if t.Debit != nil {
		return *t.Debit
	}
	return 0
}

// IsCredit reports whether the transaction is an incoming payment.
func (t *Transaction) IsCredit() bool { return t.Credit != nil }

// MappedParty returns whichever mapping side is populated.
func (t *Transaction) MappedParty() string {
	if t.MappedBuyer != "" {
		return t.MappedBuyer
	}
	return t.MappedSupplier
}

// BankStatement is an uploaded statement file with its parsed transactions.
// Deleting a statement removes its transactions and any mapping overrides
// that reference it.
type BankStatement struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	Filename     string        `json:"filename"`
	UploadDate   time.Time     `json:"upload_date"`
	Transactions []Transaction `json:"transactions"`
	TotalCredits float64       `json:"total_credits"`
	TotalDebits  float64       `json:"total_debits"`
}

// MappingOverride is a user-confirmed transaction assignment. Once present
// it always wins over the matching engine for the same transaction.
type MappingOverride struct {
	UserID           string           `json:"user_id"`
	StatementID      string           `json:"statement_id"`
	TransactionIndex int              `json:"transaction_index"`
	PartyName        string           `json:"party_name"`
	MappingType      MappingDirection `json:"mapping_type"`
}
