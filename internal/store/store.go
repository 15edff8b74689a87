// Package store persists invoices, bank statements, mapping overrides and
// user settings. Two implementations exist: an in-memory store for tests and
// credential-free runs, and a Postgres store for real deployments.
//
// All reads and writes are scoped by user ID. A record belonging to another
// user is indistinguishable from a missing one.
package store

import (
	"context"
	"errors"

	"finrecon/pkg/models"
)

// ErrNotFound is returned when a record does not exist for the given user.
var ErrNotFound = errors.New("record not found")

// InvoiceStore persists invoice records.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, userID, id string) (*models.Invoice, error)

	// ListInvoices returns the user's invoices, newest first. An empty
	// invoiceType returns both directions.
	ListInvoices(ctx context.Context, userID string, invoiceType models.InvoiceType) ([]*models.Invoice, error)

	UpdateInvoice(ctx context.Context, inv *models.Invoice) error
	DeleteInvoice(ctx context.Context, userID, id string) error
}

// StatementStore persists bank statements with their parsed transactions.
type StatementStore interface {
	CreateStatement(ctx context.Context, st *models.BankStatement) error
	GetStatement(ctx context.Context, userID, id string) (*models.BankStatement, error)
	ListStatements(ctx context.Context, userID string) ([]*models.BankStatement, error)
	DeleteStatement(ctx context.Context, userID, id string) error
}

// MappingStore persists manual transaction mapping overrides. Overrides are
// keyed by (user, statement, transaction index); setting an existing key
// replaces it.
type MappingStore interface {
	SetMapping(ctx context.Context, ov *models.MappingOverride) error

	// SetMappings stores a batch atomically: either every override lands
	// or none do.
	SetMappings(ctx context.Context, ovs []*models.MappingOverride) error

	ListMappings(ctx context.Context, userID string) ([]*models.MappingOverride, error)
	DeleteMapping(ctx context.Context, userID, statementID string, transactionIndex int) error

	// DeleteMappingsByStatement removes every override referencing the
	// statement. Used when a statement is deleted.
	DeleteMappingsByStatement(ctx context.Context, userID, statementID string) error
}

// SettingsStore persists per-user company settings.
type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	SaveSettings(ctx context.Context, s *models.UserSettings) error
}

// Store bundles every persistence concern behind one handle.
type Store interface {
	InvoiceStore
	StatementStore
	MappingStore
	SettingsStore

	// Close releases underlying resources.
	Close() error
}
