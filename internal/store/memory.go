package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"finrecon/pkg/models"
)

// MemoryStore is a mutex-guarded in-memory Store. Records are copied on the
// way in and out so callers can never alias stored state.
type MemoryStore struct {
	mu sync.RWMutex

	invoices   map[string]map[string]*models.Invoice      // userID -> invoiceID
	statements map[string]map[string]*models.BankStatement // userID -> statementID
	mappings   map[string]map[string]*models.MappingOverride
	settings   map[string]*models.UserSettings
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices:   make(map[string]map[string]*models.Invoice),
		statements: make(map[string]map[string]*models.BankStatement),
		mappings:   make(map[string]map[string]*models.MappingOverride),
		settings:   make(map[string]*models.UserSettings),
	}
}

func mappingKey(statementID string, transactionIndex int) string {
	return fmt.Sprintf("%s#%d", statementID, transactionIndex)
}

// CreateInvoice implements InvoiceStore.
func (m *MemoryStore) CreateInvoice(_ context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.invoices[inv.UserID] == nil {
		m.invoices[inv.UserID] = make(map[string]*models.Invoice)
	}
	m.invoices[inv.UserID][inv.ID] = copyInvoice(inv)
	return nil
}

// GetInvoice implements InvoiceStore.
func (m *MemoryStore) GetInvoice(_ context.Context, userID, id string) (*models.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.invoices[userID][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyInvoice(inv), nil
}

// ListInvoices implements InvoiceStore.
func (m *MemoryStore) ListInvoices(_ context.Context, userID string, invoiceType models.InvoiceType) ([]*models.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Invoice, 0, len(m.invoices[userID]))
	for _, inv := range m.invoices[userID] {
		if invoiceType != "" && inv.Type != invoiceType {
			continue
		}
		out = append(out, copyInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateInvoice implements InvoiceStore.
func (m *MemoryStore) UpdateInvoice(_ context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.invoices[inv.UserID][inv.ID]; !ok {
		return ErrNotFound
	}
	m.invoices[inv.UserID][inv.ID] = copyInvoice(inv)
	return nil
}

// DeleteInvoice implements InvoiceStore.
func (m *MemoryStore) DeleteInvoice(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.invoices[userID][id]; !ok {
		return ErrNotFound
	}
	delete(m.invoices[userID], id)
	return nil
}

// CreateStatement implements StatementStore.
func (m *MemoryStore) CreateStatement(_ context.Context, st *models.BankStatement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.statements[st.UserID] == nil {
		m.statements[st.UserID] = make(map[string]*models.BankStatement)
	}
	m.statements[st.UserID][st.ID] = copyStatement(st)
	return nil
}

// GetStatement implements StatementStore.
func (m *MemoryStore) GetStatement(_ context.Context, userID, id string) (*models.BankStatement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.statements[userID][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyStatement(st), nil
}

// ListStatements implements StatementStore.
func (m *MemoryStore) ListStatements(_ context.Context, userID string) ([]*models.BankStatement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.BankStatement, 0, len(m.statements[userID]))
	for _, st := range m.statements[userID] {
		out = append(out, copyStatement(st))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadDate.Equal(out[j].UploadDate) {
			return out[i].UploadDate.After(out[j].UploadDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteStatement implements StatementStore.
func (m *MemoryStore) DeleteStatement(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.statements[userID][id]; !ok {
		return ErrNotFound
	}
	delete(m.statements[userID], id)
	return nil
}

// SetMapping implements MappingStore.
func (m *MemoryStore) SetMapping(_ context.Context, ov *models.MappingOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setMappingLocked(ov)
	return nil
}

// SetMappings implements MappingStore. The memory store holds the lock for
// the whole batch, so partial writes are impossible.
func (m *MemoryStore) SetMappings(_ context.Context, ovs []*models.MappingOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ov := range ovs {
		m.setMappingLocked(ov)
	}
	return nil
}

func (m *MemoryStore) setMappingLocked(ov *models.MappingOverride) {
	if m.mappings[ov.UserID] == nil {
		m.mappings[ov.UserID] = make(map[string]*models.MappingOverride)
	}
	cp := *ov
	m.mappings[ov.UserID][mappingKey(ov.StatementID, ov.TransactionIndex)] = &cp
}

// ListMappings implements MappingStore.
func (m *MemoryStore) ListMappings(_ context.Context, userID string) ([]*models.MappingOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.MappingOverride, 0, len(m.mappings[userID]))
	for _, ov := range m.mappings[userID] {
		cp := *ov
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StatementID != out[j].StatementID {
			return out[i].StatementID < out[j].StatementID
		}
		return out[i].TransactionIndex < out[j].TransactionIndex
	})
	return out, nil
}

// DeleteMapping implements MappingStore.
func (m *MemoryStore) DeleteMapping(_ context.Context, userID, statementID string, transactionIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := mappingKey(statementID, transactionIndex)
	if _, ok := m.mappings[userID][key]; !ok {
		return ErrNotFound
	}
	delete(m.mappings[userID], key)
	return nil
}

// DeleteMappingsByStatement implements MappingStore.
func (m *MemoryStore) DeleteMappingsByStatement(_ context.Context, userID, statementID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, ov := range m.mappings[userID] {
		if ov.StatementID == statementID {
			delete(m.mappings[userID], key)
		}
	}
	return nil
}

// GetSettings implements SettingsStore.
func (m *MemoryStore) GetSettings(_ context.Context, userID string) (*models.UserSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// SaveSettings implements SettingsStore.
func (m *MemoryStore) SaveSettings(_ context.Context, s *models.UserSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	m.settings[s.UserID] = &cp
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

func copyInvoice(inv *models.Invoice) *models.Invoice {
	cp := *inv
	if inv.ConfidenceScores != nil {
		cp.ConfidenceScores = make(map[string]float64, len(inv.ConfidenceScores))
		for k, v := range inv.ConfidenceScores {
			cp.ConfidenceScores[k] = v
		}
	}
	return &cp
}

func copyStatement(st *models.BankStatement) *models.BankStatement {
	cp := *st
	cp.Transactions = make([]models.Transaction, len(st.Transactions))
	copy(cp.Transactions, st.Transactions)
	for i := range cp.Transactions {
		if st.Transactions[i].Credit != nil {
			v := *st.Transactions[i].Credit
			cp.Transactions[i].Credit = &v
		}
		if st.Transactions[i].Debit != nil {
			v := *st.Transactions[i].Debit
			cp.Transactions[i].Debit = &v
		}
	}
	return &cp
}
