package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"finrecon/internal/logger"
	"finrecon/pkg/models"
)

// PostgresStore is the pgx-backed Store. Records are stored as JSONB
// payloads keyed by user and record ID; the columns that queries filter or
// order on are lifted out of the payload.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewPostgresStore connects to Postgres and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	const op = "NewPostgresStore"

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	s := &PostgresStore{
		pool: pool,
		log:  logger.WithComponent("store-postgres"),
	}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: migrate: %w", op, err)
	}

	s.log.Info().Msg("Postgres store ready")
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS invoices (
			user_id      TEXT NOT NULL,
			id           TEXT NOT NULL,
			invoice_type TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			payload      JSONB NOT NULL,
			PRIMARY KEY (user_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS statements (
			user_id     TEXT NOT NULL,
			id          TEXT NOT NULL,
			upload_date TIMESTAMPTZ NOT NULL,
			payload     JSONB NOT NULL,
			PRIMARY KEY (user_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS mappings (
			user_id           TEXT NOT NULL,
			statement_id      TEXT NOT NULL,
			transaction_index INT NOT NULL,
			payload           JSONB NOT NULL,
			PRIMARY KEY (user_id, statement_id, transaction_index)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			user_id TEXT PRIMARY KEY,
			payload JSONB NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateInvoice implements InvoiceStore.
func (s *PostgresStore) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshal invoice: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO invoices (user_id, id, invoice_type, created_at, payload) VALUES ($1, $2, $3, $4, $5)`,
		inv.UserID, inv.ID, string(inv.Type), inv.CreatedAt, payload)
	return err
}

// GetInvoice implements InvoiceStore.
func (s *PostgresStore) GetInvoice(ctx context.Context, userID, id string) (*models.Invoice, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM invoices WHERE user_id = $1 AND id = $2`,
		userID, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var inv models.Invoice
	if err := json.Unmarshal(payload, &inv); err != nil {
		return nil, fmt.Errorf("unmarshal invoice: %w", err)
	}
	return &inv, nil
}

// ListInvoices implements InvoiceStore.
func (s *PostgresStore) ListInvoices(ctx context.Context, userID string, invoiceType models.InvoiceType) ([]*models.Invoice, error) {
	query := `SELECT payload FROM invoices WHERE user_id = $1 ORDER BY created_at DESC, id`
	args := []any{userID}
	if invoiceType != "" {
		query = `SELECT payload FROM invoices WHERE user_id = $1 AND invoice_type = $2 ORDER BY created_at DESC, id`
		args = append(args, string(invoiceType))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Invoice, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var inv models.Invoice
		if err := json.Unmarshal(payload, &inv); err != nil {
			return nil, fmt.Errorf("unmarshal invoice: %w", err)
		}
		out = append(out, &inv)
	}
	return out, rows.Err()
}

// UpdateInvoice implements InvoiceStore.
func (s *PostgresStore) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshal invoice: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE invoices SET invoice_type = $3, payload = $4 WHERE user_id = $1 AND id = $2`,
		inv.UserID, inv.ID, string(inv.Type), payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInvoice implements InvoiceStore.
func (s *PostgresStore) DeleteInvoice(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM invoices WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateStatement implements StatementStore.
func (s *PostgresStore) CreateStatement(ctx context.Context, st *models.BankStatement) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal statement: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO statements (user_id, id, upload_date, payload) VALUES ($1, $2, $3, $4)`,
		st.UserID, st.ID, st.UploadDate, payload)
	return err
}

// GetStatement implements StatementStore.
func (s *PostgresStore) GetStatement(ctx context.Context, userID, id string) (*models.BankStatement, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM statements WHERE user_id = $1 AND id = $2`,
		userID, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var st models.BankStatement
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("unmarshal statement: %w", err)
	}
	return &st, nil
}

// ListStatements implements StatementStore.
func (s *PostgresStore) ListStatements(ctx context.Context, userID string) ([]*models.BankStatement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM statements WHERE user_id = $1 ORDER BY upload_date DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.BankStatement, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var st models.BankStatement
		if err := json.Unmarshal(payload, &st); err != nil {
			return nil, fmt.Errorf("unmarshal statement: %w", err)
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

// DeleteStatement implements StatementStore.
func (s *PostgresStore) DeleteStatement(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM statements WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMapping implements MappingStore.
func (s *PostgresStore) SetMapping(ctx context.Context, ov *models.MappingOverride) error {
	payload, err := json.Marshal(ov)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO mappings (user_id, statement_id, transaction_index, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, statement_id, transaction_index) DO UPDATE SET payload = EXCLUDED.payload`,
		ov.UserID, ov.StatementID, ov.TransactionIndex, payload)
	return err
}

// SetMappings implements MappingStore. The batch runs inside one
// transaction so a failed row rolls everything back.
func (s *PostgresStore) SetMappings(ctx context.Context, ovs []*models.MappingOverride) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, ov := range ovs {
		payload, err := json.Marshal(ov)
		if err != nil {
			return fmt.Errorf("marshal mapping: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO mappings (user_id, statement_id, transaction_index, payload)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id, statement_id, transaction_index) DO UPDATE SET payload = EXCLUDED.payload`,
			ov.UserID, ov.StatementID, ov.TransactionIndex, payload)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListMappings implements MappingStore.
func (s *PostgresStore) ListMappings(ctx context.Context, userID string) ([]*models.MappingOverride, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM mappings WHERE user_id = $1 ORDER BY statement_id, transaction_index`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.MappingOverride, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var ov models.MappingOverride
		if err := json.Unmarshal(payload, &ov); err != nil {
			return nil, fmt.Errorf("unmarshal mapping: %w", err)
		}
		out = append(out, &ov)
	}
	return out, rows.Err()
}

// DeleteMapping implements MappingStore.
func (s *PostgresStore) DeleteMapping(ctx context.Context, userID, statementID string, transactionIndex int) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM mappings WHERE user_id = $1 AND statement_id = $2 AND transaction_index = $3`,
		userID, statementID, transactionIndex)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMappingsByStatement implements MappingStore.
func (s *PostgresStore) DeleteMappingsByStatement(ctx context.Context, userID, statementID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM mappings WHERE user_id = $1 AND statement_id = $2`, userID, statementID)
	return err
}

// GetSettings implements SettingsStore.
func (s *PostgresStore) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM settings WHERE user_id = $1`, userID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var settings models.UserSettings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings implements SettingsStore.
func (s *PostgresStore) SaveSettings(ctx context.Context, settings *models.UserSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO settings (user_id, payload) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET payload = EXCLUDED.payload`,
		settings.UserID, payload)
	return err
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
