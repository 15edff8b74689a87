package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"finrecon/internal/extraction"
	"finrecon/internal/logger"
	"finrecon/internal/store"
	"finrecon/pkg/models"
)

// Service implements the invoice lifecycle on top of an extraction provider
// and the store.
type Service struct {
	extractor extraction.Extractor
	invoices  store.InvoiceStore
	settings  store.SettingsStore
	log       zerolog.Logger
}

// NewService creates an invoice service.
func NewService(extractor extraction.Extractor, invoices store.InvoiceStore, settings store.SettingsStore) *Service {
	return &Service{
		extractor: extractor,
		invoices:  invoices,
		settings:  settings,
		log:       logger.WithComponent("invoice"),
	}
}

// Upload extracts fields from an uploaded invoice file and stores the
// normalized record. Extraction failure does not fail the upload: the record
// is stored with empty fields and all-zero confidence so the user can fill
// it in during verification.
func (s *Service) Upload(ctx context.Context, userID string, data []byte, filename string, invoiceType models.InvoiceType) (*models.Invoice, error) {
	const op = "Upload"

	if !invoiceType.Valid() {
		return nil, wrapError(op, ErrInvalidInvoiceType, string(invoiceType))
	}
	if len(data) == 0 {
		return nil, wrapError(op, ErrEmptyFile, filename)
	}

	raw, err := s.extractor.Extract(ctx, data, filename, invoiceType)
	if err != nil {
		s.log.Warn().Err(err).
			Str("user_id", userID).
			Str("filename", filename).
			Str("provider", s.extractor.Name()).
			Msg("Extraction failed, storing empty record for manual review")
		raw = extraction.NewRawResult()
	}

	extracted, scores := Normalize(raw, invoiceType)

	now := time.Now().UTC()
	inv := &models.Invoice{
		ID:               uuid.New().String(),
		UserID:           userID,
		Type:             invoiceType,
		Filename:         filename,
		ExtractedData:    extracted,
		ConfidenceScores: scores,
		Status:           models.InvoiceStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.applyFlags(ctx, inv); err != nil {
		return nil, wrapError(op, err, "validation")
	}
	if err := s.invoices.CreateInvoice(ctx, inv); err != nil {
		return nil, wrapError(op, err, "store invoice")
	}

	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("user_id", userID).
		Str("invoice_type", string(invoiceType)).
		Bool("is_duplicate", inv.ValidationFlags.IsDuplicate).
		Bool("gst_mismatch", inv.ValidationFlags.GSTMismatch).
		Msg("Invoice uploaded")

	return inv, nil
}

// CreateManual stores a hand-entered invoice. Human input is trusted: every
// tracked field gets full confidence and the record starts verified.
func (s *Service) CreateManual(ctx context.Context, userID string, invoiceType models.InvoiceType, data models.ExtractedData) (*models.Invoice, error) {
	const op = "CreateManual"

	if !invoiceType.Valid() {
		return nil, wrapError(op, ErrInvalidInvoiceType, string(invoiceType))
	}

	scores := make(map[string]float64, 8)
	for _, field := range TrackedFields(invoiceType) {
		scores[field] = 1.0
	}

	now := time.Now().UTC()
	inv := &models.Invoice{
		ID:               uuid.New().String(),
		UserID:           userID,
		Type:             invoiceType,
		ExtractedData:    data,
		ConfidenceScores: scores,
		Status:           models.InvoiceStatusVerified,
		IsManualEntry:    true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.applyFlags(ctx, inv); err != nil {
		return nil, wrapError(op, err, "validation")
	}
	if err := s.invoices.CreateInvoice(ctx, inv); err != nil {
		return nil, wrapError(op, err, "store invoice")
	}

	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("user_id", userID).
		Msg("Manual invoice created")

	return inv, nil
}

// Get returns one invoice.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Invoice, error) {
	return s.invoices.GetInvoice(ctx, userID, id)
}

// List returns the user's invoices, optionally filtered by direction.
func (s *Service) List(ctx context.Context, userID string, invoiceType models.InvoiceType) ([]*models.Invoice, error) {
	const op = "List"

	if invoiceType != "" && !invoiceType.Valid() {
		return nil, wrapError(op, ErrInvalidInvoiceType, string(invoiceType))
	}
	return s.invoices.ListInvoices(ctx, userID, invoiceType)
}

// Update applies verification edits. Flags are recomputed against the edited
// values and the record moves to verified. Exported invoices are immutable.
func (s *Service) Update(ctx context.Context, userID, id string, data models.ExtractedData) (*models.Invoice, error) {
	const op = "Update"

	inv, err := s.invoices.GetInvoice(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceStatusExported {
		return nil, wrapError(op, ErrExportedImmutable, id)
	}

	inv.ExtractedData = data
	inv.Status = models.InvoiceStatusVerified
	inv.UpdatedAt = time.Now().UTC()

	if err := s.applyFlags(ctx, inv); err != nil {
		return nil, wrapError(op, err, "validation")
	}
	if err := s.invoices.UpdateInvoice(ctx, inv); err != nil {
		return nil, wrapError(op, err, "store invoice")
	}

	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("user_id", userID).
		Msg("Invoice verified")

	return inv, nil
}

// Delete removes an invoice.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.invoices.DeleteInvoice(ctx, userID, id)
}

// ExportTally renders every verified invoice of the direction as a Tally
// voucher import file and marks the exported records immutable.
func (s *Service) ExportTally(ctx context.Context, userID string, invoiceType models.InvoiceType) ([]byte, error) {
	const op = "ExportTally"

	if !invoiceType.Valid() {
		return nil, wrapError(op, ErrInvalidInvoiceType, string(invoiceType))
	}

	all, err := s.invoices.ListInvoices(ctx, userID, invoiceType)
	if err != nil {
		return nil, wrapError(op, err, "list invoices")
	}

	var verified []*models.Invoice
	for _, inv := range all {
		if inv.Status == models.InvoiceStatusVerified {
			verified = append(verified, inv)
		}
	}
	if len(verified) == 0 {
		return nil, wrapError(op, ErrNothingToExport, string(invoiceType))
	}

	out, err := buildTallyXML(verified)
	if err != nil {
		return nil, wrapError(op, err, "render tally xml")
	}

	now := time.Now().UTC()
	for _, inv := range verified {
		inv.Status = models.InvoiceStatusExported
		inv.UpdatedAt = now
		if err := s.invoices.UpdateInvoice(ctx, inv); err != nil {
			return nil, wrapError(op, err, "mark exported")
		}
	}

	s.log.Info().
		Str("user_id", userID).
		Str("invoice_type", string(invoiceType)).
		Int("count", len(verified)).
		Msg("Invoices exported to Tally")

	return out, nil
}

// applyFlags recomputes validation flags from current store state.
func (s *Service) applyFlags(ctx context.Context, inv *models.Invoice) error {
	existing, err := s.invoices.ListInvoices(ctx, inv.UserID, inv.Type)
	if err != nil {
		return err
	}

	var companyGST string
	settings, err := s.settings.GetSettings(ctx, inv.UserID)
	switch {
	case err == nil:
		companyGST = settings.CompanyGSTNo
	case errors.Is(err, store.ErrNotFound):
		// No settings yet; GST check stays off.
	default:
		return err
	}

	inv.ValidationFlags = ComputeFlags(inv, existing, companyGST)
	return nil
}
