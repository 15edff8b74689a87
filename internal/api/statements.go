package api

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"finrecon/internal/statement"
	"finrecon/pkg/models"
)

func (s *Server) handleStatementUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file upload, use form field 'file'")
	}
	if !statement.Supported(fileHeader.Filename) {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("unsupported file type, allowed: %s", strings.Join(statement.SupportedExtensions, ", ")))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot read uploaded file")
	}

	txs, err := s.parser.Parse(data, fileHeader.Filename)
	if err != nil {
		return err
	}

	credits, debits := statement.Totals(txs)
	st := &models.BankStatement{
		ID:           uuid.New().String(),
		UserID:       userID(c),
		Filename:     fileHeader.Filename,
		UploadDate:   time.Now().UTC(),
		Transactions: txs,
		TotalCredits: credits,
		TotalDebits:  debits,
	}
	if err := s.store.CreateStatement(c.Context(), st); err != nil {
		return err
	}

	if err := s.annotate(c, st); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

func (s *Server) handleStatementList(c *fiber.Ctx) error {
	statements, err := s.store.ListStatements(c.Context(), userID(c))
	if err != nil {
		return err
	}
	for _, st := range statements {
		if err := s.annotate(c, st); err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"statements": statements, "count": len(statements)})
}

// handleStatementDelete removes the statement and every mapping override
// that references it.
func (s *Server) handleStatementDelete(c *fiber.Ctx) error {
	uid, id := userID(c), c.Params("id")

	if err := s.store.DeleteStatement(c.Context(), uid, id); err != nil {
		return err
	}
	if err := s.store.DeleteMappingsByStatement(c.Context(), uid, id); err != nil {
		return err
	}

	s.log.Info().Str("statement_id", id).Str("user_id", uid).Msg("Statement deleted with its mappings")
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleStatementTransactions(c *fiber.Ctx) error {
	st, err := s.store.GetStatement(c.Context(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	if err := s.annotate(c, st); err != nil {
		return err
	}

	txs := st.Transactions
	switch c.Query("type") {
	case "":
	case "credit":
		txs = filterTransactions(txs, true)
	case "debit":
		txs = filterTransactions(txs, false)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "type must be credit or debit")
	}

	return c.JSON(fiber.Map{"transactions": txs, "count": len(txs)})
}

type mappingRequest struct {
	PartyName   *string                 `json:"party_name"`
	MappingType models.MappingDirection `json:"mapping_type"`
}

// handleMappingSet stores or clears one manual override. A null or empty
// party name clears the override so the matching engine takes over again.
func (s *Server) handleMappingSet(c *fiber.Ctx) error {
	uid, id := userID(c), c.Params("id")

	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "transaction index must be a non-negative integer")
	}

	var req mappingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	st, err := s.store.GetStatement(c.Context(), uid, id)
	if err != nil {
		return err
	}
	if index >= len(st.Transactions) {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("transaction index %d out of range", index))
	}

	if req.PartyName == nil || strings.TrimSpace(*req.PartyName) == "" {
		if err := s.store.DeleteMapping(c.Context(), uid, id, index); err != nil && !isNotFound(err) {
			return err
		}
	} else {
		if !validMappingType(req.MappingType) {
			return fiber.NewError(fiber.StatusBadRequest, "mapping_type must be receivable or payable")
		}
		if err := matchesTransactionSide(&st.Transactions[index], req.MappingType); err != nil {
			return err
		}
		ov := &models.MappingOverride{
			UserID:           uid,
			StatementID:      id,
			TransactionIndex: index,
			PartyName:        strings.TrimSpace(*req.PartyName),
			MappingType:      req.MappingType,
		}
		if err := s.store.SetMapping(c.Context(), ov); err != nil {
			return err
		}
	}

	if err := s.annotate(c, st); err != nil {
		return err
	}
	return c.JSON(st.Transactions[index])
}

type bulkMappingRequest struct {
	Indices     []int                   `json:"indices"`
	PartyName   string                  `json:"party_name"`
	MappingType models.MappingDirection `json:"mapping_type"`
}

// handleMappingBulk stores one override per index atomically: any invalid
// index rejects the whole batch before a single write happens.
func (s *Server) handleMappingBulk(c *fiber.Ctx) error {
	uid, id := userID(c), c.Params("id")

	var req bulkMappingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if len(req.Indices) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "indices must not be empty")
	}
	if strings.TrimSpace(req.PartyName) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "party_name must not be empty")
	}
	if !validMappingType(req.MappingType) {
		return fiber.NewError(fiber.StatusBadRequest, "mapping_type must be receivable or payable")
	}

	st, err := s.store.GetStatement(c.Context(), uid, id)
	if err != nil {
		return err
	}

	overrides := make([]*models.MappingOverride, 0, len(req.Indices))
	for _, index := range req.Indices {
		if index < 0 || index >= len(st.Transactions) {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("transaction index %d out of range", index))
		}
		if err := matchesTransactionSide(&st.Transactions[index], req.MappingType); err != nil {
			return err
		}
		overrides = append(overrides, &models.MappingOverride{
			UserID:           uid,
			StatementID:      id,
			TransactionIndex: index,
			PartyName:        strings.TrimSpace(req.PartyName),
			MappingType:      req.MappingType,
		})
	}

	if err := s.store.SetMappings(c.Context(), overrides); err != nil {
		return err
	}

	if err := s.annotate(c, st); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"mapped": len(overrides), "transactions": st.Transactions})
}

// annotate recomputes the mapping view of a statement from stored overrides
// and current invoices.
func (s *Server) annotate(c *fiber.Ctx, st *models.BankStatement) error {
	overrides, err := s.store.ListMappings(c.Context(), st.UserID)
	if err != nil {
		return err
	}
	invoices, err := s.store.ListInvoices(c.Context(), st.UserID, "")
	if err != nil {
		return err
	}
	s.engine.Annotate(st, overrides, invoices)
	return nil
}

func filterTransactions(txs []models.Transaction, credit bool) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.IsCredit() == credit {
			out = append(out, tx)
		}
	}
	return out
}

func validMappingType(t models.MappingDirection) bool {
	return t == models.MappingReceivable || t == models.MappingPayable
}

// matchesTransactionSide rejects mappings that contradict the money flow:
// receivable settlements are incoming credits, payable ones outgoing debits.
func matchesTransactionSide(tx *models.Transaction, t models.MappingDirection) error {
	if (t == models.MappingReceivable) != tx.IsCredit() {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("mapping_type %s does not match transaction %d, a %s", t, tx.Index, txSide(tx)))
	}
	return nil
}

func txSide(tx *models.Transaction) string {
	if tx.IsCredit() {
		return "credit"
	}
	return "debit"
}
