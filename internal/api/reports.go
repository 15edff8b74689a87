package api

import (
	"github.com/gofiber/fiber/v2"

	"finrecon/internal/ledger"
	"finrecon/pkg/models"
)

func (s *Server) handleReportOutstanding(c *fiber.Ctx) error {
	return s.buildReport(c, models.MappingReceivable)
}

func (s *Server) handleReportPayables(c *fiber.Ctx) error {
	return s.buildReport(c, models.MappingPayable)
}

// buildReport annotates every statement and aggregates the requested
// direction. Nothing is cached: the report always reflects current
// invoices and mappings.
func (s *Server) buildReport(c *fiber.Ctx, direction models.MappingDirection) error {
	uid := userID(c)

	invoices, err := s.store.ListInvoices(c.Context(), uid, "")
	if err != nil {
		return err
	}
	statements, err := s.store.ListStatements(c.Context(), uid)
	if err != nil {
		return err
	}
	overrides, err := s.store.ListMappings(c.Context(), uid)
	if err != nil {
		return err
	}

	for _, st := range statements {
		s.engine.Annotate(st, overrides, invoices)
	}

	return c.JSON(ledger.BuildReport(direction, invoices, statements))
}
