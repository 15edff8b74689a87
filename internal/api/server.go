// Package api is the HTTP boundary: a fiber application exposing invoice,
// statement, mapping, report and settings operations under /api. The caller
// is identified by the X-User-ID header on every route except the health
// check.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"finrecon/internal/invoice"
	"finrecon/internal/logger"
	"finrecon/internal/match"
	"finrecon/internal/statement"
	"finrecon/internal/store"
)

const userIDHeader = "X-User-ID"

// Server wires the domain services into HTTP routes.
type Server struct {
	app      *fiber.App
	invoices *invoice.Service
	parser   *statement.Parser
	engine   *match.Engine
	store    store.Store
	log      zerolog.Logger
}

// NewServer builds the fiber application and registers every route.
func NewServer(invoices *invoice.Service, parser *statement.Parser, engine *match.Engine, st store.Store) *Server {
	s := &Server{
		invoices: invoices,
		parser:   parser,
		engine:   engine,
		store:    st,
		log:      logger.WithComponent("api"),
	}

	s.app = fiber.New(fiber.Config{
		BodyLimit:    32 << 20,
		ErrorHandler: s.errorHandler,
	})

	s.registerRoutes()
	return s
}

// App exposes the fiber application, mainly for app.Test in handler tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen starts serving on the given address and blocks.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("HTTP server listening")
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	api.Get("/health", s.handleHealth)

	authed := api.Group("", s.requireUser)

	authed.Post("/invoices/upload", s.handleInvoiceUpload)
	authed.Post("/invoices/manual", s.handleInvoiceManual)
	authed.Post("/invoices/export", s.handleInvoiceExport)
	authed.Get("/invoices", s.handleInvoiceList)
	authed.Get("/invoices/:id", s.handleInvoiceGet)
	authed.Put("/invoices/:id", s.handleInvoiceUpdate)
	authed.Delete("/invoices/:id", s.handleInvoiceDelete)

	authed.Post("/statements/upload", s.handleStatementUpload)
	authed.Get("/statements", s.handleStatementList)
	authed.Delete("/statements/:id", s.handleStatementDelete)
	authed.Get("/statements/:id/transactions", s.handleStatementTransactions)
	authed.Put("/statements/:id/transactions/:index/mapping", s.handleMappingSet)
	authed.Post("/statements/:id/mappings/bulk", s.handleMappingBulk)

	authed.Get("/reports/outstanding", s.handleReportOutstanding)
	authed.Get("/reports/payables", s.handleReportPayables)

	authed.Get("/settings", s.handleSettingsGet)
	authed.Put("/settings", s.handleSettingsPut)
}

// requireUser extracts the caller identity; requests without it are rejected.
func (s *Server) requireUser(c *fiber.Ctx) error {
	userID := c.Get(userIDHeader)
	if userID == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing "+userIDHeader+" header")
	}
	c.Locals("userID", userID)
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// errorHandler translates domain errors into status codes and a uniform
// JSON error body.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	case errors.Is(err, store.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, invoice.ErrExportedImmutable):
		code = fiber.StatusConflict
	case errors.Is(err, invoice.ErrInvalidInvoiceType),
		errors.Is(err, invoice.ErrEmptyFile),
		errors.Is(err, invoice.ErrNothingToExport),
		errors.Is(err, statement.ErrUnsupportedFormat),
		errors.Is(err, statement.ErrNoHeaderRow),
		errors.Is(err, statement.ErrParseFailed):
		code = fiber.StatusBadRequest
	}

	if code >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}

	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
