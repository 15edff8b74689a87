package api

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"finrecon/pkg/models"
)

func (s *Server) handleInvoiceUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file upload, use form field 'file'")
	}
	invoiceType := models.InvoiceType(c.FormValue("invoice_type"))

	f, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot read uploaded file")
	}

	inv, err := s.invoices.Upload(c.Context(), userID(c), data, fileHeader.Filename, invoiceType)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

type manualInvoiceRequest struct {
	InvoiceType   models.InvoiceType   `json:"invoice_type"`
	ExtractedData models.ExtractedData `json:"extracted_data"`
}

func (s *Server) handleInvoiceManual(c *fiber.Ctx) error {
	var req manualInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	inv, err := s.invoices.CreateManual(c.Context(), userID(c), req.InvoiceType, req.ExtractedData)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

func (s *Server) handleInvoiceList(c *fiber.Ctx) error {
	invoiceType := models.InvoiceType(c.Query("type"))

	invoices, err := s.invoices.List(c.Context(), userID(c), invoiceType)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"invoices": invoices, "count": len(invoices)})
}

func (s *Server) handleInvoiceGet(c *fiber.Ctx) error {
	inv, err := s.invoices.Get(c.Context(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

type invoiceUpdateRequest struct {
	ExtractedData models.ExtractedData `json:"extracted_data"`
}

func (s *Server) handleInvoiceUpdate(c *fiber.Ctx) error {
	var req invoiceUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	inv, err := s.invoices.Update(c.Context(), userID(c), c.Params("id"), req.ExtractedData)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (s *Server) handleInvoiceDelete(c *fiber.Ctx) error {
	if err := s.invoices.Delete(c.Context(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type invoiceExportRequest struct {
	InvoiceType models.InvoiceType `json:"invoice_type"`
}

func (s *Server) handleInvoiceExport(c *fiber.Ctx) error {
	var req invoiceExportRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	xmlData, err := s.invoices.ExportTally(c.Context(), userID(c), req.InvoiceType)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/xml")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tally_export.xml"`)
	return c.Send(xmlData)
}
