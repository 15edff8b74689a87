package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"finrecon/pkg/models"
)

func (s *Server) handleSettingsGet(c *fiber.Ctx) error {
	uid := userID(c)

	settings, err := s.store.GetSettings(c.Context(), uid)
	if err != nil {
		if isNotFound(err) {
			return c.JSON(&models.UserSettings{UserID: uid})
		}
		return err
	}
	return c.JSON(settings)
}

type settingsRequest struct {
	CompanyName  string `json:"company_name"`
	CompanyGSTNo string `json:"company_gst_no"`
}

func (s *Server) handleSettingsPut(c *fiber.Ctx) error {
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	settings := &models.UserSettings{
		UserID:       userID(c),
		CompanyName:  strings.TrimSpace(req.CompanyName),
		CompanyGSTNo: strings.TrimSpace(strings.ToUpper(req.CompanyGSTNo)),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.store.SaveSettings(c.Context(), settings); err != nil {
		return err
	}
	return c.JSON(settings)
}
