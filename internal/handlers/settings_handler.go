package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/services"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// SettingsHandler exposes the global limit settings to shop owners.
type SettingsHandler struct {
	settings *services.SettingsService
	validate *validation.Validator
}

func NewSettingsHandler(settings *services.SettingsService, validate *validation.Validator) *SettingsHandler {
	return &SettingsHandler{settings: settings, validate: validate}
}

func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.settings.Get(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}

func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var req dto.SettingsRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	settings, err := h.settings.Update(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}

	staffID := ""
	if staff, err := tenant.GetStaff(c); err == nil {
		staffID = staff.ID
	}
	slog.Info("settings updated",
		"staff_id", staffID,
		"max_daily_orders", settings.MaxDailyOrders,
		"limit_scope", settings.LimitScope,
		"action", "settings_updated")

	return c.JSON(settings)
}
