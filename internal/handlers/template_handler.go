package handlers

import (
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/services"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// TemplateHandler manages agreement templates. Owner only.
type TemplateHandler struct {
	templates *services.TemplateService
	validate  *validation.Validator
}

func NewTemplateHandler(templates *services.TemplateService, validate *validation.Validator) *TemplateHandler {
	return &TemplateHandler{templates: templates, validate: validate}
}

func (h *TemplateHandler) List(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}

	templates, err := h.templates.List(c.UserContext(), shopID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ListResponse{Items: templates, Total: int64(len(templates)), Limit: len(templates)})
}

func (h *TemplateHandler) Create(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}

	var req dto.TemplateRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	tpl, err := h.templates.Create(c.UserContext(), shopID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tpl)
}

func (h *TemplateHandler) Activate(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	tpl, err := h.templates.Activate(c.UserContext(), shopID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tpl)
}
