package handlers

import (
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/services"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type NoteHandler struct {
	notes    *services.NoteService
	validate *validation.Validator
}

func NewNoteHandler(notes *services.NoteService, validate *validation.Validator) *NoteHandler {
	return &NoteHandler{notes: notes, validate: validate}
}

func (h *NoteHandler) List(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	notes, err := h.notes.GetNotes(c.UserContext(), shopID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ListResponse{Items: notes, Total: int64(len(notes)), Limit: len(notes)})
}

func (h *NoteHandler) Add(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	staff, err := tenant.GetStaff(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.AddNoteRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	author := staff.Name
	if author == "" {
		author = staff.ID
	}

	note, err := h.notes.AddNote(c.UserContext(), shopID, id, req.Body, author)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}
