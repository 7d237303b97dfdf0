package handlers

import (
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/services"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type AgreementHandler struct {
	agreements *services.AgreementService
	validate   *validation.Validator
}

func NewAgreementHandler(agreements *services.AgreementService, validate *validation.Validator) *AgreementHandler {
	return &AgreementHandler{agreements: agreements, validate: validate}
}

// Sign is the public signing endpoint. The caller proves ownership of the
// work order with the email and phone used on the submission.
func (h *AgreementHandler) Sign(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	workOrderID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req dto.SignAgreementRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.agreements.SignAgreement(c.UserContext(), shopID, &services.SignRequest{
		WorkOrderID: workOrderID,
		SignerName:  req.SignerName,
		Email:       req.Email,
		Phone:       req.Phone,
		Signature:   req.Signature,
		IP:          c.IP(),
		UserAgent:   c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SignAgreementResponse{
		AgreementID:  res.Agreement.ID,
		WorkOrderID:  res.Agreement.WorkOrderID,
		DocumentHash: res.Agreement.DocumentHash,
		SignedAt:     res.Agreement.SignedAt,
		URL:          res.URL,
		ExpiresAt:    res.ExpiresAt,
	})
}

func (h *AgreementHandler) Get(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	workOrderID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	agreement, err := h.agreements.GetAgreement(c.UserContext(), shopID, workOrderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(agreement)
}

// URL issues a fresh short-lived download link for staff.
func (h *AgreementHandler) URL(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	workOrderID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	url, expiresAt, err := h.agreements.AgreementURL(c.UserContext(), shopID, workOrderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AgreementURLResponse{URL: url, ExpiresAt: expiresAt})
}

func (h *AgreementHandler) VerifyHash(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	workOrderID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req dto.VerifyHashRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	match, err := h.agreements.VerifyHash(c.UserContext(), shopID, workOrderID, req.Hash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.VerifyResponse{Match: match})
}

// VerifyStored re-hashes the stored document against the recorded hash.
func (h *AgreementHandler) VerifyStored(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	workOrderID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	match, err := h.agreements.VerifyStoredDocument(c.UserContext(), shopID, workOrderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.VerifyResponse{Match: match})
}

// Lookup finds the agreement a printed or forwarded document hash belongs to.
func (h *AgreementHandler) Lookup(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}

	req := dto.VerifyHashRequest{Hash: c.Query("hash")}
	if err := h.validate.Struct(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, validation.Message(err))
	}

	agreement, err := h.agreements.FindByHash(c.UserContext(), shopID, req.Hash)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(agreement)
}
