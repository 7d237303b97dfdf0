package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/services"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// SubmissionHandler takes customer self-service requests from the shop kiosk.
type SubmissionHandler struct {
	orders   *services.WorkOrderService
	validate *validation.Validator
}

func NewSubmissionHandler(orders *services.WorkOrderService, validate *validation.Validator) *SubmissionHandler {
	return &SubmissionHandler{orders: orders, validate: validate}
}

func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}

	var req dto.SubmissionRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.orders.ResolveOrMergeWorkOrder(c.UserContext(), shopID, &services.MergeInput{
		Customer:        req.Customer,
		Items:           req.Items,
		CustomerCreated: true,
	})
	if err != nil {
		return respondError(c, err)
	}

	slog.Info("submission accepted",
		"shop_id", shopID.String(),
		"work_order_id", res.WorkOrder.ID.String(),
		"created", res.Created,
		"items", len(req.Items))

	code := fiber.StatusOK
	if res.Created {
		code = fiber.StatusCreated
	}
	return c.Status(code).JSON(publicSubmission(res))
}

func publicSubmission(res *services.MergeResult) dto.PublicSubmissionResponse {
	out := dto.PublicSubmissionResponse{
		WorkOrderID: res.WorkOrder.ID,
		Status:      res.WorkOrder.Status,
		Created:     res.Created,
		CreatedAt:   res.WorkOrder.CreatedAt,
		Items:       make([]dto.PublicSubmittedItem, 0, len(res.Submitted)),
	}
	for _, item := range res.Submitted {
		view := dto.PublicSubmittedItem{
			ID:          item.ID,
			ServiceType: item.ServiceType,
			Status:      item.Status,
		}
		if e := item.Equipment; e != nil {
			view.Type, view.Brand, view.Model, view.Length = e.Type, e.Brand, e.Model, e.Length
		}
		out.Items = append(out.Items, view)
	}
	return out
}
