package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/services"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/validation"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
	exportDateFmt   = "2006-01-02"
	xlsxMIME        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WorkOrderHandler serves the staff work order board.
type WorkOrderHandler struct {
	orders   *services.WorkOrderService
	validate *validation.Validator
}

func NewWorkOrderHandler(orders *services.WorkOrderService, validate *validation.Validator) *WorkOrderHandler {
	return &WorkOrderHandler{orders: orders, validate: validate}
}

func (h *WorkOrderHandler) List(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}

	limit := c.QueryInt("limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	orders, total, err := h.orders.ListWorkOrders(c.UserContext(), shopID, splitStatuses(c.Query("status")), limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.ListResponse{Items: orders, Total: total, Limit: limit, Offset: offset})
}

func (h *WorkOrderHandler) ListForCustomer(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	customerID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	orders, err := h.orders.ListCustomerOrders(c.UserContext(), shopID, customerID, splitStatuses(c.Query("status")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

func (h *WorkOrderHandler) Get(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.orders.GetWorkOrder(c.UserContext(), shopID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// Create takes a counter intake. Staff orders merge the same way customer
// submissions do but never count toward the daily limit.
func (h *WorkOrderHandler) Create(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}

	var req dto.CreateWorkOrderRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	res, err := h.orders.ResolveOrMergeWorkOrder(c.UserContext(), shopID, &services.MergeInput{
		Customer:   req.Customer,
		Items:      req.Items,
		PromisedBy: req.PromisedBy,
		Notes:      req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}

	code := fiber.StatusOK
	if res.Created {
		code = fiber.StatusCreated
	}
	return c.Status(code).JSON(dto.SubmissionResponse{WorkOrder: res.WorkOrder, Created: res.Created})
}

func (h *WorkOrderHandler) SetStatus(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req dto.StatusRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	order, err := h.orders.SetWorkOrderStatus(c.UserContext(), shopID, id, strings.ToUpper(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

func (h *WorkOrderHandler) Pickup(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.orders.MarkPickedUp(c.UserContext(), shopID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

func (h *WorkOrderHandler) SetItemStatus(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}
	itemID, err := paramUUID(c, "item")
	if err != nil {
		return respondError(c, err)
	}

	var req dto.StatusRequest
	if err := bind(c, h.validate, &req); err != nil {
		return respondError(c, err)
	}

	order, err := h.orders.UpdateItemStatus(c.UserContext(), shopID, itemID, strings.ToUpper(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// Export streams an XLSX of orders created between ?from and ?to
// (inclusive dates, YYYY-MM-DD). Defaults to the last 30 days.
func (h *WorkOrderHandler) Export(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	from, err := parseDate(c.Query("from"), today.AddDate(0, 0, -29))
	if err != nil {
		return respondError(c, err)
	}
	to, err := parseDate(c.Query("to"), today)
	if err != nil {
		return respondError(c, err)
	}
	if to.Before(from) {
		return fail(c, fiber.StatusBadRequest, "to must not be before from")
	}

	data, err := h.orders.ExportWorkOrders(c.UserContext(), shopID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return respondError(c, err)
	}

	filename := fmt.Sprintf("work-orders-%s-%s.xlsx", from.Format(exportDateFmt), to.Format(exportDateFmt))
	c.Set(fiber.HeaderContentType, xlsxMIME)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

func splitStatuses(raw string) []string {
	var statuses []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			statuses = append(statuses, s)
		}
	}
	return statuses
}

func parseDate(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(exportDateFmt, raw)
	if err != nil {
		return time.Time{}, &requestError{message: "Dates must be formatted YYYY-MM-DD"}
	}
	return t, nil
}
