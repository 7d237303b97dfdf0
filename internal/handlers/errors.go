package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/services"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/validation"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type requestError struct {
	message string
}

func (e *requestError) Error() string {
	return e.message
}

// bind parses the JSON body into out and validates it.
func bind(c *fiber.Ctx, v *validation.Validator, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return &requestError{message: "Invalid request body"}
	}
	if err := v.Struct(out); err != nil {
		return &requestError{message: validation.Message(err)}
	}
	return nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, &requestError{message: "Invalid " + name}
	}
	return id, nil
}

// respondError maps service errors to status codes. Server faults are
// reported to Sentry and never expose details.
func respondError(c *fiber.Ctx, err error) error {
	var (
		reqErr   *requestError
		limitErr *services.DailyLimitError
		infraErr *services.InfrastructureError
	)

	switch {
	case errors.As(err, &reqErr):
		return fail(c, fiber.StatusBadRequest, reqErr.message)

	case errors.As(err, &limitErr):
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.LimitErrorResponse{
			Error: true, Message: limitErr.Error(), Limit: limitErr.Limit,
		})

	case errors.Is(err, services.ErrOwnershipMismatch):
		return fail(c, fiber.StatusForbidden, err.Error())

	case errors.Is(err, services.ErrAgreementExists),
		errors.Is(err, services.ErrAlreadyPickedUp):
		return fail(c, fiber.StatusConflict, err.Error())

	case errors.Is(err, services.ErrNoActiveTemplate):
		return fail(c, fiber.StatusNotFound, "This shop is not accepting agreements yet, please ask staff for help")

	case errors.Is(err, services.ErrWorkOrderNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrAgreementNotFound),
		errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrShopNotFound):
		return fail(c, fiber.StatusNotFound, err.Error())

	case errors.Is(err, services.ErrInvalidItemStatus),
		errors.Is(err, services.ErrInvalidOrderStatus):
		return fail(c, fiber.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, services.ErrInvalidSignature),
		errors.Is(err, services.ErrEmptyNote),
		errors.Is(err, services.ErrNoItems),
		errors.Is(err, services.ErrInvalidSettings):
		return fail(c, fiber.StatusBadRequest, err.Error())

	case errors.As(err, &infraErr):
		capture(c, err)
		slog.Error("infrastructure failure",
			"method", c.Method(), "path", c.Path(),
			"request_id", requestID(c), "op", infraErr.Op, "error", err.Error())
		c.Set(fiber.HeaderRetryAfter, "5")
		return fail(c, fiber.StatusServiceUnavailable, "Service temporarily unavailable, please retry")
	}

	capture(c, err)
	slog.Error("unhandled server error",
		"method", c.Method(), "path", c.Path(),
		"request_id", requestID(c), "error", err.Error())
	return fail(c, fiber.StatusInternalServerError, "Internal server error")
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func capture(c *fiber.Ctx, err error) {
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
