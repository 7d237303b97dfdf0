package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/database"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/storage"
	"github.com/gofiber/fiber/v2"
)

const storageCheckKey = "health/check"

type HealthHandler struct {
	store storage.Storage
}

func NewHealthHandler(store storage.Storage) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"

	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
		status = "degraded"
	}

	storageStatus := "ok"
	if _, err := h.store.Exists(c.UserContext(), storageCheckKey); err != nil {
		storageStatus = "unhealthy: " + err.Error()
		status = "degraded"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Storage:   storageStatus,
	})
}
