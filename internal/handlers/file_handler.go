package handlers

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/services"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// FileHandler serves stored objects behind signed download tokens.
type FileHandler struct {
	store   storage.Storage
	signer  *storage.URLSigner
	timeout time.Duration
}

func NewFileHandler(store storage.Storage, signer *storage.URLSigner, timeout time.Duration) *FileHandler {
	return &FileHandler{store: store, signer: signer, timeout: timeout}
}

func (h *FileHandler) Download(c *fiber.Ctx) error {
	key, err := h.signer.Verify(c.Query("token"))
	if err != nil {
		return fail(c, fiber.StatusForbidden, "Link is invalid or has expired")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	data, err := h.store.Read(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "File not found")
	}
	if err != nil {
		return respondError(c, &services.InfrastructureError{Op: "read file", Err: err})
	}

	c.Set(fiber.HeaderContentType, contentTypeFor(key))
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+path.Base(key)+`"`)
	c.Set(fiber.HeaderCacheControl, "private, no-store")
	return c.Send(data)
}

func contentTypeFor(key string) string {
	switch path.Ext(key) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return fiber.MIMEOctetStream
}
