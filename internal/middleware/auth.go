package middleware

import (
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/config"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// StaffProtected validates the staff bearer token and stores it under
// the "user" local for tenant.GetStaff.
func StaffProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ContextKey: "user",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired staff token",
			})
		},
	})
}
