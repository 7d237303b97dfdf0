package middleware

import (
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

// OwnerRequired restricts a route to staff tokens carrying the owner role.
func OwnerRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		staff, err := tenant.GetStaff(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		if staff.Role != tenant.RoleOwner {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Owner access required",
			})
		}
		return c.Next()
	}
}
