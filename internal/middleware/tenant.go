package middleware

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

// ShopFromPath resolves the :shop path segment (slug or id) for public routes.
func ShopFromPath(registry *tenant.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return resolveShop(c, registry, c.Params("shop"))
	}
}

// ShopFromStaff scopes staff routes to the shop in the token. An X-Shop
// header naming a different shop is rejected.
func ShopFromStaff(registry *tenant.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		staff, err := tenant.GetStaff(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if ref := c.Get("X-Shop"); ref != "" {
			shopID, err := registry.Resolve(c.UserContext(), ref)
			if err != nil || shopID != staff.ShopID {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
					Error: true, Message: "Access to this shop is not allowed",
				})
			}
		}

		tenant.SetShopID(c, staff.ShopID)
		return c.Next()
	}
}

func resolveShop(c *fiber.Ctx, registry *tenant.Registry, ref string) error {
	shopID, err := registry.Resolve(c.UserContext(), ref)
	if err != nil {
		if errors.Is(err, tenant.ErrUnknownShop) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Shop not found",
			})
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: "Service temporarily unavailable",
		})
	}
	tenant.SetShopID(c, shopID)
	return c.Next()
}
