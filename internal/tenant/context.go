package tenant

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const shopIDKey = "shop_id"

// Staff roles carried in the token's role claim.
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// Staff is the authenticated shop employee behind a request.
type Staff struct {
	ID     string
	Name   string
	Role   string
	ShopID uuid.UUID
}

func SetShopID(c *fiber.Ctx, shopID uuid.UUID) {
	c.Locals(shopIDKey, shopID)
}

// GetShopID extracts the resolved shop from Fiber context locals.
func GetShopID(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := c.Locals(shopIDKey).(uuid.UUID); ok && id != uuid.Nil {
		return id, nil
	}
	return uuid.Nil, errors.New("shop not resolved")
}

// GetStaff extracts the staff identity from JWT claims in context.
func GetStaff(c *fiber.Ctx) (*Staff, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("missing sub claim")
	}

	shop, _ := claims["shop_id"].(string)
	shopID, err := uuid.Parse(shop)
	if err != nil {
		return nil, errors.New("missing shop_id claim")
	}

	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleStaff
	}
	return &Staff{ID: sub, Name: name, Role: role, ShopID: shopID}, nil
}
