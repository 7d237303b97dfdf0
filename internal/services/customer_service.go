package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/identity"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerService struct {
	db *gorm.DB
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

// ResolveCustomer finds the shop's customer by email or phone, refreshing the
// name, or creates one.
func (s *CustomerService) ResolveCustomer(ctx context.Context, shopID uuid.UUID, in *dto.CustomerInput) (*models.Customer, error) {
	var customer *models.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		customer, err = resolveCustomer(tx, shopID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// resolveCustomer runs inside the caller's transaction and performs exactly
// one write. The matched row stays locked until the transaction ends, which
// serializes concurrent submissions for the same customer.
func resolveCustomer(tx *gorm.DB, shopID uuid.UUID, in *dto.CustomerInput) (*models.Customer, error) {
	email := identity.NormalizeEmail(in.Email)
	phone := identity.NormalizePhone(in.Phone)

	var matches []models.Customer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.ForShop(shopID)).
		Where("email = ? OR phone = ?", email, phone).
		Order("created_at ASC").
		Find(&matches).Error
	if err != nil {
		return nil, infraError("lookup customer", err)
	}

	if len(matches) == 0 {
		customer := models.Customer{
			ShopID:    shopID,
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Email:     email,
			Phone:     phone,
		}
		applyProfile(&customer, in)
		if err := tx.Create(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, err
			}
			return nil, infraError("create customer", err)
		}
		return &customer, nil
	}

	customer := pickCustomer(matches, email, phone)
	customer.FirstName = strings.TrimSpace(in.FirstName)
	customer.LastName = strings.TrimSpace(in.LastName)
	applyProfile(customer, in)
	if err := tx.Save(customer).Error; err != nil {
		return nil, infraError("update customer", err)
	}
	return customer, nil
}

// pickCustomer prefers the row matching both email and phone, then the oldest.
func pickCustomer(matches []models.Customer, email, phone string) *models.Customer {
	for i := range matches {
		if matches[i].Email == email && matches[i].Phone == phone {
			return &matches[i]
		}
	}
	return &matches[0]
}

func applyProfile(c *models.Customer, in *dto.CustomerInput) {
	if in.HeightCm != nil {
		c.HeightCm = in.HeightCm
	}
	if in.WeightKg != nil {
		c.WeightKg = in.WeightKg
	}
	if in.AbilityLevel != nil {
		c.AbilityLevel = in.AbilityLevel
	}
}
