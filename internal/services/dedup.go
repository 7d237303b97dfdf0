package services

import (
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// inventory is the customer's known equipment and boots during one
// submission. Entities created earlier in the same submission are added so
// repeated descriptions collapse into one row.
type inventory struct {
	customerID uuid.UUID
	equipment  []*models.Equipment
	boots      []*models.Boot
}

func loadInventory(tx *gorm.DB, customerID uuid.UUID) (*inventory, error) {
	var equipment []*models.Equipment
	if err := tx.Where("customer_id = ?", customerID).Order("created_at ASC").Find(&equipment).Error; err != nil {
		return nil, infraError("load equipment", err)
	}
	var boots []*models.Boot
	if err := tx.Where("customer_id = ?", customerID).Order("created_at ASC").Find(&boots).Error; err != nil {
		return nil, infraError("load boots", err)
	}
	return &inventory{customerID: customerID, equipment: equipment, boots: boots}, nil
}

// matchEquipment returns the owned item with the same business key, if any.
func (inv *inventory) matchEquipment(candidate *models.Equipment) *models.Equipment {
	for _, owned := range inv.equipment {
		if owned.SameAs(candidate) {
			return owned
		}
	}
	return nil
}

func (inv *inventory) matchBoot(candidate *models.Boot) *models.Boot {
	for _, owned := range inv.boots {
		if owned.SameAs(candidate) {
			return owned
		}
	}
	return nil
}

// resolveBoot reuses a matching boot or creates one for the customer.
func (inv *inventory) resolveBoot(tx *gorm.DB, in *dto.BootInput) (*models.Boot, error) {
	candidate := &models.Boot{
		CustomerID: inv.customerID,
		Brand:      in.Brand,
		Model:      in.Model,
		BSL:        in.BSL,
	}
	if boot := inv.matchBoot(candidate); boot != nil {
		boot.Active = true
		mergeBootProfile(boot, in)
		if err := tx.Save(boot).Error; err != nil {
			return nil, infraError("update boot", err)
		}
		return boot, nil
	}

	candidate.Active = true
	mergeBootProfile(candidate, in)
	if err := tx.Create(candidate).Error; err != nil {
		return nil, infraError("create boot", err)
	}
	inv.boots = append(inv.boots, candidate)
	return candidate, nil
}

func mergeBootProfile(b *models.Boot, in *dto.BootInput) {
	if in.Height != nil {
		b.Height = in.Height
	}
	if in.Weight != nil {
		b.Weight = in.Weight
	}
	if in.Age != nil {
		b.Age = in.Age
	}
	if in.AbilityLevel != nil {
		b.AbilityLevel = in.AbilityLevel
	}
}

// newEquipment builds an unsaved item from the request; it carries no id so
// SameAs compares it on the business key.
func newEquipment(customerID uuid.UUID, in *dto.EquipmentInput) *models.Equipment {
	e := &models.Equipment{
		CustomerID: customerID,
		Type:       in.Type,
		Brand:      in.Brand,
		Model:      in.Model,
		Length:     in.Length,
	}
	applyEquipmentDetails(e, in)
	return e
}

// applyEquipmentDetails copies the per-visit fields. Identity fields are
// left alone.
func applyEquipmentDetails(e *models.Equipment, in *dto.EquipmentInput) {
	e.Type = in.Type
	e.ServiceType = in.ServiceType
	if in.Condition != "" {
		e.Condition = in.Condition
	}
	if in.AbilityLevel != nil {
		e.AbilityLevel = in.AbilityLevel
	}
	if in.BindingBrand != nil {
		e.BindingBrand = in.BindingBrand
	}
	if in.BindingModel != nil {
		e.BindingModel = in.BindingModel
	}
	if in.RiderHeight != nil {
		e.RiderHeight = in.RiderHeight
	}
	if in.RiderWeight != nil {
		e.RiderWeight = in.RiderWeight
	}
	if in.RiderAge != nil {
		e.RiderAge = in.RiderAge
	}
}
