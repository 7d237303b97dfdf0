package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is identified by its normalized (email, phone) pair within a shop.
type Customer struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShopID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customers_shop_email_phone,priority:1" json:"shop_id"`
	FirstName    string    `gorm:"size:100;not null" json:"first_name"`
	LastName     string    `gorm:"size:100;not null" json:"last_name"`
	Email        string    `gorm:"size:255;not null;index;uniqueIndex:idx_customers_shop_email_phone,priority:2" json:"email"`
	Phone        string    `gorm:"size:50;not null;index;uniqueIndex:idx_customers_shop_email_phone,priority:3" json:"phone"`
	HeightCm     *int      `json:"height_cm,omitempty"`
	WeightKg     *int      `json:"weight_kg,omitempty"`
	AbilityLevel *string   `gorm:"size:20" json:"ability_level,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	WorkOrders []WorkOrder `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"work_orders,omitempty"`
	Equipment  []Equipment `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"equipment,omitempty"`
	Boots      []Boot      `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"boots,omitempty"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
