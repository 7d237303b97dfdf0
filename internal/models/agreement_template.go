package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgreementTemplate is the liability/service agreement text a shop asks
// customers to sign. The partial unique index keeps one active row per shop.
type AgreementTemplate struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShopID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_agreement_templates_one_active,where:active = true" json:"shop_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Body         string    `gorm:"type:text;not null" json:"body"`
	LogoKey      *string   `gorm:"size:500" json:"logo_key,omitempty"`
	Jurisdiction string    `gorm:"size:100" json:"jurisdiction"`
	Active       bool      `gorm:"not null" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (t *AgreementTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
