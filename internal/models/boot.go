package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Boot is a customer's ski boot, tracked for binding mounts.
type Boot struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Brand        string    `gorm:"size:100" json:"brand"`
	Model        string    `gorm:"size:100" json:"model"`
	BSL          *int      `json:"bsl,omitempty"`
	Height       *int      `json:"height,omitempty"`
	Weight       *int      `json:"weight,omitempty"`
	Age          *int      `json:"age,omitempty"`
	AbilityLevel *string   `gorm:"size:20" json:"ability_level,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (b *Boot) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Boot) Persisted() bool {
	return b.ID != uuid.Nil
}

// SameAs mirrors Equipment.SameAs with the boot sole length in place of length.
func (b *Boot) SameAs(other *Boot) bool {
	if b == nil || other == nil {
		return false
	}
	if b.Persisted() && other.Persisted() {
		return b.ID == other.ID
	}
	return b.Brand == other.Brand &&
		b.Model == other.Model &&
		intPtrEqual(b.BSL, other.BSL) &&
		b.CustomerID == other.CustomerID
}
