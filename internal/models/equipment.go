package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EquipmentTypeSki       = "SKI"
	EquipmentTypeSnowboard = "SNOWBOARD"
)

const (
	ConditionNew  = "NEW"
	ConditionUsed = "USED"
)

// Equipment is one ski or snowboard a customer owns. It keeps its identity
// across visits; each visit is a WorkOrderItem. ServiceType holds the most
// recently requested service.
type Equipment struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"customer_id"`
	BootID       *uuid.UUID `gorm:"type:uuid;index" json:"boot_id,omitempty"`
	Type         string     `gorm:"size:20;not null" json:"type"`
	Brand        string     `gorm:"size:100" json:"brand"`
	Model        string     `gorm:"size:100" json:"model"`
	Length       *int       `json:"length,omitempty"`
	ServiceType  string     `gorm:"size:100" json:"service_type"`
	Condition    string     `gorm:"size:10" json:"condition,omitempty"`
	AbilityLevel *string    `gorm:"size:20" json:"ability_level,omitempty"`
	BindingBrand *string    `gorm:"size:100" json:"binding_brand,omitempty"`
	BindingModel *string    `gorm:"size:100" json:"binding_model,omitempty"`
	RiderHeight  *int       `json:"rider_height,omitempty"`
	RiderWeight  *int       `json:"rider_weight,omitempty"`
	RiderAge     *int       `json:"rider_age,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Boot *Boot `gorm:"foreignKey:BootID" json:"boot,omitempty"`
}

func (Equipment) TableName() string {
	return "equipment"
}

func (e *Equipment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Persisted reports whether the surrogate id has been assigned.
func (e *Equipment) Persisted() bool {
	return e.ID != uuid.Nil
}

// SameAs reports whether e and other describe the same physical item.
// Two persisted records compare by id; otherwise the business key
// (brand, model, length, customer) decides. Only the dedup step uses this.
func (e *Equipment) SameAs(other *Equipment) bool {
	if e == nil || other == nil {
		return false
	}
	if e.Persisted() && other.Persisted() {
		return e.ID == other.ID
	}
	return e.Brand == other.Brand &&
		e.Model == other.Model &&
		intPtrEqual(e.Length, other.Length) &&
		e.CustomerID == other.CustomerID
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
