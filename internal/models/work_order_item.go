package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item lifecycle.
const (
	ItemStatusPending    = "PENDING"
	ItemStatusInProgress = "IN_PROGRESS"
	ItemStatusDone       = "DONE"
	ItemStatusPickedUp   = "PICKED_UP"
)

// WorkOrderItem is one piece of equipment on one work order: the service
// asked for on that visit and its progress. A piece of equipment appears at
// most once per order and keeps its rows on earlier orders.
type WorkOrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkOrderID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_work_order_items_order_equipment,priority:1" json:"work_order_id"`
	EquipmentID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_work_order_items_order_equipment,priority:2" json:"equipment_id"`
	ServiceType string    `gorm:"size:100" json:"service_type"`
	Status      string    `gorm:"size:20;not null" json:"status"`
	Position    int       `gorm:"not null" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Equipment *Equipment `gorm:"foreignKey:EquipmentID" json:"equipment,omitempty"`
}

func (i *WorkOrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = ItemStatusPending
	}
	return nil
}
