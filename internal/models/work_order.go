package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusReceived   = "RECEIVED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusDone       = "DONE"
	OrderStatusPickedUp   = "PICKED_UP"
)

type WorkOrder struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ShopID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"shop_id"`
	CustomerID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_work_orders_customer_created,priority:1" json:"customer_id"`
	Status          string     `gorm:"size:20;not null;index" json:"status"`
	CustomerCreated bool       `gorm:"not null" json:"customer_created"`
	Notes           string     `gorm:"type:text" json:"notes"`
	PromisedBy      *time.Time `json:"promised_by,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	PickedUpAt      *time.Time `json:"picked_up_at,omitempty"`
	CreatedAt       time.Time  `gorm:"index:idx_work_orders_customer_created,priority:2" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Customer    *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items       []WorkOrderItem `gorm:"foreignKey:WorkOrderID" json:"items"`
	NoteEntries []WorkOrderNote `gorm:"foreignKey:WorkOrderID" json:"note_entries,omitempty"`
}

func (w *WorkOrder) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.Status == "" {
		w.Status = OrderStatusReceived
	}
	return nil
}

func (w *WorkOrder) IsOpen() bool {
	return w.Status != OrderStatusPickedUp
}

// DeriveStatus computes the roll-up status from the item statuses.
// An empty order is RECEIVED and an order whose items are all DONE is DONE.
// Any other mix keeps current: intermediate states are set by staff, and
// PICKED_UP is never inferred.
func DeriveStatus(current string, items []WorkOrderItem) string {
	if current == OrderStatusPickedUp {
		return current
	}
	if len(items) == 0 {
		return OrderStatusReceived
	}
	for _, it := range items {
		if it.Status != ItemStatusDone {
			return current
		}
	}
	return OrderStatusDone
}
