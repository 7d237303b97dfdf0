package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNoteImmutable = errors.New("work order notes are append-only")

// WorkOrderNote is append-only: the hooks below reject updates and deletes.
type WorkOrderNote struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkOrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"work_order_id"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	Author      string    `gorm:"size:255" json:"author"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (n *WorkOrderNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (n *WorkOrderNote) BeforeUpdate(tx *gorm.DB) error {
	return ErrNoteImmutable
}

func (n *WorkOrderNote) BeforeDelete(tx *gorm.DB) error {
	return ErrNoteImmutable
}
