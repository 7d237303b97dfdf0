package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAgreementImmutable = errors.New("signed agreements cannot be modified")

// SignedAgreement records a customer's acceptance of a template for one work
// order. Rows are write-once; the unique index on work_order_id backs the
// duplicate-signature guard.
type SignedAgreement struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkOrderID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"work_order_id"`
	CustomerID          uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	AgreementTemplateID uuid.UUID `gorm:"type:uuid;not null;index" json:"agreement_template_id"`
	PdfStorageKey       string    `gorm:"size:500;not null" json:"pdf_storage_key"`
	SignatureName       string    `gorm:"size:255;not null" json:"signature_name"`
	SignatureIP         string    `gorm:"size:64" json:"signature_ip"`
	SignatureUserAgent  string    `gorm:"size:500" json:"signature_user_agent"`
	SignedAt            time.Time `gorm:"not null" json:"signed_at"`
	DocumentHash        string    `gorm:"size:64;not null;index" json:"document_hash"`
	CreatedAt           time.Time `json:"created_at"`
}

func (a *SignedAgreement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *SignedAgreement) BeforeUpdate(tx *gorm.DB) error {
	return ErrAgreementImmutable
}

func (a *SignedAgreement) BeforeDelete(tx *gorm.DB) error {
	return ErrAgreementImmutable
}
