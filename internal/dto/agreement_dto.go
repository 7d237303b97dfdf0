package dto

import (
	"time"

	"github.com/google/uuid"
)

type SignAgreementRequest struct {
	SignerName string `json:"signer_name" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,phone"`
	// Signature is a PNG or JPEG, as a data URL or bare base64.
	Signature string `json:"signature" validate:"required"`
}

type SignAgreementResponse struct {
	AgreementID  uuid.UUID `json:"agreement_id"`
	WorkOrderID  uuid.UUID `json:"work_order_id"`
	DocumentHash string    `json:"document_hash"`
	SignedAt     time.Time `json:"signed_at"`
	URL          string    `json:"url,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

type AgreementURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyHashRequest struct {
	Hash string `json:"hash" validate:"required,len=64,hexadecimal"`
}

type VerifyResponse struct {
	Match bool `json:"match"`
}

type TemplateRequest struct {
	Title        string  `json:"title" validate:"required,max=255"`
	Body         string  `json:"body" validate:"required"`
	LogoKey      *string `json:"logo_key" validate:"omitempty,max=500"`
	Jurisdiction string  `json:"jurisdiction" validate:"max=100"`
	Active       bool    `json:"active"`
}

// ActiveAgreementResponse is the public view of the template a customer
// will be asked to sign.
type ActiveAgreementResponse struct {
	ShopName     string `json:"shop_name"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	Jurisdiction string `json:"jurisdiction"`
}
