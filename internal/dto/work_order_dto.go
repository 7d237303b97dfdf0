package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/google/uuid"
)

type CustomerInput struct {
	FirstName    string  `json:"first_name" validate:"required,max=100"`
	LastName     string  `json:"last_name" validate:"required,max=100"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	Phone        string  `json:"phone" validate:"required,phone"`
	HeightCm     *int    `json:"height_cm" validate:"omitempty,min=50,max=250"`
	WeightKg     *int    `json:"weight_kg" validate:"omitempty,min=10,max=250"`
	AbilityLevel *string `json:"ability_level" validate:"omitempty,max=20"`
}

type BootInput struct {
	Brand        string  `json:"brand" validate:"required,max=100"`
	Model        string  `json:"model" validate:"required,max=100"`
	BSL          *int    `json:"bsl" validate:"omitempty,min=150,max=400"`
	Height       *int    `json:"height" validate:"omitempty,min=50,max=250"`
	Weight       *int    `json:"weight" validate:"omitempty,min=10,max=250"`
	Age          *int    `json:"age" validate:"omitempty,min=1,max=120"`
	AbilityLevel *string `json:"ability_level" validate:"omitempty,max=20"`
}

type EquipmentInput struct {
	Type         string     `json:"type" validate:"required,oneof=SKI SNOWBOARD"`
	Brand        string     `json:"brand" validate:"required,max=100"`
	Model        string     `json:"model" validate:"required,max=100"`
	Length       *int       `json:"length" validate:"omitempty,min=50,max=250"`
	ServiceType  string     `json:"service_type" validate:"required,max=100"`
	Condition    string     `json:"condition" validate:"omitempty,oneof=NEW USED"`
	AbilityLevel *string    `json:"ability_level" validate:"omitempty,max=20"`
	BindingBrand *string    `json:"binding_brand" validate:"omitempty,max=100"`
	BindingModel *string    `json:"binding_model" validate:"omitempty,max=100"`
	RiderHeight  *int       `json:"rider_height" validate:"omitempty,min=50,max=250"`
	RiderWeight  *int       `json:"rider_weight" validate:"omitempty,min=10,max=250"`
	RiderAge     *int       `json:"rider_age" validate:"omitempty,min=1,max=120"`
	Boot         *BootInput `json:"boot" validate:"omitempty"`
}

// SubmissionRequest is a public self-service request.
type SubmissionRequest struct {
	Customer CustomerInput    `json:"customer" validate:"required"`
	Items    []EquipmentInput `json:"items" validate:"required,min=1,max=20,dive"`
}

// CreateWorkOrderRequest is the staff counterpart of SubmissionRequest.
type CreateWorkOrderRequest struct {
	Customer   CustomerInput    `json:"customer" validate:"required"`
	Items      []EquipmentInput `json:"items" validate:"required,min=1,max=50,dive"`
	PromisedBy *time.Time       `json:"promised_by"`
	Notes      string           `json:"notes" validate:"max=5000"`
}

type SubmissionResponse struct {
	WorkOrder *models.WorkOrder `json:"work_order"`
	Created   bool              `json:"created"`
}

// PublicSubmissionResponse is what the kiosk gets back. It carries no
// customer contact details, notes or items from earlier submissions.
type PublicSubmissionResponse struct {
	WorkOrderID uuid.UUID             `json:"work_order_id"`
	Status      string                `json:"status"`
	Created     bool                  `json:"created"`
	CreatedAt   time.Time             `json:"created_at"`
	Items       []PublicSubmittedItem `json:"items"`
}

type PublicSubmittedItem struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	Length      *int      `json:"length,omitempty"`
	ServiceType string    `json:"service_type"`
	Status      string    `json:"status"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AddNoteRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}
