package services

import (
	"errors"
	"fmt"
)

var (
	ErrShopNotFound       = errors.New("shop not found")
	ErrWorkOrderNotFound  = errors.New("work order not found")
	ErrItemNotFound       = errors.New("equipment item not found")
	ErrInvalidItemStatus  = errors.New("status must be one of PENDING, IN_PROGRESS, DONE")
	ErrInvalidOrderStatus = errors.New("status must be one of RECEIVED, IN_PROGRESS, DONE")
	ErrAlreadyPickedUp    = errors.New("work order has already been picked up")
	ErrEmptyNote          = errors.New("note body is required")
	ErrNoItems            = errors.New("at least one item is required")

	ErrOwnershipMismatch = errors.New("email and phone do not match this work order")
	ErrInvalidSignature  = errors.New("signature must be a PNG or JPEG image")
	ErrAgreementExists   = errors.New("an agreement has already been signed for this work order")
	ErrAgreementNotFound = errors.New("signed agreement not found")
	ErrNoActiveTemplate  = errors.New("shop has no active agreement template")
	ErrTemplateNotFound  = errors.New("agreement template not found")

	ErrInvalidSettings = errors.New("max daily orders must be positive and scope must be customer or shop")
)

// DailyLimitError rejects a self-service order once the day's cap is reached.
type DailyLimitError struct {
	Limit int
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily limit of %d customer-created work orders reached, please try again tomorrow", e.Limit)
}

// InfrastructureError wraps storage, render and database faults. The caller
// may retry; business rule failures never use this type.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

func (e *InfrastructureError) Retryable() bool {
	return true
}

func infraError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ie *InfrastructureError
	if errors.As(err, &ie) {
		return err
	}
	return &InfrastructureError{Op: op, Err: err}
}
