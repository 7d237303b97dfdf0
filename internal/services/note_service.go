package services

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NoteService manages the append-only journal attached to each work order.
type NoteService struct {
	db *gorm.DB
}

func NewNoteService(db *gorm.DB) *NoteService {
	return &NoteService{db: db}
}

// GetNotes returns the order's notes oldest first.
func (s *NoteService) GetNotes(ctx context.Context, shopID, workOrderID uuid.UUID) ([]models.WorkOrderNote, error) {
	if err := s.ensureOrder(ctx, shopID, workOrderID); err != nil {
		return nil, err
	}

	var notes []models.WorkOrderNote
	err := s.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC").
		Find(&notes).Error
	if err != nil {
		return nil, infraError("list notes", err)
	}
	return notes, nil
}

func (s *NoteService) AddNote(ctx context.Context, shopID, workOrderID uuid.UUID, body, author string) (*models.WorkOrderNote, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyNote
	}
	if err := s.ensureOrder(ctx, shopID, workOrderID); err != nil {
		return nil, err
	}

	note := models.WorkOrderNote{
		WorkOrderID: workOrderID,
		Body:        body,
		Author:      strings.TrimSpace(author),
	}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, infraError("create note", err)
	}
	return &note, nil
}

func (s *NoteService) ensureOrder(ctx context.Context, shopID, workOrderID uuid.UUID) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.WorkOrder{}).
		Scopes(tenant.ForShop(shopID)).
		Where("id = ?", workOrderID).
		Count(&count).Error
	if err != nil {
		return infraError("load work order", err)
	}
	if count == 0 {
		return ErrWorkOrderNotFound
	}
	return nil
}
