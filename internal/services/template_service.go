package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TemplateService struct {
	db *gorm.DB
}

func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{db: db}
}

func (s *TemplateService) Create(ctx context.Context, shopID uuid.UUID, req *dto.TemplateRequest) (*models.AgreementTemplate, error) {
	tpl := models.AgreementTemplate{
		ShopID:       shopID,
		Title:        strings.TrimSpace(req.Title),
		Body:         req.Body,
		LogoKey:      req.LogoKey,
		Jurisdiction: strings.TrimSpace(req.Jurisdiction),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.Active {
			if err := deactivateTemplates(tx, shopID); err != nil {
				return err
			}
			tpl.Active = true
		}
		if err := tx.Create(&tpl).Error; err != nil {
			return infraError("create agreement template", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Activate makes id the shop's only active template.
func (s *TemplateService) Activate(ctx context.Context, shopID, id uuid.UUID) (*models.AgreementTemplate, error) {
	var tpl models.AgreementTemplate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(tenant.ForShop(shopID)).First(&tpl, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTemplateNotFound
			}
			return infraError("load agreement template", err)
		}
		if tpl.Active {
			return nil
		}
		if err := deactivateTemplates(tx, shopID); err != nil {
			return err
		}
		if err := tx.Model(&tpl).Update("active", true).Error; err != nil {
			return infraError("activate agreement template", err)
		}
		tpl.Active = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("agreement template activated", "shop_id", shopID, "template_id", id)
	return &tpl, nil
}

func (s *TemplateService) List(ctx context.Context, shopID uuid.UUID) ([]models.AgreementTemplate, error) {
	var templates []models.AgreementTemplate
	err := s.db.WithContext(ctx).Scopes(tenant.ForShop(shopID)).
		Order("created_at DESC").
		Find(&templates).Error
	if err != nil {
		return nil, infraError("list agreement templates", err)
	}
	return templates, nil
}

func (s *TemplateService) Active(ctx context.Context, shopID uuid.UUID) (*models.AgreementTemplate, error) {
	return activeTemplate(s.db.WithContext(ctx), shopID)
}

func activeTemplate(tx *gorm.DB, shopID uuid.UUID) (*models.AgreementTemplate, error) {
	var tpl models.AgreementTemplate
	err := tx.Scopes(tenant.ForShop(shopID)).Where("active = ?", true).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveTemplate
	}
	if err != nil {
		return nil, infraError("load active agreement template", err)
	}
	return &tpl, nil
}

func deactivateTemplates(tx *gorm.DB, shopID uuid.UUID) error {
	err := tx.Model(&models.AgreementTemplate{}).
		Scopes(tenant.ForShop(shopID)).
		Where("active = ?", true).
		Update("active", false).Error
	if err != nil {
		return infraError("deactivate agreement templates", err)
	}
	return nil
}
