package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/config"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/identity"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/render"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SignRequest is one signing attempt with the capture metadata the
// transport layer observed.
type SignRequest struct {
	WorkOrderID uuid.UUID
	SignerName  string
	Email       string
	Phone       string
	Signature   string
	IP          string
	UserAgent   string
}

type SignResult struct {
	Agreement *models.SignedAgreement
	URL       string
	ExpiresAt time.Time
}

type AgreementService struct {
	db       *gorm.DB
	store    storage.Storage
	renderer render.Renderer

	storageTimeout  time.Duration
	urlTTL          time.Duration
	confirmationTTL time.Duration
	now             func() time.Time
}

func NewAgreementService(db *gorm.DB, store storage.Storage, renderer render.Renderer, cfg *config.Config) *AgreementService {
	return &AgreementService{
		db:              db,
		store:           store,
		renderer:        renderer,
		storageTimeout:  cfg.StorageTimeout,
		urlTTL:          cfg.AgreementURLTTL,
		confirmationTTL: cfg.ConfirmationURLTTL,
		now:             time.Now,
	}
}

// SignAgreement verifies the signer owns the work order, renders the
// agreement once, hashes and uploads exactly those bytes, and records the
// signature. Ownership and duplicate failures happen before any render or
// upload. A failure after upload leaves the document orphaned and no row.
func (s *AgreementService) SignAgreement(ctx context.Context, shopID uuid.UUID, req *SignRequest) (*SignResult, error) {
	signature, err := render.DecodeDataURL(req.Signature)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	var (
		agreement   models.SignedAgreement
		uploadedKey string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockWorkOrder(tx, shopID, req.WorkOrderID)
		if err != nil {
			return err
		}

		var customer models.Customer
		if err := tx.First(&customer, "id = ?", order.CustomerID).Error; err != nil {
			return infraError("load customer", err)
		}
		phone := req.Phone
		if !identity.MatchesEmail(customer.Email, req.Email) || !identity.MatchesPhone(&customer.Phone, &phone) {
			return ErrOwnershipMismatch
		}

		var existing int64
		if err := tx.Model(&models.SignedAgreement{}).Where("work_order_id = ?", order.ID).Count(&existing).Error; err != nil {
			return infraError("check existing agreement", err)
		}
		if existing > 0 {
			return ErrAgreementExists
		}

		tpl, err := activeTemplate(tx, shopID)
		if errors.Is(err, ErrNoActiveTemplate) {
			slog.Error("cannot sign agreement without an active template",
				"shop_id", shopID,
				"work_order_id", order.ID,
				"action", "agreement_template_missing",
			)
			return err
		}
		if err != nil {
			return err
		}

		var shop models.Shop
		if err := tx.First(&shop, "id = ?", shopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShopNotFound
			}
			return infraError("load shop", err)
		}

		now := s.now().UTC()
		docID := uuid.New()
		doc, err := s.renderer.RenderAgreement(ctx, render.AgreementInput{
			DocumentID:      docID.String(),
			GeneratedAt:     now,
			ShopName:        shop.Name,
			ShopAddress:     shop.Address,
			ShopPhone:       shop.Phone,
			Logo:            s.loadLogo(ctx, tpl, &shop),
			Title:           tpl.Title,
			Body:            tpl.Body,
			Jurisdiction:    tpl.Jurisdiction,
			CustomerName:    customer.FullName(),
			CustomerEmail:   customer.Email,
			CustomerPhone:   customer.Phone,
			WorkOrderID:     order.ID.String(),
			SignerName:      strings.TrimSpace(req.SignerName),
			Signature:       signature,
			SignerIP:        req.IP,
			SignerUserAgent: req.UserAgent,
			SignedAt:        now,
		})
		if err != nil {
			return infraError("render agreement", err)
		}
		hash := HashDocument(doc)

		uploadCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
		key, err := s.store.Upload(uploadCtx, doc, storage.AgreementKey(shopID, order.ID))
		cancel()
		if err != nil {
			return infraError("upload agreement", err)
		}
		uploadedKey = key

		agreement = models.SignedAgreement{
			ID:                  docID,
			WorkOrderID:         order.ID,
			CustomerID:          customer.ID,
			AgreementTemplateID: tpl.ID,
			PdfStorageKey:       key,
			SignatureName:       strings.TrimSpace(req.SignerName),
			SignatureIP:         req.IP,
			SignatureUserAgent:  req.UserAgent,
			SignedAt:            now,
			DocumentHash:        hash,
		}
		if err := tx.Create(&agreement).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAgreementExists
			}
			return infraError("persist signed agreement", err)
		}
		return nil
	})
	if err != nil {
		if uploadedKey != "" {
			slog.Error("signed agreement not recorded, uploaded document is orphaned",
				"shop_id", shopID,
				"work_order_id", req.WorkOrderID,
				"storage_key", uploadedKey,
				"action", "agreement_orphaned",
				"error", err.Error(),
			)
		}
		return nil, err
	}

	slog.Info("agreement signed",
		"shop_id", shopID,
		"work_order_id", agreement.WorkOrderID,
		"agreement_id", agreement.ID,
		"document_hash", agreement.DocumentHash,
	)

	result := &SignResult{Agreement: &agreement}
	url, expires, err := s.signedURL(ctx, agreement.PdfStorageKey, s.confirmationTTL)
	if err != nil {
		slog.Warn("confirmation link unavailable", "work_order_id", agreement.WorkOrderID, "error", err)
		return result, nil
	}
	result.URL, result.ExpiresAt = url, expires
	return result, nil
}

// loadLogo prefers the template's logo over the shop's. A logo that cannot
// be read is left out of the document rather than failing the signature.
func (s *AgreementService) loadLogo(ctx context.Context, tpl *models.AgreementTemplate, shop *models.Shop) *render.Image {
	key := tpl.LogoKey
	if key == nil || *key == "" {
		key = shop.LogoKey
	}
	if key == nil || *key == "" {
		return nil
	}

	readCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	data, err := s.store.Read(readCtx, *key)
	if err != nil {
		slog.Warn("agreement logo unavailable", "shop_id", shop.ID, "logo_key", *key, "error", err)
		return nil
	}
	img, err := render.DecodeImage(data)
	if err != nil {
		slog.Warn("agreement logo is not a PNG or JPEG", "shop_id", shop.ID, "logo_key", *key)
		return nil
	}
	return img
}

func (s *AgreementService) signedURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	expires := s.now().UTC().Add(ttl)
	url, err := s.store.SignedURL(ctx, key, ttl)
	if err != nil {
		return "", time.Time{}, infraError("sign agreement url", err)
	}
	return url, expires, nil
}

// GetAgreement returns the agreement signed for a work order of the shop.
func (s *AgreementService) GetAgreement(ctx context.Context, shopID, workOrderID uuid.UUID) (*models.SignedAgreement, error) {
	var agreement models.SignedAgreement
	err := s.db.WithContext(ctx).
		Joins("JOIN work_orders ON work_orders.id = signed_agreements.work_order_id").
		Where("work_orders.shop_id = ? AND signed_agreements.work_order_id = ?", shopID, workOrderID).
		First(&agreement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAgreementNotFound
	}
	if err != nil {
		return nil, infraError("load signed agreement", err)
	}
	return &agreement, nil
}

// AgreementURL issues a fresh short-lived link. Links are never stored.
func (s *AgreementService) AgreementURL(ctx context.Context, shopID, workOrderID uuid.UUID) (string, time.Time, error) {
	agreement, err := s.GetAgreement(ctx, shopID, workOrderID)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.signedURL(ctx, agreement.PdfStorageKey, s.urlTTL)
}

func (s *AgreementService) FindByHash(ctx context.Context, shopID uuid.UUID, hash string) (*models.SignedAgreement, error) {
	var agreement models.SignedAgreement
	err := s.db.WithContext(ctx).
		Joins("JOIN work_orders ON work_orders.id = signed_agreements.work_order_id").
		Where("work_orders.shop_id = ? AND signed_agreements.document_hash = ?", shopID, strings.ToLower(strings.TrimSpace(hash))).
		First(&agreement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAgreementNotFound
	}
	if err != nil {
		return nil, infraError("find agreement by hash", err)
	}
	return &agreement, nil
}

// VerifyHash compares a supplied hash with the one recorded at signing.
func (s *AgreementService) VerifyHash(ctx context.Context, shopID, workOrderID uuid.UUID, hash string) (bool, error) {
	agreement, err := s.GetAgreement(ctx, shopID, workOrderID)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(hash), agreement.DocumentHash), nil
}

// VerifyStoredDocument re-reads the stored PDF and checks it still hashes to
// the recorded value.
func (s *AgreementService) VerifyStoredDocument(ctx context.Context, shopID, workOrderID uuid.UUID) (bool, error) {
	agreement, err := s.GetAgreement(ctx, shopID, workOrderID)
	if err != nil {
		return false, err
	}

	readCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	doc, err := s.store.Read(readCtx, agreement.PdfStorageKey)
	if err != nil {
		return false, infraError("read agreement", err)
	}

	match := HashDocument(doc) == agreement.DocumentHash
	if !match {
		slog.Error("stored agreement does not match recorded hash",
			"shop_id", shopID,
			"work_order_id", workOrderID,
			"storage_key", agreement.PdfStorageKey,
			"action", "agreement_integrity_failed",
		)
	}
	return match, nil
}

// HashDocument is the hex SHA-256 of the document bytes.
func HashDocument(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}
