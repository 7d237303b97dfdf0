package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/render"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSignAgreement(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)
	ctx := context.Background()

	res, err := f.service.SignAgreement(ctx, f.shop.ID, f.signRequest(t, order))
	require.NoError(t, err)

	a := res.Agreement
	assert.Equal(t, order.ID, a.WorkOrderID)
	assert.Equal(t, order.CustomerID, a.CustomerID)
	assert.Equal(t, "Jane Doe", a.SignatureName)
	assert.Equal(t, "203.0.113.7", a.SignatureIP)
	assert.Equal(t, "Mozilla/5.0", a.SignatureUserAgent)
	assert.Len(t, a.DocumentHash, 64)
	assert.True(t, strings.HasPrefix(a.PdfStorageKey, "agreements/"+f.shop.ID.String()+"/"+order.ID.String()+"/"))
	assert.True(t, strings.HasPrefix(res.URL, "https://shop.test/api/files?token="))
	assert.Equal(t, 1, f.store.Uploads())

	var stored models.SignedAgreement
	require.NoError(t, f.db.First(&stored, "work_order_id = ?", order.ID).Error)
	assert.Equal(t, a.DocumentHash, stored.DocumentHash)
}

func TestSignAgreementHashMatchesUploadedBytes(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)
	ctx := context.Background()

	res, err := f.service.SignAgreement(ctx, f.shop.ID, f.signRequest(t, order))
	require.NoError(t, err)

	doc, err := f.memory.Read(ctx, res.Agreement.PdfStorageKey)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
	assert.Equal(t, res.Agreement.DocumentHash, HashDocument(doc))
	assert.Equal(t, HashDocument(doc), HashDocument(append([]byte(nil), doc...)))

	ok, err := f.service.VerifyStoredDocument(ctx, f.shop.ID, order.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.service.VerifyHash(ctx, f.shop.ID, order.ID, strings.ToUpper(res.Agreement.DocumentHash))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.service.VerifyHash(ctx, f.shop.ID, order.ID, strings.Repeat("0", 64))
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := f.service.FindByHash(ctx, f.shop.ID, res.Agreement.DocumentHash)
	require.NoError(t, err)
	assert.Equal(t, res.Agreement.ID, found.ID)
}

func TestVerifyStoredDocumentDetectsTampering(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)
	ctx := context.Background()

	res, err := f.service.SignAgreement(ctx, f.shop.ID, f.signRequest(t, order))
	require.NoError(t, err)

	_, err = f.memory.Upload(ctx, []byte("%PDF-1.3 forged"), res.Agreement.PdfStorageKey)
	require.NoError(t, err)

	ok, err := f.service.VerifyStoredDocument(ctx, f.shop.ID, order.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignAgreementTwiceConflictsWithoutUpload(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)
	ctx := context.Background()

	_, err := f.service.SignAgreement(ctx, f.shop.ID, f.signRequest(t, order))
	require.NoError(t, err)
	require.Equal(t, 1, f.store.Uploads())

	_, err = f.service.SignAgreement(ctx, f.shop.ID, f.signRequest(t, order))
	assert.ErrorIs(t, err, ErrAgreementExists)
	assert.Equal(t, 1, f.store.Uploads())

	var count int64
	f.db.Model(&models.SignedAgreement{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSignAgreementConcurrentAttemptsSignOnce(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)
	ctx := context.Background()

	const attempts = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		signed   int
		rejected int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.SignAgreement(ctx, f.shop.ID, f.signRequest(t, order))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				signed++
			case errors.Is(err, ErrAgreementExists):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, signed)
	assert.Equal(t, attempts-1, rejected)

	var count int64
	f.db.Model(&models.SignedAgreement{}).Where("work_order_id = ?", order.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

// A rival signature committed between the existence check and the insert
// must surface as ErrAgreementExists through the unique index.
func TestSignAgreementUniqueIndexRejectsRival(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)

	var inserted bool
	err := f.db.Callback().Create().Before("gorm:create").Register("test:rival_signature", func(db *gorm.DB) {
		if inserted || db.Statement.Schema == nil || db.Statement.Schema.Table != "signed_agreements" {
			return
		}
		pending, ok := db.Statement.Dest.(*models.SignedAgreement)
		if !ok {
			return
		}
		inserted = true
		rival := *pending
		rival.ID = uuid.New()
		rival.DocumentHash = strings.Repeat("a", 64)
		if err := db.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			db.AddError(err)
		}
	})
	require.NoError(t, err)

	_, err = f.service.SignAgreement(context.Background(), f.shop.ID, f.signRequest(t, order))
	require.True(t, inserted)
	assert.ErrorIs(t, err, ErrAgreementExists)
	assert.Equal(t, 1, f.store.Uploads())
}

func TestSignAgreementOwnershipMismatch(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)
	ctx := context.Background()

	wrongPhone := f.signRequest(t, order)
	wrongPhone.Phone = "555-999-0000"
	_, err := f.service.SignAgreement(ctx, f.shop.ID, wrongPhone)
	assert.ErrorIs(t, err, ErrOwnershipMismatch)

	wrongEmail := f.signRequest(t, order)
	wrongEmail.Email = "someone@else.com"
	_, err = f.service.SignAgreement(ctx, f.shop.ID, wrongEmail)
	assert.ErrorIs(t, err, ErrOwnershipMismatch)

	assert.Equal(t, 0, f.store.Uploads())
	var count int64
	f.db.Model(&models.SignedAgreement{}).Count(&count)
	assert.Zero(t, count)
}

func TestSignAgreementRequiresActiveTemplate(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)
	require.NoError(t, f.db.Model(&models.AgreementTemplate{}).Where("shop_id = ?", f.shop.ID).Update("active", false).Error)

	_, err := f.service.SignAgreement(context.Background(), f.shop.ID, f.signRequest(t, order))
	assert.ErrorIs(t, err, ErrNoActiveTemplate)
	assert.Equal(t, 0, f.store.Uploads())
}

func TestSignAgreementUnknownWorkOrder(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)
	other := createShop(t, f.db, "valley")

	_, err := f.service.SignAgreement(context.Background(), other.ID, f.signRequest(t, order))
	assert.ErrorIs(t, err, ErrWorkOrderNotFound)
}

func TestSignAgreementRejectsBadSignature(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)

	req := f.signRequest(t, order)
	req.Signature = "data:image/png;base64,aGVsbG8="
	_, err := f.service.SignAgreement(context.Background(), f.shop.ID, req)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestSignAgreementUploadFailureIsRetryable(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)
	ctx := context.Background()

	f.store.fail = errors.New("bucket unreachable")
	_, err := f.service.SignAgreement(ctx, f.shop.ID, f.signRequest(t, order))
	var infra *InfrastructureError
	require.ErrorAs(t, err, &infra)
	assert.True(t, infra.Retryable())

	var count int64
	f.db.Model(&models.SignedAgreement{}).Count(&count)
	assert.Zero(t, count)

	f.store.fail = nil
	_, err = f.service.SignAgreement(ctx, f.shop.ID, f.signRequest(t, order))
	require.NoError(t, err)
}

func TestSignAgreementUsesShopLogoFallback(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)
	ctx := context.Background()

	key := "logos/" + f.shop.ID.String() + "/logo.png"
	img, err := render.DecodeDataURL(signatureDataURL(t))
	require.NoError(t, err)
	_, err = f.memory.Upload(ctx, img.Data, key)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(f.shop).Update("logo_key", key).Error)

	res, err := f.service.SignAgreement(ctx, f.shop.ID, f.signRequest(t, order))
	require.NoError(t, err)
	assert.Len(t, res.Agreement.DocumentHash, 64)
}

func TestAgreementURL(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)
	ctx := context.Background()

	_, _, err := f.service.AgreementURL(ctx, f.shop.ID, order.ID)
	assert.ErrorIs(t, err, ErrAgreementNotFound)

	_, err = f.service.SignAgreement(ctx, f.shop.ID, f.signRequest(t, order))
	require.NoError(t, err)

	url, expires, err := f.service.AgreementURL(ctx, f.shop.ID, order.ID)
	require.NoError(t, err)
	assert.Contains(t, url, "/api/files?token=")
	assert.False(t, expires.IsZero())
}

func TestSignedAgreementIsImmutable(t *testing.T) {
	f := newSigningFixture(t)
	order := f.submit(t)

	res, err := f.service.SignAgreement(context.Background(), f.shop.ID, f.signRequest(t, order))
	require.NoError(t, err)

	a := res.Agreement
	a.SignatureName = "Someone Else"
	assert.ErrorIs(t, f.db.Save(a).Error, models.ErrAgreementImmutable)
	assert.ErrorIs(t, f.db.Delete(a).Error, models.ErrAgreementImmutable)
}

func TestTemplateActivationKeepsOneActive(t *testing.T) {
	f := newSigningFixture(t)
	ctx := context.Background()

	second, err := f.templates.Create(ctx, f.shop.ID, &dto.TemplateRequest{Title: "Winter 2026", Body: "<p>New terms</p>"})
	require.NoError(t, err)
	assert.False(t, second.Active)

	_, err = f.templates.Activate(ctx, f.shop.ID, second.ID)
	require.NoError(t, err)

	active, err := f.templates.Active(ctx, f.shop.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	var count int64
	f.db.Model(&models.AgreementTemplate{}).Where("shop_id = ? AND active = ?", f.shop.ID, true).Count(&count)
	assert.Equal(t, int64(1), count)

	all, err := f.templates.List(ctx, f.shop.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	other := createShop(t, f.db, "valley")
	_, err = f.templates.Activate(ctx, other.ID, second.ID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	_, err = f.templates.Active(ctx, other.ID)
	assert.ErrorIs(t, err, ErrNoActiveTemplate)
}
