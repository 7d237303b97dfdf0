package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/config"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/render"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createShop(t *testing.T, db *gorm.DB, slug string) *models.Shop {
	t.Helper()
	shop := &models.Shop{Slug: slug, Name: "Summit Tune Shop", Address: "1 Lift Line, Alta UT", Phone: "801-555-0100"}
	require.NoError(t, db.Create(shop).Error)
	return shop
}

func setMaxDaily(t *testing.T, db *gorm.DB, max int, scope string) {
	t.Helper()
	_, err := NewSettingsService(db, nil).Update(context.Background(), &dto.SettingsRequest{MaxDailyOrders: max, LimitScope: scope})
	require.NoError(t, err)
}

func intPtr(n int) *int { return &n }

func janeDoe() dto.CustomerInput {
	return dto.CustomerInput{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Phone: "555-123-4567"}
}

func atomicSkis(service string) dto.EquipmentInput {
	return dto.EquipmentInput{Type: models.EquipmentTypeSki, Brand: "Atomic", Model: "Bent 90", Length: intPtr(172), ServiceType: service}
}

func submission(customer dto.CustomerInput, items ...dto.EquipmentInput) *MergeInput {
	return &MergeInput{Customer: customer, Items: items, CustomerCreated: true}
}

func signatureDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 20))
	for x := 5; x < 55; x++ {
		img.Set(x, 10+(x%5)-2, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func testConfig() *config.Config {
	return &config.Config{
		StorageTimeout:     5 * time.Second,
		AgreementURLTTL:    15 * time.Minute,
		ConfirmationURLTTL: 72 * time.Hour,
	}
}

// countingStorage records every upload attempt.
type countingStorage struct {
	storage.Storage
	mu      sync.Mutex
	uploads int
	fail    error
}

func (c *countingStorage) Upload(ctx context.Context, data []byte, key string) (string, error) {
	c.mu.Lock()
	c.uploads++
	fail := c.fail
	c.mu.Unlock()
	if fail != nil {
		return "", fail
	}
	return c.Storage.Upload(ctx, data, key)
}

func (c *countingStorage) Uploads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploads
}

type signingFixture struct {
	db        *gorm.DB
	shop      *models.Shop
	orders    *WorkOrderService
	templates *TemplateService
	store     *countingStorage
	memory    *storage.MemoryStorage
	service   *AgreementService
}

func newSigningFixture(t *testing.T) *signingFixture {
	t.Helper()
	db := setupTestDB(t)
	shop := createShop(t, db, "summit")

	memory := storage.NewMemoryStorage(storage.NewURLSigner("test-secret", "https://shop.test"))
	store := &countingStorage{Storage: memory}

	templates := NewTemplateService(db)
	_, err := templates.Create(context.Background(), shop.ID, &dto.TemplateRequest{
		Title:        "Service Agreement",
		Body:         "<p>I, {{customer_name}}, release {{shop_name}} from liability for order {{work_order_id}}.</p>",
		Jurisdiction: "Utah",
		Active:       true,
	})
	require.NoError(t, err)

	return &signingFixture{
		db:        db,
		shop:      shop,
		orders:    NewWorkOrderService(db, NewDailyLimitGuard(time.UTC)),
		templates: templates,
		store:     store,
		memory:    memory,
		service:   NewAgreementService(db, store, render.NewPDFRenderer(), testConfig()),
	}
}

func (f *signingFixture) submit(t *testing.T) *models.WorkOrder {
	t.Helper()
	res, err := f.orders.ResolveOrMergeWorkOrder(context.Background(), f.shop.ID, submission(janeDoe(), atomicSkis("tune")))
	require.NoError(t, err)
	return res.WorkOrder
}

func (f *signingFixture) signRequest(t *testing.T, order *models.WorkOrder) *SignRequest {
	return &SignRequest{
		WorkOrderID: order.ID,
		SignerName:  "Jane Doe",
		Email:       "JANE@x.com",
		Phone:       "(555) 123 4567",
		Signature:   signatureDataURL(t),
		IP:          "203.0.113.7",
		UserAgent:   "Mozilla/5.0",
	}
}
