package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.SystemLog{}))
	return db
}

func TestPGHandlerPersistsErrors(t *testing.T) {
	db := setupTestDB(t)
	h := NewPGHandler(db)
	shopID, orderID := uuid.New(), uuid.New()

	log := slog.New(h).With("request_id", "req-1")
	log.Info("ignored")
	log.Error("cannot sign agreement without an active template",
		"shop_id", shopID,
		"work_order_id", orderID,
		"action", "agreement_template_missing",
		"error", errors.New("no template"),
		"attempt", 2,
	)
	h.Stop()

	require.Eventually(t, func() bool {
		var n int64
		db.Model(&models.SystemLog{}).Count(&n)
		return n == 1
	}, 2*time.Second, 20*time.Millisecond)

	var entry models.SystemLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, shopID.String(), entry.ShopID)
	assert.Equal(t, orderID.String(), entry.WorkOrderID)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "agreement_template_missing", entry.Action)
	assert.Equal(t, "no template", entry.Error)
	assert.JSONEq(t, `{"attempt":2}`, string(entry.Extra))
}

func TestMultiHandlerFansOut(t *testing.T) {
	db := setupTestDB(t)
	pg := NewPGHandler(db)
	defer pg.Stop()

	m := NewMultiHandler(slog.NewJSONHandler(discard{}, nil), pg)
	assert.True(t, m.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, pg.Enabled(context.Background(), slog.LevelWarn))
}

func TestMultiHandlerContinuesPastFailingSink(t *testing.T) {
	var out bytes.Buffer
	m := NewMultiHandler(failingSink{}, slog.NewJSONHandler(&out, nil))

	err := m.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "upload failed", 0))
	assert.ErrorIs(t, err, errSinkDown)
	assert.Contains(t, out.String(), "upload failed")
}

func TestPurgeOlderThan(t *testing.T) {
	db := setupTestDB(t)
	old := models.SystemLog{Timestamp: time.Now().Add(-40 * 24 * time.Hour).UTC(), Level: "ERROR", Message: "old", Extra: []byte("{}")}
	fresh := models.SystemLog{Timestamp: time.Now().UTC(), Level: "ERROR", Message: "fresh", Extra: []byte("{}")}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	n, err := purgeOlderThan(db, time.Now().Add(-retention))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

var errSinkDown = errors.New("sink down")

type failingSink struct{}

func (failingSink) Enabled(context.Context, slog.Level) bool { return true }
func (failingSink) Handle(context.Context, slog.Record) error { return errSinkDown }
func (f failingSink) WithAttrs([]slog.Attr) slog.Handler { return f }
func (f failingSink) WithGroup(string) slog.Handler { return f }

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
