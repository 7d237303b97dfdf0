package services

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/cache"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsService struct {
	db    *gorm.DB
	cache cache.SettingsCache
}

// NewSettingsService accepts a nil cache.
func NewSettingsService(db *gorm.DB, c cache.SettingsCache) *SettingsService {
	return &SettingsService{db: db, cache: c}
}

// Get serves reads for display. The daily limit guard never goes through
// here; it reads the row inside its own transaction.
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	if s.cache != nil {
		if st, ok := s.cache.Get(ctx); ok {
			st.ID = models.SettingsID
			return st, nil
		}
	}

	st, err := loadSettings(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, st); err != nil {
			slog.Warn("settings cache write failed", "error", err)
		}
	}
	return st, nil
}

func (s *SettingsService) Update(ctx context.Context, req *dto.SettingsRequest) (*models.Settings, error) {
	if req.MaxDailyOrders < 1 {
		return nil, ErrInvalidSettings
	}
	if req.LimitScope != "" && req.LimitScope != models.LimitScopeCustomer && req.LimitScope != models.LimitScopeShop {
		return nil, ErrInvalidSettings
	}

	var st *models.Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		st, err = loadSettings(tx.Clauses(clause.Locking{Strength: "UPDATE"}))
		if err != nil {
			return err
		}
		st.MaxDailyOrders = req.MaxDailyOrders
		if req.LimitScope != "" {
			st.LimitScope = req.LimitScope
		}
		if err := tx.Save(st).Error; err != nil {
			return infraError("update settings", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			slog.Error("settings cache invalidation failed", "error", err, "action", "settings_cache_stale")
		}
	}
	slog.Info("settings updated", "max_daily_orders", st.MaxDailyOrders, "limit_scope", st.LimitScope)
	return st, nil
}

// loadSettings returns the singleton row, creating it with defaults on
// first use.
func loadSettings(tx *gorm.DB) (*models.Settings, error) {
	var st models.Settings
	err := tx.Attrs(models.DefaultSettings()).
		FirstOrCreate(&st, models.Settings{ID: models.SettingsID}).Error
	if err != nil {
		return nil, infraError("load settings", err)
	}
	if st.LimitScope == "" {
		st.LimitScope = models.LimitScopeCustomer
	}
	return &st, nil
}
