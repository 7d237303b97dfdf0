package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUnknownShop = errors.New("unknown shop")

// Registry resolves a shop slug or id to the shop id. Slugs never change
// once assigned, so resolved entries are kept for the process lifetime.
type Registry struct {
	db    *gorm.DB
	mu    sync.RWMutex
	slugs map[string]uuid.UUID
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db:    db,
		slugs: make(map[string]uuid.UUID),
	}
}

func (r *Registry) Resolve(ctx context.Context, ref string) (uuid.UUID, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return uuid.Nil, ErrUnknownShop
	}

	r.mu.RLock()
	id, ok := r.slugs[ref]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	var shop models.Shop
	query := r.db.WithContext(ctx).Select("id", "slug")
	if parsed, err := uuid.Parse(ref); err == nil {
		query = query.Where("id = ?", parsed)
	} else {
		query = query.Where("slug = ?", ref)
	}
	if err := query.First(&shop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrUnknownShop
		}
		return uuid.Nil, fmt.Errorf("failed to resolve shop: %w", err)
	}

	r.mu.Lock()
	r.slugs[ref] = shop.ID
	r.mu.Unlock()
	return shop.ID, nil
}
