package services

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyLimitGuard caps customer-created work orders per calendar day.
type DailyLimitGuard struct {
	loc *time.Location
	now func() time.Time
}

func NewDailyLimitGuard(loc *time.Location) *DailyLimitGuard {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyLimitGuard{loc: loc, now: time.Now}
}

// Check must run in the transaction that inserts the order. For the
// customer scope the caller already holds the customer row lock; for the
// shop scope the shop row is locked here.
func (g *DailyLimitGuard) Check(tx *gorm.DB, shopID, customerID uuid.UUID) error {
	st, err := loadSettings(tx)
	if err != nil {
		return err
	}

	query := tx.Model(&models.WorkOrder{}).Where("customer_created = ?", true)
	if st.LimitScope == models.LimitScopeShop {
		var shop models.Shop
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&shop, "id = ?", shopID).Error; err != nil {
			return infraError("lock shop", err)
		}
		query = query.Where("shop_id = ?", shopID)
	} else {
		query = query.Where("customer_id = ?", customerID)
	}

	start, end := g.dayBounds()
	var count int64
	if err := query.Where("created_at >= ? AND created_at < ?", start, end).Count(&count).Error; err != nil {
		return infraError("count daily orders", err)
	}
	if count >= int64(st.MaxDailyOrders) {
		return &DailyLimitError{Limit: st.MaxDailyOrders}
	}
	return nil
}

// dayBounds returns the current shop-local day as a UTC half-open range.
func (g *DailyLimitGuard) dayBounds() (time.Time, time.Time) {
	now := g.now().In(g.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}
