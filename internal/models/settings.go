package models

import "time"

const (
	SettingsID            uint = 1
	DefaultMaxDailyOrders      = 25

	LimitScopeCustomer = "customer"
	LimitScopeShop     = "shop"
)

// Settings is the single global configuration row.
type Settings struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	MaxDailyOrders int       `gorm:"not null" json:"max_daily_orders"`
	LimitScope     string    `gorm:"size:20;not null" json:"limit_scope"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Settings) TableName() string {
	return "settings"
}

func DefaultSettings() Settings {
	return Settings{
		ID:             SettingsID,
		MaxDailyOrders: DefaultMaxDailyOrders,
		LimitScope:     LimitScopeCustomer,
	}
}
