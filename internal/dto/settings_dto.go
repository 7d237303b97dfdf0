package dto

type SettingsRequest struct {
	MaxDailyOrders int    `json:"max_daily_orders" validate:"required,min=1,max=10000"`
	LimitScope     string `json:"limit_scope" validate:"omitempty,oneof=customer shop"`
}
