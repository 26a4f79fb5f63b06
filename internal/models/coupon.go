package models

import "time"

// Типы скидок купона.
const (
	DiscountFixed   = "fixed"
	DiscountPercent = "percent"
)

// Coupon определение скидки с ограничением количества использований.
// Инвариант: UsedCount <= UsageLimit, если UsageLimit > 0.
// Счетчик увеличивается атомарно и только при подтвержденном платеже.
type Coupon struct {
	ID              int       `json:"id"`
	Code            string    `json:"code"`
	DiscountType    string    `json:"discount_type"` // fixed или percent
	DiscountValue   float64   `json:"discount_value"`
	StartDate       time.Time `json:"start_date"`
	ExpiryDate      time.Time `json:"expiry_date"`
	UsageLimit      int       `json:"usage_limit"` // 0 — без ограничения
	UsedCount       int       `json:"used_count"`
	ApplicablePlans []string  `json:"applicable_plans"`
	Status          string    `json:"status"` // active или inactive
	CreatedAt       time.Time `json:"created_at"`
}

// DummyCoupon используется для приёма данных купона из JSON-запроса администратора.
type DummyCoupon struct {
	Code            string   `json:"code" validate:"required,min=3,max=30,alphanum"`
	DiscountType    string   `json:"discount_type" validate:"required,oneof=fixed percent"`
	DiscountValue   float64  `json:"discount_value" validate:"required,gt=0"`
	StartDate       string   `json:"start_date" validate:"required"`
	ExpiryDate      string   `json:"expiry_date" validate:"required"`
	UsageLimit      int      `json:"usage_limit,omitempty" validate:"gte=0"`
	ApplicablePlans []string `json:"applicable_plans,omitempty"`
}
