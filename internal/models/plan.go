package models

import "time"

// SubscriptionPlan тарифный план: цены, лимиты и признак активности.
// Читается часто, меняется только администратором.
type SubscriptionPlan struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	PriceMonthly  float64   `json:"price_monthly"`
	PriceYearly   float64   `json:"price_yearly"`
	Benefits      []string  `json:"benefits"`
	HasAds        bool      `json:"has_ads"`
	MaxItems      int       `json:"max_items"`
	MaxCurrencies int       `json:"max_currencies"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// DummyPlan используется для приёма данных тарифа из JSON-запроса администратора.
type DummyPlan struct {
	Name          string   `json:"name" validate:"required,min=1,max=50"`
	PriceMonthly  float64  `json:"price_monthly" validate:"gte=0"`
	PriceYearly   float64  `json:"price_yearly" validate:"gte=0"`
	Benefits      []string `json:"benefits,omitempty"`
	HasAds        bool     `json:"has_ads,omitempty"`
	MaxItems      int      `json:"max_items" validate:"gte=0"`
	MaxCurrencies int      `json:"max_currencies" validate:"gte=0"`
	IsActive      *bool    `json:"is_active,omitempty"`
}
