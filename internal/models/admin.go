package models

import "time"

// AdminDashboard метрики для панели администратора.
type AdminDashboard struct {
	TotalSubscriptions int                    `json:"total_subscriptions"`
	TotalCoupons       int                    `json:"total_coupons"`
	TotalSales         float64                `json:"total_sales"`
	OverviewData       []OverviewPoint        `json:"overview_data"`
	TotalPayments      int                    `json:"total_payments"`
	PendingPayments    int                    `json:"pending_payments"`
	FailedPayments     int                    `json:"failed_payments"`
	PaymentOverview    []PaymentOverviewPoint `json:"payment_overview"`
}

// OverviewPoint количество активных подписок за период (месяц или год).
type OverviewPoint struct {
	Period int `json:"period"`
	Count  int `json:"count"`
}

// PaymentOverviewPoint количество платежей и успешных оплат за месяц.
type PaymentOverviewPoint struct {
	Month   int `json:"month"`
	Count   int `json:"count"`
	Success int `json:"success"`
}

// AdminUser строка списка пользователей для администратора.
type AdminUser struct {
	UID                string    `json:"uid"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	CurrentPlan        string    `json:"current_plan"`
	SubscriptionStatus string    `json:"subscription_status,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}
