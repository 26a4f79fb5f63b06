package models

import "time"

// Статусы подписки пользователя.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionExpired  = "expired"
)

// UserSubscription связывает пользователя с тарифом на период действия.
// Создается только при успешном подтверждении платежа.
type UserSubscription struct {
	ID            int       `json:"id"`
	UserUID       string    `json:"user_uid"`
	PlanID        int       `json:"plan_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Status        string    `json:"status"` // active, inactive, expired
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id"`
	CouponUsed    string    `json:"coupon_used,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
