package models

import "time"

// Типы уведомлений.
const (
	NotificationPriceIncrease      = "price_increase"
	NotificationSubscriptionUpdate = "subscription_update"
	NotificationSavingsAlert       = "savings_alert"
	NotificationGeneral            = "general"
)

// Notification адресованное пользователю событие с признаком прочтения.
type Notification struct {
	ID             int       `json:"id"`
	UserUID        string    `json:"user_uid"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Type           string    `json:"type"`
	RelatedProduct *int      `json:"related_product,omitempty"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// DummyMarkRead используется для приёма списка идентификаторов уведомлений,
// которые нужно отметить прочитанными.
type DummyMarkRead struct {
	IDs []int `json:"ids" validate:"required,min=1,dive,gt=0"`
}
