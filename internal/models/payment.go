package models

import "time"

// Статусы платежа. Переходы только pending -> complete и pending -> failed,
// терминальные состояния неизменяемы.
const (
	PaymentPending  = "pending"
	PaymentComplete = "complete"
	PaymentFailed   = "failed"
)

// PaymentInfo одна запись на каждую попытку оплаты подписки.
type PaymentInfo struct {
	ID            int     // Идентификатор записи
	UserUID       string  // Плательщик
	PlanID        int     // Оплачиваемый тариф
	Price         float64 // Цена тарифа до скидки
	Discount      float64 // Сумма скидки по купону
	FinalPrice    float64 // Итоговая сумма к оплате
	TransactionID string  // Идентификатор платежного интента у провайдера
	PaymentStatus string  // pending, complete, failed
	PaymentMethod string  // Метод оплаты, заполняется при подтверждении
	CouponUsed    string  // Код примененного купона
	IsYearly      bool    // Годовая или месячная подписка
	CreatedAt     time.Time
}

// DummyCreatePayment используется для приёма запроса на создание платежа.
type DummyCreatePayment struct {
	PlanID     int    `json:"plan_id" validate:"required,gt=0"`
	IsYearly   bool   `json:"is_yearly,omitempty"`
	CouponCode string `json:"coupon_code,omitempty"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,min=5,max=20"`
	Country    string `json:"country" validate:"required"`
}

// DummyConfirmPayment используется для приёма запроса на подтверждение платежа.
type DummyConfirmPayment struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
	PaymentMethodID string `json:"payment_method_id" validate:"required"`
}
