package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID                 string    // Уникальный идентификатор пользователя
	Name                string    // Отображаемое имя
	Email               string    // Электронная почта
	Username            string    // Имя пользователя (уникальное)
	PasswordHash        string    // Хэш пароля пользователя
	Role                string    // Роль пользователя, admin или user
	LocalTax            string    // Локальная налоговая ставка из профиля
	EnableNotifications bool      // Разрешены ли уведомления
	CurrentPlan         string    // Название текущего тарифного плана
	SubscriptionID      *int      // Активная подписка пользователя (nil, если нет)
	TotalSavings        float64   // Суммарная экономия по всем товарам
	AvgSavings          float64   // Средняя экономия на товар
	CreatedAt           time.Time // Дата регистрации
}

// Dashboard агрегирует данные личного кабинета пользователя.
type Dashboard struct {
	TotalItems          int               `json:"total_items"`
	TotalValues         float64           `json:"total_values"`
	TotalSavings        float64           `json:"total_savings"`
	AvgSavings          float64           `json:"avg_savings"`
	CurrentPlan         string            `json:"current_plan"`
	Subscription        *UserSubscription `json:"subscription,omitempty"`
	UnreadNotifications int               `json:"unread_notifications"`
	ShowAds             bool              `json:"show_ads"`
	PlanLimits          PlanLimits        `json:"plan_limits"`
}

// PlanLimits описывает лимиты тарифа и остаток по ним для личного кабинета.
type PlanLimits struct {
	MaxItems       int `json:"max_items"`
	RemainingItems int `json:"remaining_items"`
	MaxCurrencies  int `json:"max_currencies"`
}

// DummyUpdateProfile используется для приёма данных обновления профиля из JSON-запроса.
type DummyUpdateProfile struct {
	Name                string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	LocalTax            string `json:"local_tax,omitempty" validate:"omitempty,max=20"`
	EnableNotifications *bool  `json:"enable_notifications,omitempty"`
}

// DummyChangePassword используется для приёма данных смены пароля из JSON-запроса.
type DummyChangePassword struct {
	CurrentPassword string `json:"current_password" validate:"required,min=6"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,min=6"`
}
