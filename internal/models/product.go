package models

import "time"

// Product представляет товар пользователя с домашней ценой и набором
// зарубежных сравнений. Производные поля (экономия, сконвертированные цены)
// не хранятся, а вычисляются при чтении.
type Product struct {
	ID                 int                 // Идентификатор товара
	UserUID            string              // Владелец
	Name               string              // Название
	Brand              string              // Бренд
	Category           string              // Категория из справочника
	HomePrice          float64             // Цена в домашней валюте
	HomeCountry        string              // Домашняя страна
	HomeCurrency       string              // Домашняя валюта
	ForeignComparisons []ForeignComparison // Зарубежные цены на тот же товар
	Note               string              // Заметка пользователя
	IsSaved            bool                // В списке сохранённых
	IsPurchase         bool                // В списке покупок
	VATRefundPercent   float64             // Процент возврата VAT для товара
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ForeignComparison альтернативная цена товара в другой стране.
type ForeignComparison struct {
	Country  string  `json:"country"`
	Currency string  `json:"currency"`
	Price    float64 `json:"price"`
}

// DummyProduct используется для приёма данных о товаре из JSON-запроса,
// прежде чем конвертировать их в Product.
type DummyProduct struct {
	Name               string              `json:"name" validate:"required,min=1,max=200"`
	Brand              string              `json:"brand" validate:"required,min=1,max=100"`
	Category           string              `json:"category" validate:"required"`
	HomePrice          float64             `json:"home_price" validate:"required,gt=0"`
	HomeCountry        string              `json:"home_country" validate:"required"`
	HomeCurrency       string              `json:"home_currency" validate:"required"`
	ForeignComparisons []ForeignComparison `json:"foreign_comparisons,omitempty" validate:"omitempty,dive"`
	Note               string              `json:"note,omitempty"`
	IsSaved            bool                `json:"is_saved,omitempty"`
	IsPurchase         bool                `json:"is_purchase,omitempty"`
	VATRefundPercent   float64             `json:"vat_refund_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// ProductFilter параметры фильтрации списка товаров.
type ProductFilter struct {
	UserUID  string
	Search   string // Подстрока в названии или бренде
	Category string
	Brand    string
	Country  string // Домашняя или зарубежная страна
	Limit    int
	Offset   int
}
