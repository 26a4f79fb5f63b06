// Package models содержит доменные структуры приложения: товары, пользователей,
// тарифные планы, подписки, платежи, купоны и уведомления, а также DTO для
// приёма данных из JSON-запросов.
package models

// Справочники стран, валют и категорий. Значения зафиксированы продуктом,
// все входные данные проверяются на принадлежность этим спискам.

// Countries список поддерживаемых стран.
var Countries = []string{
	"Australia", "China", "Denmark", "France", "Finland", "Germany",
	"Italy", "Ireland", "Japan", "Spain", "Norway", "Netherlands",
	"Portugal", "Switzerland", "UK", "USA", "Other",
}

// Currencies список поддерживаемых валют.
var Currencies = []string{
	"Euro", "USD", "Danish Krone", "Norwegian Krone", "Yen",
	"Pound", "Franc", "AUD", "Other",
}

// Categories список категорий товаров.
var Categories = []string{
	"shoes", "bags", "clothes", "jewelry", "fragrance",
	"beauty", "accessories", "other",
}

// CurrencySymbols отображает названия валют из справочника в ISO-коды,
// которые понимает API курсов валют.
var CurrencySymbols = map[string]string{
	"Euro":            "EUR",
	"USD":             "USD",
	"Danish Krone":    "DKK",
	"Norwegian Krone": "NOK",
	"Yen":             "JPY",
	"Pound":           "GBP",
	"Franc":           "CHF",
	"AUD":             "AUD",
}

// ValidCountry проверяет, что страна входит в справочник.
func ValidCountry(c string) bool { return contains(Countries, c) }

// ValidCurrency проверяет, что валюта входит в справочник.
func ValidCurrency(c string) bool { return contains(Currencies, c) }

// ValidCategory проверяет, что категория входит в справочник.
func ValidCategory(c string) bool { return contains(Categories, c) }

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
