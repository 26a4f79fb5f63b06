// Package pricing реализует расчет сравнения цен на товар между странами.
//
// Для каждой цены (домашней и зарубежных) выполняется конвертация в домашнюю
// валюту, начисление оценочного налога и вычет возврата VAT. Из зарубежных
// вариантов выбирается самый дешевый по итоговой цене, от него считаются
// экономия и процент разницы. Все денежные значения округляются до двух знаков.
//
// Ставки налога и возврата VAT задаются таблицей по странам, а не зашиваются
// в формулы; процент возврата VAT может переопределяться на уровне товара.
package pricing

import (
	"context"
	"math"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/money"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// SavingsAlertThreshold модуль процента разницы цен, после которого
// отправляется уведомление. Срабатывает в обе стороны: и когда за рубежом
// значительно дешевле, и когда значительно дороже.
const SavingsAlertThreshold = 5.0

// RateSource отдает курс конвертации валют. Второй результат — признак того,
// что внешний источник недоступен и курс деградировал до 1.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (rate float64, fallback bool)
}

// EventSink принимает события о значительной разнице цен. Отрицательный
// percent означает, что лучший зарубежный вариант дороже домашней цены.
// Реализация внедряется при сборке приложения, чтобы расчетная логика
// тестировалась без транспорта.
type EventSink interface {
	SavingsAlert(ctx context.Context, userUID string, productID int, productName, cheapestCountry string, percent float64)
}

// TaxRule оценочные ставки налога и возврата VAT для страны.
type TaxRule struct {
	TaxRate       float64 // Доля налога от сконвертированной цены
	VATRefundRate float64 // Доля возврата VAT от сконвертированной цены
}

// TaxTable таблица ставок по странам. Ключ "*" задает ставку по умолчанию.
type TaxTable map[string]TaxRule

// DefaultTaxTable возвращает таблицу ставок, используемую продуктом:
// США — налог 10% без возврата VAT, остальные страны — налог 8% и возврат 20%.
func DefaultTaxTable() TaxTable {
	return TaxTable{
		"USA": {TaxRate: 0.10, VATRefundRate: 0},
		"*":   {TaxRate: 0.08, VATRefundRate: 0.20},
	}
}

// Rule возвращает ставки для страны или ставку по умолчанию.
func (t TaxTable) Rule(country string) TaxRule {
	if rule, ok := t[country]; ok {
		return rule
	}
	return t["*"]
}

// Entry одна строка сравнения: исходная цена и производные значения
// в домашней валюте.
type Entry struct {
	Country        string  `json:"country"`
	Currency       string  `json:"currency"`
	Price          float64 `json:"price"`
	IsHome         bool    `json:"is_home"`
	ConvertedPrice float64 `json:"converted_price"`
	TaxAmount      float64 `json:"tax_amount"`
	TotalPrice     float64 `json:"total_price"`
	VATRefund      float64 `json:"vat_refund"`
	EstRealPrice   float64 `json:"est_real_price"`
	RateFallback   bool    `json:"rate_fallback,omitempty"`
}

// Result итог сравнения цен товара.
type Result struct {
	Entries      []Entry `json:"entries"`
	Cheapest     *Entry  `json:"cheapest,omitempty"`
	Savings      float64 `json:"savings"`
	PercentDiff  float64 `json:"percent_diff"`
	RateFallback bool    `json:"rate_fallback"`
}

// Engine выполняет расчет сравнения цен.
type Engine struct {
	rates RateSource
	taxes TaxTable
	sink  EventSink
}

// NewEngine создает Engine с источником курсов, таблицей ставок и приемником
// событий. sink может быть nil — тогда события не отправляются.
func NewEngine(rates RateSource, taxes TaxTable, sink EventSink) *Engine {
	return &Engine{
		rates: rates,
		taxes: taxes,
		sink:  sink,
	}
}

// Compare считает сравнение цен для товара. Домашняя запись помечается IsHome,
// зарубежные конвертируются в домашнюю валюту. При экономии больше порога
// отправляется savings-alert с названием самой дешевой страны.
func (e *Engine) Compare(ctx context.Context, p models.Product) Result {
	var result Result

	home := e.buildEntry(ctx, p, Entry{
		Country:  p.HomeCountry,
		Currency: p.HomeCurrency,
		Price:    p.HomePrice,
		IsHome:   true,
	})
	result.Entries = append(result.Entries, home)
	result.RateFallback = home.RateFallback

	for _, comp := range p.ForeignComparisons {
		if comp.Price <= 0 || comp.Country == "" || comp.Currency == "" {
			continue
		}
		entry := e.buildEntry(ctx, p, Entry{
			Country:  comp.Country,
			Currency: comp.Currency,
			Price:    comp.Price,
		})
		result.Entries = append(result.Entries, entry)
		if entry.RateFallback {
			result.RateFallback = true
		}
	}

	cheapestIdx := -1
	for i := range result.Entries {
		entry := &result.Entries[i]
		if entry.IsHome {
			continue
		}
		if cheapestIdx == -1 || entry.EstRealPrice < result.Entries[cheapestIdx].EstRealPrice {
			cheapestIdx = i
		}
	}

	if cheapestIdx == -1 {
		// Без зарубежных сравнений экономия — только домашний возврат VAT
		refundRate := e.refundRate(p, p.HomeCountry)
		result.Savings = money.Round2(p.HomePrice * refundRate)
		result.PercentDiff = 0
		return result
	}

	cheapest := result.Entries[cheapestIdx]
	result.Cheapest = &cheapest
	result.Savings = money.Round2(home.EstRealPrice - cheapest.EstRealPrice)
	if home.EstRealPrice > 0 {
		result.PercentDiff = money.Round2(result.Savings / home.EstRealPrice * 100)
	}

	if math.Abs(result.PercentDiff) > SavingsAlertThreshold && e.sink != nil {
		e.sink.SavingsAlert(ctx, p.UserUID, p.ID, p.Name, cheapest.Country, result.PercentDiff)
	}
	return result
}

// buildEntry конвертирует цену в домашнюю валюту и считает производные значения.
func (e *Engine) buildEntry(ctx context.Context, p models.Product, entry Entry) Entry {
	converted := entry.Price
	if entry.Currency != p.HomeCurrency {
		rate, fallback := e.rates.Rate(ctx, entry.Currency, p.HomeCurrency)
		converted = entry.Price * rate
		entry.RateFallback = fallback
	}

	rule := e.taxes.Rule(entry.Country)
	refundRate := e.refundRate(p, entry.Country)

	entry.ConvertedPrice = money.Round2(converted)
	entry.TaxAmount = money.Round2(converted * rule.TaxRate)
	entry.TotalPrice = money.Round2(converted + converted*rule.TaxRate)
	entry.VATRefund = money.Round2(converted * refundRate)
	entry.EstRealPrice = money.Round2(entry.TotalPrice - entry.VATRefund)
	return entry
}

// refundRate возвращает долю возврата VAT: переопределение на уровне товара
// имеет приоритет над таблицей ставок.
func (e *Engine) refundRate(p models.Product, country string) float64 {
	if p.VATRefundPercent > 0 {
		return p.VATRefundPercent / 100
	}
	return e.taxes.Rule(country).VATRefundRate
}
