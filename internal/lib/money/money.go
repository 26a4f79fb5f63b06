// Package money содержит вспомогательные функции для денежной арифметики.
package money

import "math"

// Round2 округляет денежную сумму до двух знаков после запятой.
// Все производные цены в API отдаются в таком виде.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
