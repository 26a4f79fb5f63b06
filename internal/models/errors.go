package models

import "errors"

// Доменные ошибки. Обработчики отображают их в HTTP-статусы:
// not-found -> 404, forbidden -> 403, invalid -> 400, остальное -> 500.
var (
	ErrNotFound         = errors.New("not found")
	ErrPlanNotFound     = errors.New("plan not found")
	ErrPlanLimitReached = errors.New("plan item limit reached")
	ErrCurrencyLimit    = errors.New("plan does not allow multi-currency comparisons")
	ErrCouponInvalid    = errors.New("invalid coupon")
	ErrPaymentNotFound  = errors.New("payment record not found")
	ErrAlreadyConfirmed = errors.New("payment already confirmed")
	ErrPaymentFailed    = errors.New("payment failed")
	ErrInvalidInput     = errors.New("invalid input")
)
