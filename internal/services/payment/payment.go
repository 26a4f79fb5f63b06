// Package payment реализует оплату тарифных планов: создание платежного
// интента у провайдера, применение купонов и подтверждение с активацией
// подписки.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/money"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
	"github.com/nurmohammad56/luxe-tracker/internal/paymentprovider"
)

// PaymentRepository описывает контракт хранилища для платежей и подписок.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment models.PaymentInfo) (int, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.PaymentInfo, error)
	CompletePayment(ctx context.Context, payment *models.PaymentInfo,
		planName, paymentMethod string, startDate, endDate time.Time) (*models.UserSubscription, error)
	MarkPaymentFailed(ctx context.Context, transactionID string) error
	GetPlanByID(ctx context.Context, id int) (*models.SubscriptionPlan, error)
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListPlans(ctx context.Context, onlyActive bool) ([]*models.SubscriptionPlan, error)
}

// Provider описывает контракт платежного провайдера.
type Provider interface {
	CreateIntent(ctx context.Context, req paymentprovider.CreateIntentRequest) (*paymentprovider.IntentResponse, error)
	ConfirmIntent(ctx context.Context, intentID string, req paymentprovider.ConfirmIntentRequest) (*paymentprovider.IntentResponse, error)
}

// Notifier отправляет уведомление пользователю.
type Notifier interface {
	Emit(ctx context.Context, n models.Notification) (int, error)
}

// Cache описывает контракт кэша списка тарифов.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

const plansCacheKey = "plans:active"

// IntentResult ответ на создание платежа: идентификатор транзакции
// и разбивка суммы.
type IntentResult struct {
	TransactionID string  `json:"transaction_id"`
	ClientSecret  string  `json:"client_secret"`
	Price         float64 `json:"price"`
	Discount      float64 `json:"discount"`
	FinalPrice    float64 `json:"final_price"`
}

// Service реализует операции оплаты подписок.
type Service struct {
	repo     PaymentRepository
	provider Provider
	notifier Notifier
	cache    Cache
	log      *slog.Logger
}

// New создает сервис оплаты.
func New(repo PaymentRepository, provider Provider, notifier Notifier,
	cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		notifier: notifier,
		cache:    cache,
		log:      log,
	}
}

// ListPlans возвращает активные тарифы для страницы подписки, используя кэш.
func (s *Service) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	var plans []*models.SubscriptionPlan
	found, err := s.cache.Get(plansCacheKey, &plans)
	if err != nil {
		s.log.Warn("failed to read plans from cache", sl.Err(err))
	}
	if found {
		return plans, nil
	}
	plans, err = s.repo.ListPlans(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(plansCacheKey, plans, 10*time.Minute); err != nil {
		s.log.Warn("failed to cache plans", sl.Err(err))
	}
	return plans, nil
}

// CreateIntent создает платеж: проверяет тариф и купон, считает итоговую
// сумму и регистрирует интент у провайдера. Купон на этом шаге только
// проверяется, счетчик использований списывается при подтверждении.
func (s *Service) CreateIntent(ctx context.Context, userUID string, req models.DummyCreatePayment) (*IntentResult, error) {
	plan, err := s.repo.GetPlanByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, models.ErrPlanNotFound
	}

	price := plan.PriceMonthly
	if req.IsYearly {
		price = plan.PriceYearly
	}

	var discount float64
	if req.CouponCode != "" {
		coupon, err := s.repo.GetCouponByCode(ctx, req.CouponCode)
		if err != nil {
			return nil, err
		}
		discount, err = CouponDiscount(coupon, plan.Name, price, time.Now().UTC())
		if err != nil {
			return nil, err
		}
	}
	finalPrice := money.Round2(price - discount)
	if finalPrice < 0 {
		finalPrice = 0
	}

	intent, err := s.provider.CreateIntent(ctx, paymentprovider.CreateIntentRequest{
		Amount:   int64(math.Round(finalPrice * 100)),
		Currency: "usd",
		Customer: paymentprovider.CustomerDetails{
			Email:   req.Email,
			Phone:   req.Phone,
			Country: req.Country,
		},
		Metadata: map[string]string{
			"user_uid": userUID,
			"plan":     plan.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	payment := models.PaymentInfo{
		UserUID:       userUID,
		PlanID:        plan.ID,
		Price:         price,
		Discount:      discount,
		FinalPrice:    finalPrice,
		TransactionID: intent.ID,
		PaymentStatus: models.PaymentPending,
		CouponUsed:    req.CouponCode,
		IsYearly:      req.IsYearly,
	}
	if _, err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	s.log.Info("created payment intent",
		slog.String("transaction_id", intent.ID), slog.String("plan", plan.Name))

	return &IntentResult{
		TransactionID: intent.ID,
		ClientSecret:  intent.ClientSecret,
		Price:         price,
		Discount:      discount,
		FinalPrice:    finalPrice,
	}, nil
}

// Confirm подтверждает платеж у провайдера и активирует подписку.
// Повторный вызов для уже подтвержденного платежа возвращает
// models.ErrAlreadyConfirmed без побочных эффектов.
func (s *Service) Confirm(ctx context.Context, userUID string, req models.DummyConfirmPayment) (*models.UserSubscription, error) {
	payment, err := s.repo.GetPaymentByTransactionID(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if payment.UserUID != userUID {
		return nil, models.ErrPaymentNotFound
	}
	if payment.PaymentStatus != models.PaymentPending {
		return nil, models.ErrAlreadyConfirmed
	}

	intent, err := s.provider.ConfirmIntent(ctx, req.PaymentIntentID,
		paymentprovider.ConfirmIntentRequest{PaymentMethod: req.PaymentMethodID})
	if err != nil {
		return nil, fmt.Errorf("confirm payment intent: %w", err)
	}
	if intent.Status != paymentprovider.StatusSucceeded {
		if err := s.repo.MarkPaymentFailed(ctx, payment.TransactionID); err != nil {
			s.log.Warn("failed to mark payment failed",
				slog.String("transaction_id", payment.TransactionID), sl.Err(err))
		}
		return nil, models.ErrPaymentFailed
	}

	plan, err := s.repo.GetPlanByID(ctx, payment.PlanID)
	if err != nil {
		return nil, err
	}

	startDate := time.Now().UTC()
	endDate := startDate.AddDate(0, 1, 0)
	if payment.IsYearly {
		endDate = startDate.AddDate(1, 0, 0)
	}

	sub, err := s.repo.CompletePayment(ctx, payment, plan.Name, "stripe", startDate, endDate)
	if err != nil {
		return nil, err
	}
	s.log.Info("payment confirmed",
		slog.String("transaction_id", payment.TransactionID),
		slog.Int("subscription_id", sub.ID))

	if s.notifier != nil {
		if _, err := s.notifier.Emit(ctx, models.Notification{
			UserUID: userUID,
			Title:   "Subscription activated",
			Message: fmt.Sprintf("Your %s plan is active until %s", plan.Name, endDate.Format("2006-01-02")),
			Type:    models.NotificationSubscriptionUpdate,
		}); err != nil {
			s.log.Warn("failed to notify about subscription", sl.Err(err))
		}
	}
	return sub, nil
}

// CouponDiscount проверяет применимость купона и возвращает сумму скидки.
func CouponDiscount(coupon *models.Coupon, planName string, price float64, now time.Time) (float64, error) {
	if coupon.Status != "active" {
		return 0, models.ErrCouponInvalid
	}
	if now.Before(coupon.StartDate) || now.After(coupon.ExpiryDate) {
		return 0, models.ErrCouponInvalid
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return 0, models.ErrCouponInvalid
	}
	if len(coupon.ApplicablePlans) > 0 {
		applicable := false
		for _, name := range coupon.ApplicablePlans {
			if name == planName {
				applicable = true
				break
			}
		}
		if !applicable {
			return 0, models.ErrCouponInvalid
		}
	}

	var discount float64
	switch coupon.DiscountType {
	case models.DiscountPercent:
		discount = price * coupon.DiscountValue / 100
	case models.DiscountFixed:
		discount = coupon.DiscountValue
	default:
		return 0, models.ErrCouponInvalid
	}
	if discount > price {
		discount = price
	}
	return money.Round2(discount), nil
}
