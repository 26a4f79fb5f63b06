// Package admin реализует операции панели администратора: метрики,
// список пользователей и управление тарифами и купонами.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// AdminRepository описывает контракт хранилища для админских операций.
type AdminRepository interface {
	CountActiveSubscriptions(ctx context.Context) (int, error)
	CountCoupons(ctx context.Context, status string) (int, error)
	SumSubscriptionSales(ctx context.Context) (float64, error)
	SubscriptionOverview(ctx context.Context, monthly bool) ([]models.OverviewPoint, error)
	CountPaymentsByStatus(ctx context.Context, status string) (int, error)
	PaymentOverviewByMonth(ctx context.Context, year int) ([]models.PaymentOverviewPoint, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.AdminUser, error)
	CountUsers(ctx context.Context) (int, error)

	CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (int, error)
	GetPlanByID(ctx context.Context, id int) (*models.SubscriptionPlan, error)
	ListPlans(ctx context.Context, onlyActive bool) ([]*models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, id int, plan models.SubscriptionPlan) error
	SetPlanActive(ctx context.Context, id int, isActive bool) error
	DeletePlan(ctx context.Context, id int) error

	CreateCoupon(ctx context.Context, coupon models.Coupon) (int, error)
	ListCoupons(ctx context.Context) ([]*models.Coupon, error)
	UpdateCoupon(ctx context.Context, id int, coupon models.Coupon) error
	SetCouponStatus(ctx context.Context, id int, status string) error
	DeleteCoupon(ctx context.Context, id int) error
}

// PlanCache сбрасывает закэшированные тарифы после изменений.
type PlanCache interface {
	InvalidatePlan(planName string)
}

// Cache описывает контракт кэша списков.
type Cache interface {
	Invalidate(key string) error
}

const plansCacheKey = "plans:active"

// UsersPage страница пользователей с общим количеством.
type UsersPage struct {
	Users []*models.AdminUser `json:"users"`
	Total int                 `json:"total"`
}

// Service реализует админские операции.
type Service struct {
	repo      AdminRepository
	planCache PlanCache
	cache     Cache
	log       *slog.Logger
}

// New создает админский сервис.
func New(repo AdminRepository, planCache PlanCache, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		planCache: planCache,
		cache:     cache,
		log:       log,
	}
}

// Dashboard собирает метрики панели администратора. filter выбирает
// группировку обзора подписок: "monthly" или "yearly".
func (s *Service) Dashboard(ctx context.Context, filter string) (*models.AdminDashboard, error) {
	dashboard := &models.AdminDashboard{}
	var err error

	if dashboard.TotalSubscriptions, err = s.repo.CountActiveSubscriptions(ctx); err != nil {
		return nil, err
	}
	if dashboard.TotalCoupons, err = s.repo.CountCoupons(ctx, "active"); err != nil {
		return nil, err
	}
	if dashboard.TotalSales, err = s.repo.SumSubscriptionSales(ctx); err != nil {
		return nil, err
	}
	if dashboard.OverviewData, err = s.repo.SubscriptionOverview(ctx, filter != "yearly"); err != nil {
		return nil, err
	}
	if dashboard.TotalPayments, err = s.repo.CountPaymentsByStatus(ctx, ""); err != nil {
		return nil, err
	}
	if dashboard.PendingPayments, err = s.repo.CountPaymentsByStatus(ctx, models.PaymentPending); err != nil {
		return nil, err
	}
	if dashboard.FailedPayments, err = s.repo.CountPaymentsByStatus(ctx, models.PaymentFailed); err != nil {
		return nil, err
	}
	if dashboard.PaymentOverview, err = s.repo.PaymentOverviewByMonth(ctx, time.Now().UTC().Year()); err != nil {
		return nil, err
	}
	return dashboard, nil
}

// ListUsers возвращает страницу пользователей с общим количеством.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) (*UsersPage, error) {
	users, err := s.repo.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	return &UsersPage{Users: users, Total: total}, nil
}

// CreatePlan создает тарифный план. Бесплатный тариф принудительно получает
// лимиты базового уровня: реклама, пять товаров, одна валюта.
func (s *Service) CreatePlan(ctx context.Context, req models.DummyPlan) (int, error) {
	plan := buildPlan(req)
	id, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		return 0, err
	}
	s.log.Info("created plan", slog.Int("id", id), slog.String("name", plan.Name))
	s.dropPlanCaches(plan.Name)
	return id, nil
}

// ListPlans возвращает все тарифы, включая неактивные.
func (s *Service) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	return s.repo.ListPlans(ctx, false)
}

// UpdatePlan обновляет тарифный план.
func (s *Service) UpdatePlan(ctx context.Context, id int, req models.DummyPlan) error {
	old, err := s.repo.GetPlanByID(ctx, id)
	if err != nil {
		return err
	}
	plan := buildPlan(req)
	if err := s.repo.UpdatePlan(ctx, id, plan); err != nil {
		return err
	}
	s.log.Info("updated plan", slog.Int("id", id), slog.String("name", plan.Name))
	s.dropPlanCaches(old.Name)
	s.dropPlanCaches(plan.Name)
	return nil
}

// TogglePlanActive переключает признак активности тарифа.
func (s *Service) TogglePlanActive(ctx context.Context, id int) (bool, error) {
	plan, err := s.repo.GetPlanByID(ctx, id)
	if err != nil {
		return false, err
	}
	newState := !plan.IsActive
	if err := s.repo.SetPlanActive(ctx, id, newState); err != nil {
		return false, err
	}
	s.dropPlanCaches(plan.Name)
	return newState, nil
}

// DeletePlan удаляет тариф без активных подписок.
func (s *Service) DeletePlan(ctx context.Context, id int) error {
	plan, err := s.repo.GetPlanByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return err
	}
	s.log.Info("deleted plan", slog.Int("id", id), slog.String("name", plan.Name))
	s.dropPlanCaches(plan.Name)
	return nil
}

// CreateCoupon создает купон.
func (s *Service) CreateCoupon(ctx context.Context, req models.DummyCoupon) (int, error) {
	coupon, err := buildCoupon(req)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.CreateCoupon(ctx, coupon)
	if err != nil {
		return 0, err
	}
	s.log.Info("created coupon", slog.Int("id", id), slog.String("code", coupon.Code))
	return id, nil
}

// ListCoupons возвращает все купоны.
func (s *Service) ListCoupons(ctx context.Context) ([]*models.Coupon, error) {
	return s.repo.ListCoupons(ctx)
}

// UpdateCoupon обновляет купон. Счетчик использований не сбрасывается.
func (s *Service) UpdateCoupon(ctx context.Context, id int, req models.DummyCoupon) error {
	coupon, err := buildCoupon(req)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateCoupon(ctx, id, coupon); err != nil {
		return err
	}
	s.log.Info("updated coupon", slog.Int("id", id), slog.String("code", coupon.Code))
	return nil
}

// SetCouponStatus переводит купон в активное или неактивное состояние.
func (s *Service) SetCouponStatus(ctx context.Context, id int, status string) error {
	if status != "active" && status != "inactive" {
		return fmt.Errorf("%w: unknown coupon status %q", models.ErrInvalidInput, status)
	}
	return s.repo.SetCouponStatus(ctx, id, status)
}

// DeleteCoupon удаляет купон.
func (s *Service) DeleteCoupon(ctx context.Context, id int) error {
	return s.repo.DeleteCoupon(ctx, id)
}

func (s *Service) dropPlanCaches(planName string) {
	s.planCache.InvalidatePlan(planName)
	if err := s.cache.Invalidate(plansCacheKey); err != nil {
		s.log.Warn("failed to invalidate plans cache", sl.Err(err))
	}
}

// buildPlan собирает модель тарифа, применяя правило бесплатного тарифа.
func buildPlan(req models.DummyPlan) models.SubscriptionPlan {
	plan := models.SubscriptionPlan{
		Name:          req.Name,
		PriceMonthly:  req.PriceMonthly,
		PriceYearly:   req.PriceYearly,
		Benefits:      req.Benefits,
		HasAds:        req.HasAds,
		MaxItems:      req.MaxItems,
		MaxCurrencies: req.MaxCurrencies,
		IsActive:      true,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if plan.PriceMonthly == 0 {
		plan.HasAds = true
		plan.MaxItems = 5
		plan.MaxCurrencies = 1
	}
	return plan
}

// buildCoupon валидирует даты и собирает модель купона.
func buildCoupon(req models.DummyCoupon) (models.Coupon, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return models.Coupon{}, fmt.Errorf("invalid start date: %w", err)
	}
	expiryDate, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return models.Coupon{}, fmt.Errorf("invalid expiry date: %w", err)
	}
	if !expiryDate.After(startDate) {
		return models.Coupon{}, fmt.Errorf("%w: expiry date must be after start date", models.ErrInvalidInput)
	}
	return models.Coupon{
		Code:            req.Code,
		DiscountType:    req.DiscountType,
		DiscountValue:   req.DiscountValue,
		StartDate:       startDate,
		ExpiryDate:      expiryDate.AddDate(0, 0, 1).Add(-time.Second), // включительно до конца дня
		UsageLimit:      req.UsageLimit,
		ApplicablePlans: req.ApplicablePlans,
		Status:          "active",
	}, nil
}
