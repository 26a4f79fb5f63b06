// Package plan применяет лимиты тарифных планов к действиям пользователя.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// PlanRepository описывает контракт чтения тарифов из базы данных.
type PlanRepository interface {
	GetPlanByName(ctx context.Context, name string) (*models.SubscriptionPlan, error)
	CountProductsByUser(ctx context.Context, userUID string) (int, error)
}

// Cache описывает контракт кэша тарифов.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service проверяет лимиты тарифа пользователя перед изменением товаров.
type Service struct {
	repo  PlanRepository
	cache Cache
	log   *slog.Logger
}

// New создает сервис лимитов тарифов.
func New(repo PlanRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Resolve возвращает тариф по имени, используя кэш.
func (s *Service) Resolve(ctx context.Context, planName string) (*models.SubscriptionPlan, error) {
	var plan *models.SubscriptionPlan
	cacheKey := fmt.Sprintf("plan:%s", planName)
	found, err := s.cache.Get(cacheKey, &plan)
	if err != nil {
		s.log.Warn("failed to read plan from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return plan, nil
	}
	plan, err = s.repo.GetPlanByName(ctx, planName)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, plan, time.Hour); err != nil {
		s.log.Warn("failed to cache plan", slog.String("key", cacheKey), sl.Err(err))
	}
	return plan, nil
}

// InvalidatePlan сбрасывает кэш тарифа после изменения администратором.
func (s *Service) InvalidatePlan(planName string) {
	cacheKey := fmt.Sprintf("plan:%s", planName)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate plan cache", slog.String("key", cacheKey), sl.Err(err))
	}
}

// CheckProductAllowed проверяет, укладывается ли новый товар в лимиты тарифа:
// количество товаров и разрешение на зарубежные сравнения. При countDelta > 0
// учитывается добавление новых товаров. Первый результат — признак показа
// рекламы по тарифу; он действителен и при отказе по лимитам.
func (s *Service) CheckProductAllowed(ctx context.Context, user *models.User,
	comparisons []models.ForeignComparison, countDelta int) (bool, error) {
	plan, err := s.Resolve(ctx, user.CurrentPlan)
	if err != nil {
		return false, err
	}

	if countDelta > 0 && plan.MaxItems > 0 {
		current, err := s.repo.CountProductsByUser(ctx, user.UID)
		if err != nil {
			return plan.HasAds, err
		}
		if current+countDelta > plan.MaxItems {
			return plan.HasAds, models.ErrPlanLimitReached
		}
	}

	// Тариф с одной валютой закрывает зарубежные сравнения целиком
	if plan.MaxCurrencies <= 1 && len(comparisons) > 0 {
		return plan.HasAds, models.ErrCurrencyLimit
	}
	return plan.HasAds, nil
}

// Limits возвращает лимиты тарифа пользователя с остатком по товарам.
func (s *Service) Limits(ctx context.Context, user *models.User) (models.PlanLimits, bool, error) {
	plan, err := s.Resolve(ctx, user.CurrentPlan)
	if err != nil {
		return models.PlanLimits{}, false, err
	}
	current, err := s.repo.CountProductsByUser(ctx, user.UID)
	if err != nil {
		return models.PlanLimits{}, false, err
	}
	remaining := plan.MaxItems - current
	if plan.MaxItems == 0 {
		remaining = -1 // без ограничения
	} else if remaining < 0 {
		remaining = 0
	}
	return models.PlanLimits{
		MaxItems:       plan.MaxItems,
		RemainingItems: remaining,
		MaxCurrencies:  plan.MaxCurrencies,
	}, plan.HasAds, nil
}
