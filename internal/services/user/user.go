// Package user реализует операции личного кабинета: профиль, смена пароля
// и сводка по товарам и подписке.
package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/password"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// UserRepository описывает контракт хранилища для личного кабинета.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userUID string, entry models.DummyUpdateProfile) error
	UpdatePassword(ctx context.Context, userUID, passwordHash string) error
	CountProductsByUser(ctx context.Context, userUID string) (int, error)
	SumHomePriceByUser(ctx context.Context, userUID string) (float64, error)
	GetSubscriptionByID(ctx context.Context, id int) (*models.UserSubscription, error)
	CountUnreadNotifications(ctx context.Context, userUID string) (int, error)
}

// PlanLimits возвращает лимиты тарифа пользователя.
type PlanLimits interface {
	Limits(ctx context.Context, user *models.User) (models.PlanLimits, bool, error)
}

// Service реализует операции личного кабинета.
type Service struct {
	repo   UserRepository
	limits PlanLimits
	log    *slog.Logger
}

// New создает сервис личного кабинета.
func New(repo UserRepository, limits PlanLimits, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		limits: limits,
		log:    log,
	}
}

// Profile возвращает пользователя по UID.
func (s *Service) Profile(ctx context.Context, userUID string) (*models.User, error) {
	return s.repo.GetUser(ctx, userUID)
}

// UpdateProfile обновляет изменяемые поля профиля.
func (s *Service) UpdateProfile(ctx context.Context, userUID string, req models.DummyUpdateProfile) error {
	return s.repo.UpdateProfile(ctx, userUID, req)
}

// ChangePassword проверяет текущий пароль и устанавливает новый.
func (s *Service) ChangePassword(ctx context.Context, userUID string, req models.DummyChangePassword) error {
	if req.NewPassword != req.ConfirmPassword {
		return errors.New("passwords do not match")
	}
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return err
	}
	if err := password.CompareHash(user.PasswordHash, req.CurrentPassword); err != nil {
		return errors.New("invalid credentials")
	}
	hashed, err := password.GetHash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userUID, hashed)
}

// Dashboard собирает сводку личного кабинета: количество и стоимость
// товаров, агрегаты экономии, текущий тариф с лимитами и подписку.
func (s *Service) Dashboard(ctx context.Context, userUID string) (*models.Dashboard, error) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}

	dashboard := &models.Dashboard{
		TotalSavings: user.TotalSavings,
		AvgSavings:   user.AvgSavings,
		CurrentPlan:  user.CurrentPlan,
	}
	if dashboard.TotalItems, err = s.repo.CountProductsByUser(ctx, userUID); err != nil {
		return nil, err
	}
	if dashboard.TotalValues, err = s.repo.SumHomePriceByUser(ctx, userUID); err != nil {
		return nil, err
	}
	if dashboard.UnreadNotifications, err = s.repo.CountUnreadNotifications(ctx, userUID); err != nil {
		return nil, err
	}

	limits, hasAds, err := s.limits.Limits(ctx, user)
	if err != nil {
		return nil, err
	}
	dashboard.PlanLimits = limits
	dashboard.ShowAds = hasAds

	if user.SubscriptionID != nil {
		sub, err := s.repo.GetSubscriptionByID(ctx, *user.SubscriptionID)
		if err != nil {
			s.log.Warn("failed to load subscription",
				slog.Int("id", *user.SubscriptionID), sl.Err(err))
		} else {
			dashboard.Subscription = sub
		}
	}
	return dashboard, nil
}
