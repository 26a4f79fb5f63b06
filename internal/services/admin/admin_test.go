package admin

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CountActiveSubscriptions(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) CountCoupons(ctx context.Context, status string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) SumSubscriptionSales(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *RepoMock) SubscriptionOverview(ctx context.Context, monthly bool) ([]models.OverviewPoint, error) {
	args := m.Called(ctx, monthly)
	return args.Get(0).([]models.OverviewPoint), args.Error(1)
}

func (m *RepoMock) CountPaymentsByStatus(ctx context.Context, status string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) PaymentOverviewByMonth(ctx context.Context, year int) ([]models.PaymentOverviewPoint, error) {
	args := m.Called(ctx, year)
	return args.Get(0).([]models.PaymentOverviewPoint), args.Error(1)
}

func (m *RepoMock) ListUsers(ctx context.Context, limit, offset int) ([]*models.AdminUser, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.AdminUser), args.Error(1)
}

func (m *RepoMock) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (int, error) {
	args := m.Called(ctx, plan)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) GetPlanByID(ctx context.Context, id int) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionPlan), args.Error(1)
}

func (m *RepoMock) ListPlans(ctx context.Context, onlyActive bool) ([]*models.SubscriptionPlan, error) {
	args := m.Called(ctx, onlyActive)
	return args.Get(0).([]*models.SubscriptionPlan), args.Error(1)
}

func (m *RepoMock) UpdatePlan(ctx context.Context, id int, plan models.SubscriptionPlan) error {
	return m.Called(ctx, id, plan).Error(0)
}

func (m *RepoMock) SetPlanActive(ctx context.Context, id int, isActive bool) error {
	return m.Called(ctx, id, isActive).Error(0)
}

func (m *RepoMock) DeletePlan(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) CreateCoupon(ctx context.Context, coupon models.Coupon) (int, error) {
	args := m.Called(ctx, coupon)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ListCoupons(ctx context.Context) ([]*models.Coupon, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Coupon), args.Error(1)
}

func (m *RepoMock) UpdateCoupon(ctx context.Context, id int, coupon models.Coupon) error {
	return m.Called(ctx, id, coupon).Error(0)
}

func (m *RepoMock) SetCouponStatus(ctx context.Context, id int, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *RepoMock) DeleteCoupon(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type PlanCacheMock struct{ mock.Mock }

func (m *PlanCacheMock) InvalidatePlan(planName string) {
	m.Called(planName)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(repo *RepoMock, planCache *PlanCacheMock, cache *CacheMock) *Service {
	return New(repo, planCache, cache, NewNoopLogger())
}

func TestAdmin_CreatePlan(t *testing.T) {
	tests := []struct {
		name     string
		req      models.DummyPlan
		wantPlan models.SubscriptionPlan
	}{
		{
			name: "paid plan keeps requested limits",
			req: models.DummyPlan{
				Name:          "Shopper",
				PriceMonthly:  4.99,
				PriceYearly:   49.99,
				MaxItems:      50,
				MaxCurrencies: 9,
			},
			wantPlan: models.SubscriptionPlan{
				Name:          "Shopper",
				PriceMonthly:  4.99,
				PriceYearly:   49.99,
				MaxItems:      50,
				MaxCurrencies: 9,
				IsActive:      true,
			},
		},
		{
			name: "free plan forced to base limits",
			req: models.DummyPlan{
				Name:          "Freebie",
				PriceMonthly:  0,
				MaxItems:      500,
				MaxCurrencies: 9,
				HasAds:        false,
			},
			wantPlan: models.SubscriptionPlan{
				Name:          "Freebie",
				HasAds:        true,
				MaxItems:      5,
				MaxCurrencies: 1,
				IsActive:      true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			planCache := new(PlanCacheMock)
			cache := new(CacheMock)
			svc := newService(repo, planCache, cache)

			repo.On("CreatePlan", mock.Anything, tt.wantPlan).Return(3, nil).Once()
			planCache.On("InvalidatePlan", tt.wantPlan.Name).Once()
			cache.On("Invalidate", plansCacheKey).Return(nil).Once()

			gotID, err := svc.CreatePlan(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, 3, gotID)
			repo.AssertExpectations(t)
			planCache.AssertExpectations(t)
		})
	}
}

func TestAdmin_TogglePlanActive(t *testing.T) {
	repo := new(RepoMock)
	planCache := new(PlanCacheMock)
	cache := new(CacheMock)
	svc := newService(repo, planCache, cache)

	repo.On("GetPlanByID", mock.Anything, 3).
		Return(&models.SubscriptionPlan{ID: 3, Name: "Shopper", IsActive: true}, nil).Once()
	repo.On("SetPlanActive", mock.Anything, 3, false).Return(nil).Once()
	planCache.On("InvalidatePlan", "Shopper").Once()
	cache.On("Invalidate", plansCacheKey).Return(nil).Once()

	got, err := svc.TogglePlanActive(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, got)
	repo.AssertExpectations(t)
}

func TestAdmin_CreateCoupon(t *testing.T) {
	tests := []struct {
		name    string
		req     models.DummyCoupon
		wantErr bool
	}{
		{
			name: "success create",
			req: models.DummyCoupon{
				Code:          "SAVE10",
				DiscountType:  models.DiscountPercent,
				DiscountValue: 10,
				StartDate:     "2025-06-01",
				ExpiryDate:    "2025-12-31",
				UsageLimit:    100,
			},
		},
		{
			name: "invalid date format",
			req: models.DummyCoupon{
				Code:          "SAVE10",
				DiscountType:  models.DiscountPercent,
				DiscountValue: 10,
				StartDate:     "not a date",
				ExpiryDate:    "2025-12-31",
			},
			wantErr: true,
		},
		{
			name: "expiry before start",
			req: models.DummyCoupon{
				Code:          "SAVE10",
				DiscountType:  models.DiscountPercent,
				DiscountValue: 10,
				StartDate:     "2025-12-31",
				ExpiryDate:    "2025-06-01",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc := newService(repo, new(PlanCacheMock), new(CacheMock))

			if !tt.wantErr {
				repo.On("CreateCoupon", mock.Anything, mock.MatchedBy(func(c models.Coupon) bool {
					return c.Code == "SAVE10" && c.Status == "active" &&
						c.ExpiryDate.After(c.StartDate)
				})).Return(5, nil).Once()
			}

			gotID, err := svc.CreateCoupon(context.Background(), tt.req)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 5, gotID)
			repo.AssertExpectations(t)
		})
	}
}

func TestAdmin_Dashboard(t *testing.T) {
	repo := new(RepoMock)
	svc := newService(repo, new(PlanCacheMock), new(CacheMock))

	repo.On("CountActiveSubscriptions", mock.Anything).Return(12, nil).Once()
	repo.On("CountCoupons", mock.Anything, "active").Return(3, nil).Once()
	repo.On("SumSubscriptionSales", mock.Anything).Return(649.5, nil).Once()
	repo.On("SubscriptionOverview", mock.Anything, true).
		Return([]models.OverviewPoint{{Period: 6, Count: 12}}, nil).Once()
	repo.On("CountPaymentsByStatus", mock.Anything, "").Return(20, nil).Once()
	repo.On("CountPaymentsByStatus", mock.Anything, models.PaymentPending).Return(5, nil).Once()
	repo.On("CountPaymentsByStatus", mock.Anything, models.PaymentFailed).Return(3, nil).Once()
	repo.On("PaymentOverviewByMonth", mock.Anything, mock.Anything).
		Return([]models.PaymentOverviewPoint{{Month: 6, Count: 20, Success: 12}}, nil).Once()

	got, err := svc.Dashboard(context.Background(), "monthly")
	require.NoError(t, err)
	assert.Equal(t, 12, got.TotalSubscriptions)
	assert.Equal(t, 649.5, got.TotalSales)
	assert.Equal(t, 5, got.PendingPayments)
	require.Len(t, got.OverviewData, 1)
	repo.AssertExpectations(t)
}

func TestAdmin_SetCouponStatus(t *testing.T) {
	repo := new(RepoMock)
	svc := newService(repo, new(PlanCacheMock), new(CacheMock))

	repo.On("SetCouponStatus", mock.Anything, 5, "inactive").Return(nil).Once()
	require.NoError(t, svc.SetCouponStatus(context.Background(), 5, "inactive"))

	err := svc.SetCouponStatus(context.Background(), 5, "paused")
	require.ErrorIs(t, err, models.ErrInvalidInput)
	repo.AssertExpectations(t)
}
