package payment

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nurmohammad56/luxe-tracker/internal/models"
	"github.com/nurmohammad56/luxe-tracker/internal/paymentprovider"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreatePayment(ctx context.Context, payment models.PaymentInfo) (int, error) {
	args := m.Called(ctx, payment)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.PaymentInfo, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentInfo), args.Error(1)
}

func (m *RepoMock) CompletePayment(ctx context.Context, payment *models.PaymentInfo,
	planName, paymentMethod string, startDate, endDate time.Time) (*models.UserSubscription, error) {
	args := m.Called(ctx, payment, planName, paymentMethod, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSubscription), args.Error(1)
}

func (m *RepoMock) MarkPaymentFailed(ctx context.Context, transactionID string) error {
	return m.Called(ctx, transactionID).Error(0)
}

func (m *RepoMock) GetPlanByID(ctx context.Context, id int) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionPlan), args.Error(1)
}

func (m *RepoMock) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *RepoMock) ListPlans(ctx context.Context, onlyActive bool) ([]*models.SubscriptionPlan, error) {
	args := m.Called(ctx, onlyActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionPlan), args.Error(1)
}

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) CreateIntent(ctx context.Context, req paymentprovider.CreateIntentRequest) (*paymentprovider.IntentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.IntentResponse), args.Error(1)
}

func (m *ProviderMock) ConfirmIntent(ctx context.Context, intentID string, req paymentprovider.ConfirmIntentRequest) (*paymentprovider.IntentResponse, error) {
	args := m.Called(ctx, intentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.IntentResponse), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Emit(ctx context.Context, n models.Notification) (int, error) {
	args := m.Called(ctx, n)
	return args.Int(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func activeCoupon() *models.Coupon {
	return &models.Coupon{
		Code:          "SAVE10",
		DiscountType:  models.DiscountPercent,
		DiscountValue: 10,
		StartDate:     time.Now().UTC().AddDate(0, 0, -1),
		ExpiryDate:    time.Now().UTC().AddDate(0, 0, 30),
		Status:        "active",
	}
}

func TestCouponDiscount(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	base := models.Coupon{
		Code:          "SAVE10",
		DiscountType:  models.DiscountPercent,
		DiscountValue: 10,
		StartDate:     now.AddDate(0, 0, -10),
		ExpiryDate:    now.AddDate(0, 0, 10),
		Status:        "active",
	}

	tests := []struct {
		name         string
		modify       func(c *models.Coupon)
		planName     string
		price        float64
		wantDiscount float64
		wantErr      bool
	}{
		{
			name:         "percent discount",
			modify:       func(c *models.Coupon) {},
			planName:     "Shopper",
			price:        49.99,
			wantDiscount: 5.0,
		},
		{
			name: "fixed discount capped at price",
			modify: func(c *models.Coupon) {
				c.DiscountType = models.DiscountFixed
				c.DiscountValue = 100
			},
			planName:     "Shopper",
			price:        49.99,
			wantDiscount: 49.99,
		},
		{
			name:     "inactive coupon",
			modify:   func(c *models.Coupon) { c.Status = "inactive" },
			planName: "Shopper",
			price:    49.99,
			wantErr:  true,
		},
		{
			name:     "expired coupon",
			modify:   func(c *models.Coupon) { c.ExpiryDate = now.AddDate(0, 0, -1) },
			planName: "Shopper",
			price:    49.99,
			wantErr:  true,
		},
		{
			name: "usage limit exhausted",
			modify: func(c *models.Coupon) {
				c.UsageLimit = 3
				c.UsedCount = 3
			},
			planName: "Shopper",
			price:    49.99,
			wantErr:  true,
		},
		{
			name:     "not applicable to plan",
			modify:   func(c *models.Coupon) { c.ApplicablePlans = []string{"Collector"} },
			planName: "Shopper",
			price:    49.99,
			wantErr:  true,
		},
		{
			name:         "applicable plan listed",
			modify:       func(c *models.Coupon) { c.ApplicablePlans = []string{"Shopper", "Collector"} },
			planName:     "Shopper",
			price:        100,
			wantDiscount: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coupon := base
			tt.modify(&coupon)

			got, err := CouponDiscount(&coupon, tt.planName, tt.price, now)
			if tt.wantErr {
				require.ErrorIs(t, err, models.ErrCouponInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiscount, got)
		})
	}
}

func TestPayment_CreateIntent(t *testing.T) {
	plan := &models.SubscriptionPlan{ID: 2, Name: "Shopper", PriceMonthly: 4.99, PriceYearly: 49.99, IsActive: true}

	repo := new(RepoMock)
	provider := new(ProviderMock)
	svc := New(repo, provider, nil, new(CacheMock), NewNoopLogger())

	repo.On("GetPlanByID", mock.Anything, 2).Return(plan, nil).Once()
	repo.On("GetCouponByCode", mock.Anything, "SAVE10").Return(activeCoupon(), nil).Once()
	provider.On("CreateIntent", mock.Anything, mock.MatchedBy(func(req paymentprovider.CreateIntentRequest) bool {
		// 49.99 - 10% = 44.99, в центах
		return req.Amount == 4499 && req.Customer.Email == "test@example.com"
	})).Return(&paymentprovider.IntentResponse{
		ID:           "pi_test_1",
		ClientSecret: "pi_test_1_secret",
		Status:       "requires_confirmation",
	}, nil).Once()
	repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.PaymentInfo) bool {
		return p.TransactionID == "pi_test_1" &&
			p.PaymentStatus == models.PaymentPending &&
			p.FinalPrice == 44.99 &&
			p.CouponUsed == "SAVE10" &&
			p.IsYearly
	})).Return(1, nil).Once()

	got, err := svc.CreateIntent(context.Background(), "uid-1", models.DummyCreatePayment{
		PlanID:     2,
		IsYearly:   true,
		CouponCode: "SAVE10",
		Email:      "test@example.com",
		Phone:      "+15550100",
		Country:    "USA",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_test_1", got.TransactionID)
	assert.Equal(t, 49.99, got.Price)
	assert.Equal(t, 5.0, got.Discount)
	assert.Equal(t, 44.99, got.FinalPrice)
	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestPayment_CreateIntent_InactivePlan(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, new(ProviderMock), nil, new(CacheMock), NewNoopLogger())

	repo.On("GetPlanByID", mock.Anything, 9).
		Return(&models.SubscriptionPlan{ID: 9, Name: "Legacy", IsActive: false}, nil).Once()

	_, err := svc.CreateIntent(context.Background(), "uid-1", models.DummyCreatePayment{
		PlanID:  9,
		Email:   "test@example.com",
		Phone:   "+15550100",
		Country: "USA",
	})
	require.ErrorIs(t, err, models.ErrPlanNotFound)
}

func TestPayment_Confirm(t *testing.T) {
	pending := func() *models.PaymentInfo {
		return &models.PaymentInfo{
			ID:            1,
			UserUID:       "uid-1",
			PlanID:        2,
			FinalPrice:    44.99,
			TransactionID: "pi_test_1",
			PaymentStatus: models.PaymentPending,
			IsYearly:      true,
		}
	}
	plan := &models.SubscriptionPlan{ID: 2, Name: "Shopper", IsActive: true}

	t.Run("success confirm activates subscription", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)
		notifier := new(NotifierMock)
		svc := New(repo, provider, notifier, new(CacheMock), NewNoopLogger())

		sub := &models.UserSubscription{ID: 10, UserUID: "uid-1", PlanID: 2, Status: models.SubscriptionActive}
		repo.On("GetPaymentByTransactionID", mock.Anything, "pi_test_1").Return(pending(), nil).Once()
		provider.On("ConfirmIntent", mock.Anything, "pi_test_1",
			paymentprovider.ConfirmIntentRequest{PaymentMethod: "pm_card"}).
			Return(&paymentprovider.IntentResponse{ID: "pi_test_1", Status: paymentprovider.StatusSucceeded}, nil).Once()
		repo.On("GetPlanByID", mock.Anything, 2).Return(plan, nil).Once()
		repo.On("CompletePayment", mock.Anything, mock.Anything, "Shopper", "stripe",
			mock.Anything, mock.Anything).Return(sub, nil).Once()
		notifier.On("Emit", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
			return n.Type == models.NotificationSubscriptionUpdate && n.UserUID == "uid-1"
		})).Return(5, nil).Once()

		got, err := svc.Confirm(context.Background(), "uid-1", models.DummyConfirmPayment{
			PaymentIntentID: "pi_test_1",
			PaymentMethodID: "pm_card",
		})
		require.NoError(t, err)
		assert.Equal(t, 10, got.ID)
		repo.AssertExpectations(t)
		provider.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("already confirmed payment rejected", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, new(ProviderMock), nil, new(CacheMock), NewNoopLogger())

		confirmed := pending()
		confirmed.PaymentStatus = models.PaymentComplete
		repo.On("GetPaymentByTransactionID", mock.Anything, "pi_test_1").Return(confirmed, nil).Once()

		_, err := svc.Confirm(context.Background(), "uid-1", models.DummyConfirmPayment{
			PaymentIntentID: "pi_test_1",
			PaymentMethodID: "pm_card",
		})
		require.ErrorIs(t, err, models.ErrAlreadyConfirmed)
	})

	t.Run("foreign payment rejected", func(t *testing.T) {
		repo := new(RepoMock)
		svc := New(repo, new(ProviderMock), nil, new(CacheMock), NewNoopLogger())

		repo.On("GetPaymentByTransactionID", mock.Anything, "pi_test_1").Return(pending(), nil).Once()

		_, err := svc.Confirm(context.Background(), "uid-other", models.DummyConfirmPayment{
			PaymentIntentID: "pi_test_1",
			PaymentMethodID: "pm_card",
		})
		require.ErrorIs(t, err, models.ErrPaymentNotFound)
	})

	t.Run("provider failure marks payment failed", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)
		svc := New(repo, provider, nil, new(CacheMock), NewNoopLogger())

		repo.On("GetPaymentByTransactionID", mock.Anything, "pi_test_1").Return(pending(), nil).Once()
		provider.On("ConfirmIntent", mock.Anything, "pi_test_1", mock.Anything).
			Return(&paymentprovider.IntentResponse{ID: "pi_test_1", Status: "requires_payment_method"}, nil).Once()
		repo.On("MarkPaymentFailed", mock.Anything, "pi_test_1").Return(nil).Once()

		_, err := svc.Confirm(context.Background(), "uid-1", models.DummyConfirmPayment{
			PaymentIntentID: "pi_test_1",
			PaymentMethodID: "pm_card",
		})
		require.ErrorIs(t, err, models.ErrPaymentFailed)
		repo.AssertExpectations(t)
	})
}

func TestPayment_ListPlans(t *testing.T) {
	plans := []*models.SubscriptionPlan{
		{ID: 1, Name: "Traveler", IsActive: true},
		{ID: 2, Name: "Shopper", IsActive: true},
	}

	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, new(ProviderMock), nil, cache, NewNoopLogger())

	cache.On("Get", plansCacheKey, mock.Anything).Return(false, nil).Once()
	repo.On("ListPlans", mock.Anything, true).Return(plans, nil).Once()
	cache.On("Set", plansCacheKey, plans, 10*time.Minute).Return(nil).Once()

	got, err := svc.ListPlans(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	repo.AssertExpectations(t)
}
