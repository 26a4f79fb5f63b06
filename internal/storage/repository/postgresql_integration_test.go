package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

func TestStorage_CreateAndReadProduct(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")

	product := models.Product{
		UserUID:      userUID,
		Name:         "Speedy 30",
		Brand:        "Louis Vuitton",
		Category:     "bags",
		HomePrice:    1500,
		HomeCountry:  "USA",
		HomeCurrency: "USD",
		ForeignComparisons: []models.ForeignComparison{
			{Country: "France", Currency: "Euro", Price: 1200},
		},
		Note:             "wishlist",
		VATRefundPercent: 12,
	}

	gotID, err := storage.CreateProduct(context.Background(), product)
	require.NoError(t, err)
	assert.Equal(t, 1, gotID)

	got, err := storage.ReadProduct(context.Background(), gotID, userUID)
	require.NoError(t, err)
	assert.Equal(t, product.Name, got.Name)
	assert.Equal(t, product.HomePrice, got.HomePrice)
	assert.Len(t, got.ForeignComparisons, 1)
	assert.Equal(t, "France", got.ForeignComparisons[0].Country)
	assert.Equal(t, 12.0, got.VATRefundPercent)

	// Чужой пользователь не видит товар
	_, err = storage.ReadProduct(context.Background(), gotID, uuid.New().String())
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_ListProducts(t *testing.T) {
	tests := []struct {
		name      string
		filter    models.ProductFilter
		wantCount int
	}{
		{
			name:      "list all products with pagination",
			filter:    models.ProductFilter{Limit: 10, Offset: 0},
			wantCount: 3,
		},
		{
			name:      "filter by category",
			filter:    models.ProductFilter{Category: "accessories", Limit: 10},
			wantCount: 1,
		},
		{
			name:      "filter by search substring",
			filter:    models.ProductFilter{Search: "rolex", Limit: 10},
			wantCount: 1,
		},
		{
			name:      "filter by brand without matches",
			filter:    models.ProductFilter{Brand: "Hermes", Limit: 10},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			userUID := uuid.New().String()
			factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
			factory.CreateProduct(t, userUID, "Speedy 30", "Louis Vuitton", "bags", 1500, nil)
			factory.CreateProduct(t, userUID, "Submariner", "Rolex", "accessories", 9000, nil)
			factory.CreateProduct(t, userUID, "Classic Flap", "Chanel", "bags", 8000, nil)

			tt.filter.UserUID = userUID
			got, err := storage.ListProducts(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.wantCount)
		})
	}
}

func TestStorage_TogglePurchase(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
	productID := factory.CreateProduct(t, userUID, "Speedy 30", "Louis Vuitton", "bags", 1500, nil)

	got, err := storage.TogglePurchase(context.Background(), productID, userUID)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = storage.TogglePurchase(context.Background(), productID, userUID)
	require.NoError(t, err)
	assert.False(t, got)

	_, err = storage.TogglePurchase(context.Background(), 9999, userUID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_RecomputeUserSavings(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
	factory.CreateProduct(t, userUID, "Speedy 30", "Louis Vuitton", "bags", 1500, nil)
	factory.CreateProduct(t, userUID, "Submariner", "Rolex", "accessories", 9000, nil)

	// Экономия считается как десятая часть домашней цены
	err := storage.RecomputeUserSavings(context.Background(), userUID, func(p models.Product) float64 {
		return p.HomePrice / 10
	})
	require.NoError(t, err)

	user, err := storage.GetUser(context.Background(), userUID)
	require.NoError(t, err)
	assert.Equal(t, 1050.0, user.TotalSavings)
	assert.Equal(t, 525.0, user.AvgSavings)
}

func TestStorage_CompletePayment(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
	planID := factory.CreatePlan(t, "Shopper", 4.99, 49.99, 50, 9, true)
	factory.CreateCoupon(t, "SAVE10", models.DiscountPercent, 10, 5, 0, "active")
	factory.CreatePayment(t, userUID, planID, 44.99, "pi_test_1", models.PaymentPending, "SAVE10")

	payment, err := storage.GetPaymentByTransactionID(context.Background(), "pi_test_1")
	require.NoError(t, err)

	startDate := time.Now().UTC()
	endDate := startDate.AddDate(0, 1, 0)
	sub, err := storage.CompletePayment(context.Background(), payment, "Shopper", "stripe", startDate, endDate)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, "SAVE10", sub.CouponUsed)

	// Пользователь переведён на новый тариф
	user, err := storage.GetUser(context.Background(), userUID)
	require.NoError(t, err)
	assert.Equal(t, "Shopper", user.CurrentPlan)
	require.NotNil(t, user.SubscriptionID)
	assert.Equal(t, sub.ID, *user.SubscriptionID)

	// Купон списан ровно один раз
	coupon, err := storage.GetCouponByCode(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)

	// Повторное подтверждение того же платежа отклоняется
	_, err = storage.CompletePayment(context.Background(), payment, "Shopper", "stripe", startDate, endDate)
	require.ErrorIs(t, err, models.ErrAlreadyConfirmed)

	coupon, err = storage.GetCouponByCode(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)
}

func TestStorage_CompletePayment_CouponLimitReached(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
	planID := factory.CreatePlan(t, "Shopper", 4.99, 49.99, 50, 9, true)
	factory.CreateCoupon(t, "LIMITED", models.DiscountFixed, 5, 2, 2, "active")
	factory.CreatePayment(t, userUID, planID, 44.99, "pi_test_2", models.PaymentPending, "LIMITED")

	payment, err := storage.GetPaymentByTransactionID(context.Background(), "pi_test_2")
	require.NoError(t, err)

	startDate := time.Now().UTC()
	_, err = storage.CompletePayment(context.Background(), payment, "Shopper", "stripe",
		startDate, startDate.AddDate(0, 1, 0))
	require.ErrorIs(t, err, models.ErrCouponInvalid)

	// Транзакция откатилась: платёж остался в статусе pending
	got, err := storage.GetPaymentByTransactionID(context.Background(), "pi_test_2")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)
}

func TestStorage_MarkNotificationsRead(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userUID := uuid.New().String()
	factory.CreateUser(t, userUID, "testuser", "test@example.com", "hashedpassword", "user")
	id1 := factory.CreateNotification(t, userUID, "price drop", models.NotificationPriceIncrease, false)
	factory.CreateNotification(t, userUID, "plan updated", models.NotificationSubscriptionUpdate, false)
	factory.CreateNotification(t, userUID, "welcome", models.NotificationGeneral, true)

	count, err := storage.CountUnreadNotifications(context.Background(), userUID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	n, err := storage.MarkNotificationsRead(context.Background(), userUID, []int{id1})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Пустой список помечает все оставшиеся
	n, err = storage.MarkNotificationsRead(context.Background(), userUID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err = storage.CountUnreadNotifications(context.Background(), userUID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStorage_ListPlans(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreatePlan(t, "Traveler", 0, 0, 5, 1, true)
	factory.CreatePlan(t, "Shopper", 4.99, 49.99, 50, 9, true)
	factory.CreatePlan(t, "Legacy", 2.99, 29.99, 20, 3, false)

	got, err := storage.ListPlans(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Сортировка по возрастанию месячной цены
	assert.Equal(t, "Traveler", got[0].Name)
	assert.Equal(t, "Shopper", got[1].Name)

	got, err = storage.ListPlans(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestStorage_RegisterUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	gotUID, err := storage.RegisterUser(context.Background(), models.User{
		Name:         "Test User",
		Email:        "test@example.com",
		Username:     "testuser",
		PasswordHash: "hashedpassword",
		Role:         "user",
		CurrentPlan:  "Traveler",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, gotUID)

	got, err := storage.GetUserByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, gotUID, got.UID)
	assert.Equal(t, "Traveler", got.CurrentPlan)

	// Повторная регистрация с тем же username отклоняется
	_, err = storage.RegisterUser(context.Background(), models.User{
		Name:         "Other",
		Email:        "other@example.com",
		Username:     "testuser",
		PasswordHash: "hashedpassword",
		Role:         "user",
		CurrentPlan:  "Traveler",
	})
	require.Error(t, err)
}
