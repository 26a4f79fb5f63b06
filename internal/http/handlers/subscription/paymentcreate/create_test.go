package paymentcreate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nurmohammad56/luxe-tracker/internal/http/middlewarectx"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
	"github.com/nurmohammad56/luxe-tracker/internal/services/payment"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CreateIntent(ctx context.Context, userUID string, req models.DummyCreatePayment) (*payment.IntentResult, error) {
	args := m.Called(ctx, userUID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.IntentResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func validBody() models.DummyCreatePayment {
	return models.DummyCreatePayment{
		PlanID:  1,
		Email:   "alice@example.com",
		Phone:   "+12025550101",
		Country: "USA",
	}
}

func TestCreatePaymentHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(ServiceMock)
	logger := newNoopLogger()

	handler := New(logger, serviceMock)

	tests := []struct {
		name           string
		requestBody    any
		withUserUID    bool
		mockResult     *payment.IntentResult
		mockErr        error
		wantStatusCode int
		wantData       map[string]any
		wantError      string
		wantStatus     string
	}{
		{
			name:        "valid payment intent",
			requestBody: validBody(),
			withUserUID: true,
			mockResult: &payment.IntentResult{
				TransactionID: "pi_123",
				ClientSecret:  "pi_123_secret",
				Price:         99.99,
				Discount:      10,
				FinalPrice:    89.99,
			},
			wantStatusCode: http.StatusOK,
			wantData: map[string]any{
				"transaction_id": "pi_123",
				"client_secret":  "pi_123_secret",
				"price":          99.99,
				"discount":       float64(10),
				"final_price":    89.99,
			},
			wantStatus: "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			withUserUID:    true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
		{
			name: "validation error - missing plan id",
			requestBody: models.DummyCreatePayment{
				Email:   "alice@example.com",
				Phone:   "+12025550101",
				Country: "USA",
			},
			withUserUID:    true,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field PlanID is a required field",
			wantStatus:     "Error",
		},
		{
			name:           "missing user uid",
			requestBody:    validBody(),
			withUserUID:    false,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "unauthorized",
			wantStatus:     "Error",
		},
		{
			name:           "plan not found",
			requestBody:    validBody(),
			withUserUID:    true,
			mockErr:        models.ErrPlanNotFound,
			wantStatusCode: http.StatusNotFound,
			wantError:      "plan not found",
			wantStatus:     "Error",
		},
		{
			name:           "invalid coupon",
			requestBody:    validBody(),
			withUserUID:    true,
			mockErr:        models.ErrCouponInvalid,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid coupon",
			wantStatus:     "Error",
		},
		{
			name:           "provider error",
			requestBody:    validBody(),
			withUserUID:    true,
			mockErr:        errors.New("provider unavailable"),
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "failed to create payment",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.mockResult != nil || tt.mockErr != nil {
				serviceMock.On("CreateIntent", mock.Anything, "uid-123", mock.Anything).
					Return(tt.mockResult, tt.mockErr).Once()
			}

			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/payments/create", bytes.NewReader(bodyBytes))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.withUserUID {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, "uid-123")
			}
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			} else {
				assert.Nil(t, got["error"])
			}

			if tt.wantData != nil {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				for k, v := range tt.wantData {
					assert.Equal(t, v, data[k])
				}
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
