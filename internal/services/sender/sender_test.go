package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/smtp"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSenderService_SendNotificationEmail(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockRepository, *MockTransport)
		expectedError bool
		errorMessage  string
	}{
		{
			name: "success - send notification email",
			body: []byte(`{"user_uid":"uid-123","title":"Price drop on Speedy 30","message":"The foreign price dropped below your home price.","type":"price_alert"}`),
			setupMocks: func(r *MockRepository, tr *MockTransport) {
				r.On("GetUser", mock.Anything, "uid-123").
					Return(&models.User{
						UID:                 "uid-123",
						Name:                "Alice",
						Email:               "alice@example.com",
						EnableNotifications: true,
					}, nil).Once()

				mockClient := new(MockSMTPClient)
				mockWriter := new(MockSMTPWriter)

				tr.On("GetSMTPUser").Return("sender@example.com")
				tr.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "sender@example.com").Return(nil).Once()
				mockClient.On("Rcpt", "alice@example.com").Return(nil).Once()
				mockClient.On("Data").Return(mockWriter, nil).Once()
				mockWriter.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
				mockWriter.On("Close").Return(nil).Once()
				mockClient.On("Quit").Return(nil).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			expectedError: false,
		},
		{
			name: "notifications disabled - skip without sending",
			body: []byte(`{"user_uid":"uid-456","title":"Subscription expired","message":"Your subscription has expired.","type":"subscription_update"}`),
			setupMocks: func(r *MockRepository, _ *MockTransport) {
				r.On("GetUser", mock.Anything, "uid-456").
					Return(&models.User{
						UID:                 "uid-456",
						Email:               "bob@example.com",
						EnableNotifications: false,
					}, nil).Once()
			},
			expectedError: false,
		},
		{
			name: "invalid JSON",
			body: []byte(`invalid json`),
			setupMocks: func(_ *MockRepository, _ *MockTransport) {
			},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name: "user lookup error",
			body: []byte(`{"user_uid":"uid-789","title":"Coupon applied","message":"Your coupon was applied.","type":"payment"}`),
			setupMocks: func(r *MockRepository, _ *MockTransport) {
				r.On("GetUser", mock.Anything, "uid-789").
					Return(nil, errors.New("user not found")).Once()
			},
			expectedError: true,
			errorMessage:  "error loading user",
		},
		{
			name: "SMTP connection error",
			body: []byte(`{"user_uid":"uid-123","title":"Price drop","message":"Good news.","type":"price_alert"}`),
			setupMocks: func(r *MockRepository, tr *MockTransport) {
				r.On("GetUser", mock.Anything, "uid-123").
					Return(&models.User{
						UID:                 "uid-123",
						Email:               "alice@example.com",
						EnableNotifications: true,
					}, nil).Once()

				tr.On("GetSMTPUser").Return("sender@example.com")
				tr.On("Connect").Return(nil, errors.New("connection error")).Once()
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			transport := new(MockTransport)
			service := NewSenderService(repo, newNoopLogger(), transport)

			tt.setupMocks(repo, transport)

			err := service.SendNotificationEmail(tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			transport.AssertExpectations(t)
		})
	}
}
