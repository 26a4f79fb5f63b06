package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/jwt"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/password"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestAuth_Register(t *testing.T) {
	repo := new(RepoMock)
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	svc := NewAuthService(repo, maker)

	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		// Пароль захэширован, роль и тариф дефолтные
		return u.Username == "testuser" &&
			u.Role == "user" &&
			u.CurrentPlan == FreePlanName &&
			u.EnableNotifications &&
			password.CompareHash(u.PasswordHash, "secret123") == nil
	})).Return("uid-1", nil).Once()

	gotUID, err := svc.Register(context.Background(), "Test User", "test@example.com", "testuser", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", gotUID)
	repo.AssertExpectations(t)
}

func TestAuth_Login(t *testing.T) {
	hashed, err := password.GetHash("secret123")
	require.NoError(t, err)
	user := &models.User{
		UID:          "uid-1",
		Username:     "testuser",
		PasswordHash: hashed,
		Role:         "user",
	}

	tests := []struct {
		name        string
		rawPassword string
		setupMocks  func(repo *RepoMock)
		wantErr     bool
	}{
		{
			name:        "success login",
			rawPassword: "secret123",
			setupMocks: func(repo *RepoMock) {
				repo.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil).Once()
			},
			wantErr: false,
		},
		{
			name:        "wrong password",
			rawPassword: "wrongpass",
			setupMocks: func(repo *RepoMock) {
				repo.On("GetUserByUsername", mock.Anything, "testuser").Return(user, nil).Once()
			},
			wantErr: true,
		},
		{
			name:        "unknown user",
			rawPassword: "secret123",
			setupMocks: func(repo *RepoMock) {
				repo.On("GetUserByUsername", mock.Anything, "testuser").
					Return(nil, models.ErrNotFound).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			maker := jwt.NewJWTMaker("test-secret", time.Hour)
			svc := NewAuthService(repo, maker)
			tt.setupMocks(repo)

			token, role, err := svc.Login(context.Background(), "testuser", tt.rawPassword)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user", role)

			// Выданный токен валиден и содержит UID
			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, "uid-1", claims.UserUID)
			repo.AssertExpectations(t)
		})
	}
}

func TestAuth_ValidateToken(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	svc := NewAuthService(new(RepoMock), maker)

	token, err := maker.GenerateToken("testuser", "admin", "uid-1")
	require.NoError(t, err)

	gotUser, role, valid, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "admin", role)
	assert.Equal(t, "uid-1", gotUser.UID)

	_, _, _, err = svc.ValidateToken(context.Background(), "not-a-token")
	require.Error(t, err)
}
