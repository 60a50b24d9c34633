package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"techdesk/internal/auth"
	apperrors "techdesk/internal/errors"
	"techdesk/internal/model"
)

func activeUser(id uint, email, password string) *model.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), 10)
	return &model.User{
		ID:           id,
		Email:        email,
		Username:     "user",
		PasswordHash: string(hashed),
		IsActive:     true,
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		username      string
		setupMock     func(*MockUserRepository, *MockTokenStore)
		expectedError error
		wantUsername  string
	}{
		{
			name:     "successful registration",
			email:    "test@example.com",
			username: "tester",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
				mRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mToken.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, "test@example.com", mock.Anything).Return(nil)
			},
			wantUsername: "tester",
		},
		{
			name:  "username derived from email local part",
			email: "derive.me@example.com",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "derive.me@example.com").Return(nil, gorm.ErrRecordNotFound)
				mRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mToken.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, "derive.me@example.com", mock.Anything).Return(nil)
			},
			wantUsername: "derive.me",
		},
		{
			name:  "email already registered",
			email: "existing@example.com",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{Email: "existing@example.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockTokenStore := new(MockTokenStore)
			tt.setupMock(mockRepo, mockTokenStore)

			jwtService := auth.NewJWTService("test-secret")
			svc := NewAuthService(mockRepo, jwtService, mockTokenStore)

			user, pair, err := svc.Register(context.Background(), tt.email, "password123", tt.username, "", "")

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				assert.Nil(t, pair)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, tt.email, user.Email)
				assert.Equal(t, tt.wantUsername, user.Username)
				assert.True(t, user.IsActive)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEmpty(t, pair.Access)
				assert.NotEmpty(t, pair.Refresh)
			}

			mockRepo.AssertExpectations(t)
			mockTokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(activeUser(1, "test@example.com", "password123"), nil)
				mRepo.On("UpdateLastLogin", mock.Anything, uint(1), mock.AnythingOfType("time.Time")).Return(nil)
				mToken.On("StoreRefreshToken", mock.Anything, mock.Anything, uint(1), "test@example.com", mock.Anything).Return(nil)
			},
		},
		{
			name:     "user not found",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "wrong-password",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(activeUser(1, "test@example.com", "password123"), nil)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "disabled account",
			email:    "off@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				user := activeUser(2, "off@example.com", "password123")
				user.IsActive = false
				mRepo.On("FindByEmail", mock.Anything, "off@example.com").Return(user, nil)
			},
			expectedError: apperrors.ErrUserInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockTokenStore := new(MockTokenStore)
			tt.setupMock(mockRepo, mockTokenStore)

			jwtService := auth.NewJWTService("test-secret")
			svc := NewAuthService(mockRepo, jwtService, mockTokenStore)

			pair, user, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, pair)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, pair.Access)
				assert.NotEmpty(t, pair.Refresh)
				assert.NotNil(t, user)
				assert.Equal(t, tt.email, user.Email)
				assert.NotNil(t, user.LastLogin)
			}

			mockRepo.AssertExpectations(t)
			mockTokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_Refresh(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")

	t.Run("valid refresh token yields a new access token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockTokenStore := new(MockTokenStore)

		tokenID, refresh, err := jwtService.GenerateRefreshToken(1, "test@example.com")
		assert.NoError(t, err)

		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(1), "test@example.com", nil)
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(activeUser(1, "test@example.com", "password123"), nil)

		svc := NewAuthService(mockRepo, jwtService, mockTokenStore)
		access, err := svc.Refresh(context.Background(), refresh)

		assert.NoError(t, err)
		assert.NotEmpty(t, access)

		claims, err := jwtService.ValidateToken(access)
		assert.NoError(t, err)
		assert.Equal(t, uint(1), claims.UserID)

		mockRepo.AssertExpectations(t)
		mockTokenStore.AssertExpectations(t)
	})

	t.Run("revoked refresh token is rejected", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockTokenStore := new(MockTokenStore)

		tokenID, refresh, err := jwtService.GenerateRefreshToken(1, "test@example.com")
		assert.NoError(t, err)

		mockTokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uint(0), "", assert.AnError)

		svc := NewAuthService(mockRepo, jwtService, mockTokenStore)
		_, err = svc.Refresh(context.Background(), refresh)

		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepository), jwtService, new(MockTokenStore))
		_, err := svc.Refresh(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestAuthService_Verify(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	svc := NewAuthService(new(MockUserRepository), jwtService, new(MockTokenStore))

	access, err := jwtService.GenerateAccessToken(1, "test@example.com", false)
	assert.NoError(t, err)

	assert.NoError(t, svc.Verify(context.Background(), access))
	assert.ErrorIs(t, svc.Verify(context.Background(), "not-a-token"), ErrInvalidToken)

	otherService := auth.NewJWTService("other-secret")
	foreign, err := otherService.GenerateAccessToken(1, "test@example.com", false)
	assert.NoError(t, err)
	assert.ErrorIs(t, svc.Verify(context.Background(), foreign), ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	mockTokenStore := new(MockTokenStore)

	tokenID, refresh, err := jwtService.GenerateRefreshToken(1, "test@example.com")
	assert.NoError(t, err)
	mockTokenStore.On("DeleteRefreshToken", mock.Anything, tokenID).Return(nil)

	svc := NewAuthService(new(MockUserRepository), jwtService, mockTokenStore)
	assert.NoError(t, svc.Logout(context.Background(), refresh))

	mockTokenStore.AssertExpectations(t)
}

func TestJWTClaimsCarryStaffFlag(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")

	access, err := jwtService.GenerateAccessToken(7, "staff@example.com", true)
	assert.NoError(t, err)

	claims, err := jwtService.ValidateToken(access)
	assert.NoError(t, err)
	assert.True(t, claims.IsStaff)
	assert.Equal(t, "staff@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(auth.AccessTokenExpiry), claims.ExpiresAt.Time, time.Minute)
}
