package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "techdesk/internal/errors"
	"techdesk/internal/model"
)

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hashed)
}

func TestUserService_CreateUser(t *testing.T) {
	t.Run("success hashes the password", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

		svc := NewUserService(mockRepo, nil)
		created, err := svc.CreateUser(context.Background(), &model.User{Email: "new@example.com", Username: "new"}, "secret123")

		assert.NoError(t, err)
		assert.NotEmpty(t, created.PasswordHash)
		assert.NotEqual(t, "secret123", created.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret123")))
		assert.False(t, created.DateJoined.IsZero())
		mockRepo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{ID: 1, Email: "taken@example.com"}, nil)

		svc := NewUserService(mockRepo, nil)
		_, err := svc.CreateUser(context.Background(), &model.User{Email: "taken@example.com"}, "secret123")

		assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUserService_GetUser(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Email: "a@example.com"}, nil)

		svc := NewUserService(mockRepo, nil)
		user, err := svc.GetUser(context.Background(), 1)

		assert.NoError(t, err)
		assert.Equal(t, "a@example.com", user.Email)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

		svc := NewUserService(mockRepo, nil)
		_, err := svc.GetUser(context.Background(), 404)

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		user := &model.User{ID: 1, PasswordHash: hashOf(t, "old-pass")}
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(user, nil)
		mockRepo.On("Update", mock.Anything, user).Return(nil)

		svc := NewUserService(mockRepo, nil)
		err := svc.ChangePassword(context.Background(), 1, "old-pass", "new-pass")

		assert.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-pass")))
		mockRepo.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, PasswordHash: hashOf(t, "old-pass")}, nil)

		svc := NewUserService(mockRepo, nil)
		err := svc.ChangePassword(context.Background(), 1, "not-the-password", "new-pass")

		assert.ErrorIs(t, err, ErrWrongPassword)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Run("applies mutation to the stored row", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		stored := &model.User{ID: 1, Email: "a@example.com", PasswordHash: hashOf(t, "secret")}
		mockRepo.On("FindByID", mock.Anything, uint(1)).Return(stored, nil)
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.FirstName == "Jean" && u.PasswordHash != ""
		})).Return(nil)

		mockCache := new(MockCache)
		mockCache.On("Delete", mock.Anything, "user:1").Return(nil)

		svc := NewUserService(mockRepo, mockCache)
		updated, err := svc.UpdateUser(context.Background(), 1, func(u *model.User) {
			u.FirstName = "Jean"
		})

		assert.NoError(t, err)
		assert.Equal(t, "Jean", updated.FirstName)
		assert.Equal(t, stored.PasswordHash, updated.PasswordHash)
		mockRepo.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

		svc := NewUserService(mockRepo, nil)
		_, err := svc.UpdateUser(context.Background(), 404, func(u *model.User) {})

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestUserService_UpdateKeepsPasswordHashAfterCachedRead(t *testing.T) {
	// Cached payloads are JSON and the hash is json:"-", so a cache hit
	// returns a hashless copy. A following update must still save the
	// stored hash, not the blank one.
	stored := &model.User{ID: 1, Email: "a@example.com", PasswordHash: hashOf(t, "secret")}
	payload, err := json.Marshal(stored)
	assert.NoError(t, err)

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByID", mock.Anything, uint(1)).Return(stored, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.PasswordHash == stored.PasswordHash
	})).Return(nil)

	mockCache := new(MockCache)
	mockCache.On("Get", mock.Anything, "user:1").Return(payload, nil)
	mockCache.On("Delete", mock.Anything, "user:1").Return(nil)

	svc := NewUserService(mockRepo, mockCache)

	cached, err := svc.GetUser(context.Background(), 1)
	assert.NoError(t, err)
	assert.Empty(t, cached.PasswordHash)

	updated, err := svc.UpdateUser(context.Background(), 1, func(u *model.User) {
		u.LastName = "Dupont"
	})
	assert.NoError(t, err)
	assert.Equal(t, stored.PasswordHash, updated.PasswordHash)
	mockRepo.AssertExpectations(t)
}

func TestUserService_Deactivate(t *testing.T) {
	mockRepo := new(MockUserRepository)
	user := &model.User{ID: 2, IsActive: true}
	mockRepo.On("FindByID", mock.Anything, uint(2)).Return(user, nil)
	mockRepo.On("Update", mock.Anything, user).Return(nil)

	svc := NewUserService(mockRepo, nil)
	assert.NoError(t, svc.Deactivate(context.Background(), 2))
	assert.False(t, user.IsActive)
	mockRepo.AssertExpectations(t)
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(3)).Return(&model.User{ID: 3}, nil)
		mockRepo.On("Delete", mock.Anything, uint(3)).Return(nil)

		svc := NewUserService(mockRepo, nil)
		assert.NoError(t, svc.DeleteUser(context.Background(), 3))
		mockRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

		svc := NewUserService(mockRepo, nil)
		err := svc.DeleteUser(context.Background(), 404)

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
