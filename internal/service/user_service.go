package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "techdesk/internal/errors"
	"techdesk/internal/model"
	"techdesk/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// ErrWrongPassword is returned when the current password does not match.
var ErrWrongPassword = errors.New("current password is incorrect")

// Cache is the cache surface the services use. *cache.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// userCacheKey is the cache key for one account. Cached payloads are JSON,
// so they never contain the password hash and serve reads only.
func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// UserService exposes account operations for the API and the back-office.
type UserService interface {
	CreateUser(ctx context.Context, user *model.User, password string) (*model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context, opts repository.UserListOptions) ([]model.User, error)
	// UpdateUser loads the stored row, applies the mutation and saves it.
	// The row always comes from the repository: cached copies lack the
	// password hash, so feeding one into a save would blank it.
	UpdateUser(ctx context.Context, id uint, apply func(*model.User)) (*model.User, error)
	// DeleteUser removes the account and cascades to its technician profile.
	DeleteUser(ctx context.Context, id uint) error
	ChangePassword(ctx context.Context, id uint, oldPassword, newPassword string) error
	// Deactivate soft-disables an account; nothing is deleted.
	Deactivate(ctx context.Context, id uint) error
}

type userService struct {
	repo  repository.UserRepository
	cache Cache
}

// NewUserService builds a UserService with repository and cache. The cache
// may be nil when no redis is configured.
func NewUserService(repo repository.UserRepository, cache Cache) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) invalidate(ctx context.Context, id uint) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, userCacheKey(id))
	}
}

func (s *userService) CreateUser(ctx context.Context, user *model.User, password string) (*model.User, error) {
	existing, err := s.repo.FindByEmail(ctx, user.Email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now()
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.invalidate(ctx, user.ID)
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	if s.cache != nil {
		if data, _ := s.cache.Get(ctx, userCacheKey(id)); data != nil {
			var cached model.User
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(user); err == nil {
			_ = s.cache.Set(ctx, userCacheKey(id), payload, userCacheTTL)
		}
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, opts repository.UserListOptions) ([]model.User, error) {
	return s.repo.List(ctx, opts)
}

func (s *userService) UpdateUser(ctx context.Context, id uint, apply func(*model.User)) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	apply(user)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *userService) ChangePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)

	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *userService) Deactivate(ctx context.Context, id uint) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return err
	}
	user.IsActive = false
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}
