package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "techdesk/internal/errors"
	"techdesk/internal/model"
	"techdesk/internal/repository"
)

// TechnicienService exposes technician profile operations.
//
// Create and Update are not pure writes: attaching or editing a profile
// promotes the owning user to staff. Both writes run in one transaction so
// a failed profile write never leaves a half-promoted user.
type TechnicienService interface {
	Create(ctx context.Context, t *model.Technicien) (*model.Technicien, error)
	Update(ctx context.Context, t *model.Technicien) (*model.Technicien, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*model.Technicien, error)
	GetByUserID(ctx context.Context, userID uint) (*model.Technicien, error)
	List(ctx context.Context, opts repository.TechnicienListOptions) ([]model.Technicien, error)
	// MarkDisponible and MarkIndisponible are the back-office bulk actions.
	// Both return the number of selected rows and an operator message.
	MarkDisponible(ctx context.Context, ids []uint) (int64, string, error)
	MarkIndisponible(ctx context.Context, ids []uint) (int64, string, error)
}

type technicienService struct {
	repo     repository.TechnicienRepository
	userRepo repository.UserRepository
	cache    Cache
}

// NewTechnicienService builds a TechnicienService. The cache may be nil;
// when set, the owner's cached account is dropped on every profile write so
// the staff flag and profile presence read back fresh.
func NewTechnicienService(repo repository.TechnicienRepository, userRepo repository.UserRepository, cache Cache) TechnicienService {
	return &technicienService{repo: repo, userRepo: userRepo, cache: cache}
}

func (s *technicienService) invalidateOwner(ctx context.Context, userID uint) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, userCacheKey(userID))
	}
}

func (s *technicienService) Create(ctx context.Context, t *model.Technicien) (*model.Technicien, error) {
	if _, err := s.userRepo.FindByID(ctx, t.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	if existing, err := s.repo.FindByUserID(ctx, t.UserID); err == nil && existing != nil {
		return nil, apperrors.ErrProfileExists
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.TechnicienRepository) error {
		if err := txRepo.PromoteOwner(ctx, t.UserID); err != nil {
			return fmt.Errorf("promote owner: %w", err)
		}
		return txRepo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateOwner(ctx, t.UserID)
	return s.repo.FindByID(ctx, t.ID)
}

func (s *technicienService) Update(ctx context.Context, t *model.Technicien) (*model.Technicien, error) {
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.TechnicienRepository) error {
		if err := txRepo.PromoteOwner(ctx, t.UserID); err != nil {
			return fmt.Errorf("promote owner: %w", err)
		}
		return txRepo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateOwner(ctx, t.UserID)
	return s.repo.FindByID(ctx, t.ID)
}

// Delete removes the profile only; the owning user is kept, staff flag
// included.
func (s *technicienService) Delete(ctx context.Context, id uint) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	// The owner's cached account still embeds the deleted profile.
	s.invalidateOwner(ctx, t.UserID)
	return nil
}

func (s *technicienService) Get(ctx context.Context, id uint) (*model.Technicien, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTechnicienNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *technicienService) GetByUserID(ctx context.Context, userID uint) (*model.Technicien, error) {
	t, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTechnicienNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *technicienService) List(ctx context.Context, opts repository.TechnicienListOptions) ([]model.Technicien, error) {
	return s.repo.List(ctx, opts)
}

func (s *technicienService) MarkDisponible(ctx context.Context, ids []uint) (int64, string, error) {
	n, err := s.setDisponibilite(ctx, ids, true)
	if err != nil {
		return 0, "", err
	}
	return n, fmt.Sprintf("%d technicien(s) marqué(s) comme disponible(s).", n), nil
}

func (s *technicienService) MarkIndisponible(ctx context.Context, ids []uint) (int64, string, error) {
	n, err := s.setDisponibilite(ctx, ids, false)
	if err != nil {
		return 0, "", err
	}
	return n, fmt.Sprintf("%d technicien(s) marqué(s) comme indisponible(s).", n), nil
}

func (s *technicienService) setDisponibilite(ctx context.Context, ids []uint, available bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.SetDisponibilite(ctx, ids, available)
}
