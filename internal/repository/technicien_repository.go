package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"techdesk/internal/model"
)

// TechnicienListOptions narrows and orders the admin technician list.
type TechnicienListOptions struct {
	Disponibilite *bool
	Experience    *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time
	// Search matches nom, prenom, telephone and the owner's email/username.
	Search string
	// Ordering is a column name, "-" prefix for descending.
	Ordering string
}

var technicienOrderColumns = map[string]string{
	"nom":           "nom",
	"prenom":        "prenom",
	"experience":    "experience",
	"disponibilite": "disponibilite",
	"created_at":    "technicien.created_at",
	"updated_at":    "technicien.updated_at",
}

// TechnicienRepository defines persistence operations for technician
// profiles. Reads always join the owning user so list rendering never
// issues one query per row.
type TechnicienRepository interface {
	Create(ctx context.Context, t *model.Technicien) error
	Update(ctx context.Context, t *model.Technicien) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Technicien, error)
	FindByUserID(ctx context.Context, userID uint) (*model.Technicien, error)
	List(ctx context.Context, opts TechnicienListOptions) ([]model.Technicien, error)
	// SetDisponibilite flips the flag on every selected row and returns how
	// many rows the selection matched at action time.
	SetDisponibilite(ctx context.Context, ids []uint, available bool) (int64, error)
	// PromoteOwner marks the owning user as staff.
	PromoteOwner(ctx context.Context, userID uint) error
	// WithTransaction runs fn against a repository bound to one transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TechnicienRepository) error) error
}

type technicienRepository struct {
	db *gorm.DB
}

// NewTechnicienRepository builds a GORM-backed repository.
func NewTechnicienRepository(db *gorm.DB) TechnicienRepository {
	return &technicienRepository{db: db}
}

func (r *technicienRepository) Create(ctx context.Context, t *model.Technicien) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *technicienRepository) Update(ctx context.Context, t *model.Technicien) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *technicienRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Technicien{}, id).Error
}

func (r *technicienRepository) FindByID(ctx context.Context, id uint) (*model.Technicien, error) {
	var t model.Technicien
	if err := r.db.WithContext(ctx).Joins("User").First(&t, "technicien.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *technicienRepository) FindByUserID(ctx context.Context, userID uint) (*model.Technicien, error) {
	var t model.Technicien
	if err := r.db.WithContext(ctx).Joins("User").Where("technicien.user_id = ?", userID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *technicienRepository) List(ctx context.Context, opts TechnicienListOptions) ([]model.Technicien, error) {
	q := r.db.WithContext(ctx).Model(&model.Technicien{}).Joins("User")

	if opts.Disponibilite != nil {
		q = q.Where("technicien.disponibilite = ?", *opts.Disponibilite)
	}
	if opts.Experience != nil {
		q = q.Where("technicien.experience = ?", *opts.Experience)
	}
	if opts.CreatedAfter != nil {
		q = q.Where("technicien.created_at >= ?", *opts.CreatedAfter)
	}
	if opts.CreatedBefore != nil {
		q = q.Where("technicien.created_at <= ?", *opts.CreatedBefore)
	}
	if opts.UpdatedAfter != nil {
		q = q.Where("technicien.updated_at >= ?", *opts.UpdatedAfter)
	}
	if opts.UpdatedBefore != nil {
		q = q.Where("technicien.updated_at <= ?", *opts.UpdatedBefore)
	}
	if s := strings.TrimSpace(opts.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where(
			"technicien.nom LIKE ? OR technicien.prenom LIKE ? OR technicien.telephone LIKE ? OR `User`.email LIKE ? OR `User`.username LIKE ?",
			like, like, like, like, like,
		)
	}

	if clause := orderClause(opts.Ordering, technicienOrderColumns, ""); clause != "" {
		q = q.Order(clause)
	} else {
		q = q.Order("nom ASC, prenom ASC")
	}

	var ts []model.Technicien
	if err := q.Find(&ts).Error; err != nil {
		return nil, err
	}
	return ts, nil
}

func (r *technicienRepository) SetDisponibilite(ctx context.Context, ids []uint, available bool) (int64, error) {
	var matched int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Count first: the reported number is rows in the selection, not
		// rows the engine decided to rewrite, so repeating the action
		// reports the same count.
		if err := tx.Model(&model.Technicien{}).Where("id IN ?", ids).Count(&matched).Error; err != nil {
			return err
		}
		return tx.Model(&model.Technicien{}).Where("id IN ?", ids).
			Update("disponibilite", available).Error
	})
	if err != nil {
		return 0, err
	}
	return matched, nil
}

func (r *technicienRepository) PromoteOwner(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("is_staff", true).Error
}

func (r *technicienRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TechnicienRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &technicienRepository{db: tx})
	})
}
