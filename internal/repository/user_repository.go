package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"techdesk/internal/model"
)

// UserListOptions narrows and orders the admin user list.
type UserListOptions struct {
	IsActive        *bool
	IsStaff         *bool
	IsSuperuser     *bool
	JoinedAfter     *time.Time
	JoinedBefore    *time.Time
	LastLoginAfter  *time.Time
	LastLoginBefore *time.Time
	// Search matches email, username, first and last name.
	Search string
	// Ordering is a column name, "-" prefix for descending. Unknown
	// columns fall back to the default email ascending.
	Ordering string
}

// userOrderColumns whitelists sortable columns.
var userOrderColumns = map[string]string{
	"email":       "email",
	"username":    "username",
	"first_name":  "first_name",
	"last_name":   "last_name",
	"date_joined": "date_joined",
	"last_login":  "last_login",
	"created_at":  "created_at",
}

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	// Delete removes the user and its technician profile in one transaction.
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, opts UserListOptions) ([]model.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	// The FK already cascades on MySQL; the explicit double delete keeps the
	// invariant independent of the engine the tests run against.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.Technicien{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, id).Error
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Technicien").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Technicien").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, opts UserListOptions) ([]model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{}).Preload("Technicien")

	if opts.IsActive != nil {
		q = q.Where("is_active = ?", *opts.IsActive)
	}
	if opts.IsStaff != nil {
		q = q.Where("is_staff = ?", *opts.IsStaff)
	}
	if opts.IsSuperuser != nil {
		q = q.Where("is_superuser = ?", *opts.IsSuperuser)
	}
	if opts.JoinedAfter != nil {
		q = q.Where("date_joined >= ?", *opts.JoinedAfter)
	}
	if opts.JoinedBefore != nil {
		q = q.Where("date_joined <= ?", *opts.JoinedBefore)
	}
	if opts.LastLoginAfter != nil {
		q = q.Where("last_login >= ?", *opts.LastLoginAfter)
	}
	if opts.LastLoginBefore != nil {
		q = q.Where("last_login <= ?", *opts.LastLoginBefore)
	}
	if s := strings.TrimSpace(opts.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where(
			"email LIKE ? OR username LIKE ? OR first_name LIKE ? OR last_name LIKE ?",
			like, like, like, like,
		)
	}

	q = q.Order(orderClause(opts.Ordering, userOrderColumns, "email ASC"))

	var users []model.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error
}

// orderClause resolves a requested ordering against a whitelist.
func orderClause(requested string, columns map[string]string, def string) string {
	name := strings.TrimSpace(requested)
	dir := "ASC"
	if strings.HasPrefix(name, "-") {
		name = name[1:]
		dir = "DESC"
	}
	col, ok := columns[name]
	if !ok {
		return def
	}
	return col + " " + dir
}
