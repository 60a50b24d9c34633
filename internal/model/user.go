package model

import (
	"strings"
	"time"
)

// User is the account identity. Login is by email, not username.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Username     string     `json:"username" gorm:"size:150;not null;index"`
	FirstName    string     `json:"first_name" gorm:"size:150"`
	LastName     string     `json:"last_name" gorm:"size:150"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	IsActive     bool       `json:"is_active" gorm:"default:true;index"`
	IsStaff      bool       `json:"is_staff" gorm:"default:false;index"`
	IsSuperuser  bool       `json:"is_superuser" gorm:"default:false;index"`
	LastLogin    *time.Time `json:"last_login"`
	DateJoined   time.Time  `json:"date_joined" gorm:"autoCreateTime"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Technicien *Technicien `json:"technicien,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the historical table name from the previous system.
func (User) TableName() string {
	return "auth_user"
}

// FullName returns "{first} {last}" trimmed, falling back to the username.
func (u *User) FullName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

// HasTechnicienProfile reports whether a technician profile is attached.
// Only meaningful when the relation was loaded.
func (u *User) HasTechnicienProfile() bool {
	return u.Technicien != nil
}
