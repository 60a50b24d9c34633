package model

import (
	"strings"
	"time"
)

// FullNamePlaceholder is shown when a technician has neither nom nor prenom.
const FullNamePlaceholder = "Non défini"

// Technicien is the job profile attached one-to-one to a User.
// Persisting a Technicien always promotes its owner to staff; see
// service.TechnicienService for the transactional save.
type Technicien struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Nom           string    `json:"nom" gorm:"size:150"`
	Prenom        string    `json:"prenom" gorm:"size:150"`
	Telephone     string    `json:"telephone" gorm:"size:20"`
	Adresse       string    `json:"adresse" gorm:"size:255"`
	Experience    *uint     `json:"experience"` // years, absent when unknown
	Disponibilite bool      `json:"disponibilite" gorm:"default:true;index"`
	Photo         string    `json:"photo" gorm:"size:512"` // object key under techniciens/photos/
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName pins the table name for the technician profile.
func (Technicien) TableName() string {
	return "technicien"
}

// FullName returns "{prenom} {nom}" trimmed, or the placeholder when both
// parts are empty.
func (t *Technicien) FullName() string {
	if name := strings.TrimSpace(t.Prenom + " " + t.Nom); name != "" {
		return name
	}
	return FullNamePlaceholder
}
