package main

import (
	"context"
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"techdesk/internal/config"
	"techdesk/internal/db"
	"techdesk/internal/model"
	"techdesk/internal/repository"
	"techdesk/internal/service"
)

// seedUser describes one account to create, optionally with a technician
// profile attached.
type seedUser struct {
	Email       string
	Username    string
	FirstName   string
	LastName    string
	Password    string
	IsStaff     bool
	IsSuperuser bool
	Technicien  *model.Technicien
}

func experience(years uint) *uint { return &years }

var seedUsers = []seedUser{
	{
		Email:       "admin@example.com",
		Username:    "admin",
		Password:    "AdminPassword123",
		IsStaff:     true,
		IsSuperuser: true,
	},
	{
		Email:     "martin.dupont@example.com",
		Username:  "martin.dupont",
		FirstName: "Martin",
		LastName:  "Dupont",
		Password:  "Password123",
		Technicien: &model.Technicien{
			Nom:           "Dupont",
			Prenom:        "Martin",
			Telephone:     "+33612345678",
			Adresse:       "12 rue de la République, Lyon",
			Experience:    experience(5),
			Disponibilite: true,
		},
	},
	{
		Email:     "claire.martin@example.com",
		Username:  "claire.martin",
		FirstName: "Claire",
		LastName:  "Martin",
		Password:  "Password123",
		Technicien: &model.Technicien{
			Nom:           "Martin",
			Prenom:        "Claire",
			Telephone:     "+33698765432",
			Adresse:       "4 avenue Victor Hugo, Paris",
			Experience:    experience(12),
			Disponibilite: false,
		},
	},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	technicienRepo := repository.NewTechnicienRepository(gormDB)
	technicienService := service.NewTechnicienService(technicienRepo, userRepo, nil)
	ctx := context.Background()

	created, skipped := 0, 0
	for _, entry := range seedUsers {
		user, err := seedOne(ctx, userRepo, technicienService, entry)
		if err != nil {
			log.Fatalf("Failed to seed %s: %v", entry.Email, err)
		}
		if user == nil {
			skipped++
			continue
		}
		created++
	}

	log.Printf("Seed completed: %d created, %d already present", created, skipped)
}

// seedOne creates a user and its optional technician profile. Existing
// emails are skipped so the script can be re-run.
func seedOne(ctx context.Context, userRepo repository.UserRepository, techniciens service.TechnicienService, entry seedUser) (*model.User, error) {
	if existing, err := userRepo.FindByEmail(ctx, entry.Email); err == nil && existing != nil {
		log.Printf("User %s already exists, skipping", entry.Email)
		return nil, nil
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(entry.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        entry.Email,
		Username:     entry.Username,
		FirstName:    entry.FirstName,
		LastName:     entry.LastName,
		PasswordHash: string(hashed),
		IsActive:     true,
		IsStaff:      entry.IsStaff,
		IsSuperuser:  entry.IsSuperuser,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("Created user %s", user.Email)

	if entry.Technicien != nil {
		entry.Technicien.UserID = user.ID
		if _, err := techniciens.Create(ctx, entry.Technicien); err != nil {
			return nil, err
		}
		log.Printf("Attached technician profile for %s", user.Email)
	}
	return user, nil
}
