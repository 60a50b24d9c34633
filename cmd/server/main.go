package main

import (
	"log"
	"net/http"

	"techdesk/docs"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"techdesk/internal/auth"
	"techdesk/internal/cache"
	"techdesk/internal/config"
	"techdesk/internal/db"
	"techdesk/internal/handler"
	"techdesk/internal/repository"
	"techdesk/internal/router"
	"techdesk/internal/service"
	"techdesk/internal/storage"
)

// @title Technician Back-Office API
// @version 1.0
// @description User-account and technician-profile management with a JSON back-office and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	photoStore, err := storage.NewPhotoStore(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioBucket,
		cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("photo store init: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	technicienRepo := repository.NewTechnicienRepository(gormDB)

	// Auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, cacheClient)
	technicienService := service.NewTechnicienService(technicienRepo, userRepo, cacheClient)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	technicienHandler := handler.NewTechnicienHandler(technicienService, photoStore)
	adminSiteHandler := handler.NewAdminSiteHandler(cfg)
	adminUserHandler := handler.NewAdminUserHandler(userService)
	adminTechnicienHandler := handler.NewAdminTechnicienHandler(technicienService, photoStore)

	router.Register(
		e,
		cfg,
		authHandler,
		userHandler,
		technicienHandler,
		adminSiteHandler,
		adminUserHandler,
		adminTechnicienHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
