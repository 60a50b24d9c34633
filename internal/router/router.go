package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"techdesk/internal/auth"
	"techdesk/internal/config"
	"techdesk/internal/handler"

	"github.com/golang-jwt/jwt/v4"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	technicienHandler *handler.TechnicienHandler,
	adminSiteHandler *handler.AdminSiteHandler,
	adminUserHandler *handler.AdminUserHandler,
	adminTechnicienHandler *handler.AdminTechnicienHandler,
) {
	// Legacy clients send trailing slashes on every URL.
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Token endpoints and registration are public.
	api.POST("/login", authHandler.Login)
	api.POST("/refresh", authHandler.Refresh)
	api.POST("/verify", authHandler.Verify)
	api.POST("/register", authHandler.Register)

	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
	})

	// Authenticated routes.
	secured := api.Group("", jwtMiddleware)

	secured.POST("/logout", authHandler.Logout)
	secured.GET("/me", userHandler.Me)
	secured.PATCH("/me", userHandler.UpdateMe)
	secured.POST("/change-password", userHandler.ChangePassword)
	secured.DELETE("/delete-account", userHandler.DeleteAccount)

	secured.GET("/users", userHandler.ListUsers)
	secured.POST("/users", userHandler.CreateUser)
	secured.GET("/users/:id", userHandler.GetUser)
	secured.PUT("/users/:id", userHandler.UpdateUser)
	secured.PATCH("/users/:id", userHandler.UpdateUser)
	secured.DELETE("/users/:id", userHandler.DeleteUser)

	secured.GET("/techniciens", technicienHandler.ListTechniciens)
	secured.POST("/techniciens", technicienHandler.CreateTechnicien)
	secured.GET("/techniciens/:id", technicienHandler.GetTechnicien)
	secured.PUT("/techniciens/:id", technicienHandler.UpdateTechnicien)
	secured.PATCH("/techniciens/:id", technicienHandler.UpdateTechnicien)
	secured.DELETE("/techniciens/:id", technicienHandler.DeleteTechnicien)
	secured.POST("/techniciens/:id/photo", technicienHandler.UploadPhoto)

	// Back-office routes require the staff flag on top of a valid token.
	admin := api.Group("/admin", jwtMiddleware, staffRequired)

	admin.GET("/site", adminSiteHandler.Site)

	admin.GET("/users", adminUserHandler.List)
	admin.POST("/users", adminUserHandler.Create)
	admin.GET("/users/:id", adminUserHandler.Get)
	admin.PUT("/users/:id", adminUserHandler.Update)
	admin.DELETE("/users/:id", adminUserHandler.Delete)

	admin.GET("/techniciens", adminTechnicienHandler.List)
	admin.POST("/techniciens", adminTechnicienHandler.Create)
	admin.GET("/techniciens/:id", adminTechnicienHandler.Get)
	admin.PUT("/techniciens/:id", adminTechnicienHandler.Update)
	admin.DELETE("/techniciens/:id", adminTechnicienHandler.Delete)
	admin.PATCH("/techniciens/:id/disponibilite", adminTechnicienHandler.SetDisponibilite)
	admin.POST("/techniciens/actions/marquer-disponible", adminTechnicienHandler.MarkDisponible)
	admin.POST("/techniciens/actions/marquer-indisponible", adminTechnicienHandler.MarkIndisponible)
}

// staffRequired rejects tokens whose user is not staff.
func staffRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}
		claims, ok := token.Claims.(*auth.Claims)
		if !ok || !claims.IsStaff {
			return echo.NewHTTPError(http.StatusForbidden, "staff access required")
		}
		return next(c)
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
