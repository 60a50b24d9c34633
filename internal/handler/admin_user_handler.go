package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"techdesk/internal/model"
	"techdesk/internal/repository"
	"techdesk/internal/service"
)

// AdminUserHandler is the back-office surface over accounts: filtered and
// searchable lists, fieldset-grouped detail forms, add form with password
// confirmation.
type AdminUserHandler struct {
	svc service.UserService
}

// NewAdminUserHandler creates the back-office user handler.
func NewAdminUserHandler(svc service.UserService) *AdminUserHandler {
	return &AdminUserHandler{svc: svc}
}

// AdminField is one field in a fieldset.
type AdminField struct {
	Name     string      `json:"name"`
	Value    interface{} `json:"value"`
	ReadOnly bool        `json:"read_only,omitempty"`
}

// Fieldset groups form fields the way the edit form renders them.
type Fieldset struct {
	Title    string       `json:"title,omitempty"`
	Collapse bool         `json:"collapse,omitempty"`
	Fields   []AdminField `json:"fields"`
}

// AdminUserRow is one row of the back-office user list.
type AdminUserRow struct {
	ID                   uint       `json:"id"`
	Email                string     `json:"email"`
	Username             string     `json:"username"`
	FirstName            string     `json:"first_name"`
	LastName             string     `json:"last_name"`
	IsActive             bool       `json:"is_active"`
	IsStaff              bool       `json:"is_staff"`
	IsSuperuser          bool       `json:"is_superuser"`
	DateJoined           time.Time  `json:"date_joined"`
	LastLogin            *time.Time `json:"last_login"`
	HasTechnicienProfile bool       `json:"has_technicien_profile"`
}

// AdminCreateUserRequest mirrors the add form: reduced field set with two
// password-confirmation fields.
type AdminCreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password1 string `json:"password1" validate:"required,min=6"`
	Password2 string `json:"password2" validate:"required,eqfield=Password1"`
	IsStaff   bool   `json:"is_staff"`
	IsActive  *bool  `json:"is_active"`
}

// AdminUpdateUserRequest mirrors the edit form: identity, personal info and
// permissions. Timestamps are read-only and not accepted.
type AdminUpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	Username    *string `json:"username"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	IsActive    *bool   `json:"is_active"`
	IsStaff     *bool   `json:"is_staff"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// List godoc
// @Summary Back-office user list
// @Tags admin
// @Produce json
// @Param is_active query bool false "Filter by active flag"
// @Param is_staff query bool false "Filter by staff flag"
// @Param is_superuser query bool false "Filter by superuser flag"
// @Param joined_after query string false "date_joined lower bound (RFC3339 or YYYY-MM-DD)"
// @Param joined_before query string false "date_joined upper bound"
// @Param last_login_after query string false "last_login lower bound"
// @Param last_login_before query string false "last_login upper bound"
// @Param q query string false "Search email, username, first and last name"
// @Param ordering query string false "Column, '-' prefix for descending (default email)"
// @Success 200 {array} AdminUserRow
// @Security BearerAuth
// @Router /admin/users [get]
func (h *AdminUserHandler) List(c echo.Context) error {
	q := newQueryParams(c)
	opts := repository.UserListOptions{
		IsActive:        q.Bool("is_active"),
		IsStaff:         q.Bool("is_staff"),
		IsSuperuser:     q.Bool("is_superuser"),
		JoinedAfter:     q.Time("joined_after"),
		JoinedBefore:    q.Time("joined_before"),
		LastLoginAfter:  q.Time("last_login_after"),
		LastLoginBefore: q.Time("last_login_before"),
		Search:          c.QueryParam("q"),
		Ordering:        c.QueryParam("ordering"),
	}
	if err := q.Err(); err != nil {
		return err
	}

	users, err := h.svc.ListUsers(c.Request().Context(), opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	rows := make([]AdminUserRow, 0, len(users))
	for i := range users {
		rows = append(rows, adminUserRow(&users[i]))
	}
	return c.JSON(http.StatusOK, rows)
}

// Get godoc
// @Summary Back-office user detail, grouped into fieldsets
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (h *AdminUserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":        user.ID,
		"fieldsets": userFieldsets(user),
	})
}

// Create godoc
// @Summary Back-office add user
// @Tags admin
// @Accept json
// @Produce json
// @Param user body AdminCreateUserRequest true "Add form"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/users [post]
func (h *AdminUserHandler) Create(c echo.Context) error {
	var req AdminCreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := &model.User{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsStaff:   req.IsStaff,
		IsActive:  true,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	created, err := h.svc.CreateUser(c.Request().Context(), user, req.Password1)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// Update godoc
// @Summary Back-office edit user
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param user body AdminUpdateUserRequest true "Edit form"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (h *AdminUserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req AdminUpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.svc.UpdateUser(c.Request().Context(), id, func(u *model.User) {
		if req.Email != nil {
			u.Email = *req.Email
		}
		if req.Username != nil {
			u.Username = *req.Username
		}
		if req.FirstName != nil {
			u.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			u.LastName = *req.LastName
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if req.IsStaff != nil {
			u.IsStaff = *req.IsStaff
		}
		if req.IsSuperuser != nil {
			u.IsSuperuser = *req.IsSuperuser
		}
	})
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete godoc
// @Summary Back-office delete user (cascades to its technician profile)
// @Tags admin
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *AdminUserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return mapServiceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func adminUserRow(u *model.User) AdminUserRow {
	return AdminUserRow{
		ID:                   u.ID,
		Email:                u.Email,
		Username:             u.Username,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		IsActive:             u.IsActive,
		IsStaff:              u.IsStaff,
		IsSuperuser:          u.IsSuperuser,
		DateJoined:           u.DateJoined,
		LastLogin:            u.LastLogin,
		HasTechnicienProfile: u.HasTechnicienProfile(),
	}
}

func userFieldsets(u *model.User) []Fieldset {
	return []Fieldset{
		{
			Fields: []AdminField{
				{Name: "email", Value: u.Email},
				{Name: "username", Value: u.Username},
			},
		},
		{
			Title: "Informations personnelles",
			Fields: []AdminField{
				{Name: "first_name", Value: u.FirstName},
				{Name: "last_name", Value: u.LastName},
			},
		},
		{
			Title: "Permissions",
			Fields: []AdminField{
				{Name: "is_active", Value: u.IsActive},
				{Name: "is_staff", Value: u.IsStaff},
				{Name: "is_superuser", Value: u.IsSuperuser},
			},
		},
		{
			Title: "Dates importantes",
			Fields: []AdminField{
				{Name: "last_login", Value: u.LastLogin, ReadOnly: true},
				{Name: "date_joined", Value: u.DateJoined, ReadOnly: true},
				{Name: "created_at", Value: u.CreatedAt, ReadOnly: true},
				{Name: "updated_at", Value: u.UpdatedAt, ReadOnly: true},
			},
		},
	}
}
