package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"techdesk/internal/model"
	"techdesk/internal/repository"
	"techdesk/internal/service"
	"techdesk/internal/storage"
)

// thumbnailSize is the rendered photo size in the list view.
const thumbnailSize = 40

// photoPlaceholder is shown in place of a missing photo.
const photoPlaceholder = "Pas de photo"

// AdminTechnicienHandler is the back-office surface over technician
// profiles: computed columns, inline availability edit and bulk actions.
type AdminTechnicienHandler struct {
	svc    service.TechnicienService
	photos storage.PhotoStoreInterface
	public *TechnicienHandler
}

// NewAdminTechnicienHandler creates the back-office technician handler.
func NewAdminTechnicienHandler(svc service.TechnicienService, photos storage.PhotoStoreInterface) *AdminTechnicienHandler {
	return &AdminTechnicienHandler{
		svc:    svc,
		photos: photos,
		public: NewTechnicienHandler(svc, photos),
	}
}

// Thumbnail is the photo cell of the list view: a presigned URL when a
// photo exists, a placeholder block otherwise.
type Thumbnail struct {
	URL         string `json:"url,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Rounded     bool   `json:"rounded"`
}

// AdminTechnicienRow is one row of the back-office technician list.
type AdminTechnicienRow struct {
	ID            uint      `json:"id"`
	NomComplet    string    `json:"nom_complet"`
	UserEmail     string    `json:"user_email"`
	Telephone     string    `json:"telephone"`
	Experience    *uint     `json:"experience"`
	Disponibilite bool      `json:"disponibilite"`
	Photo         Thumbnail `json:"photo"`
	CreatedAt     time.Time `json:"created_at"`
}

// DisponibiliteRequest is the inline list edit payload.
type DisponibiliteRequest struct {
	Disponibilite *bool `json:"disponibilite" validate:"required"`
}

// BulkActionRequest selects records for a bulk action.
type BulkActionRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}

// BulkActionResponse reports the outcome to the operator.
type BulkActionResponse struct {
	Updated int64  `json:"updated"`
	Message string `json:"message"`
}

// List godoc
// @Summary Back-office technician list
// @Tags admin
// @Produce json
// @Param disponibilite query bool false "Filter by availability"
// @Param experience query int false "Filter by years of experience"
// @Param created_after query string false "created_at lower bound (RFC3339 or YYYY-MM-DD)"
// @Param created_before query string false "created_at upper bound"
// @Param updated_after query string false "updated_at lower bound"
// @Param updated_before query string false "updated_at upper bound"
// @Param q query string false "Search nom, prenom, telephone, owner email/username"
// @Param ordering query string false "Column, '-' prefix for descending (default nom, prenom)"
// @Success 200 {array} AdminTechnicienRow
// @Security BearerAuth
// @Router /admin/techniciens [get]
func (h *AdminTechnicienHandler) List(c echo.Context) error {
	q := newQueryParams(c)
	opts := repository.TechnicienListOptions{
		Disponibilite: q.Bool("disponibilite"),
		Experience:    q.Uint("experience"),
		CreatedAfter:  q.Time("created_after"),
		CreatedBefore: q.Time("created_before"),
		UpdatedAfter:  q.Time("updated_after"),
		UpdatedBefore: q.Time("updated_before"),
		Search:        c.QueryParam("q"),
		Ordering:      c.QueryParam("ordering"),
	}
	if err := q.Err(); err != nil {
		return err
	}

	ts, err := h.svc.List(c.Request().Context(), opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	rows := make([]AdminTechnicienRow, 0, len(ts))
	for i := range ts {
		rows = append(rows, h.adminRow(c, &ts[i]))
	}
	return c.JSON(http.StatusOK, rows)
}

// Get godoc
// @Summary Back-office technician detail, grouped into fieldsets
// @Tags admin
// @Produce json
// @Param id path int true "Technicien ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/techniciens/{id} [get]
func (h *AdminTechnicienHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":        t.ID,
		"fieldsets": h.technicienFieldsets(c, t),
	})
}

// Create reuses the public payload; the add form has no extra fields.
func (h *AdminTechnicienHandler) Create(c echo.Context) error {
	return h.public.CreateTechnicien(c)
}

// Update reuses the public payload.
func (h *AdminTechnicienHandler) Update(c echo.Context) error {
	return h.public.UpdateTechnicien(c)
}

// Delete removes the profile only, never the owning user.
func (h *AdminTechnicienHandler) Delete(c echo.Context) error {
	return h.public.DeleteTechnicien(c)
}

// SetDisponibilite godoc
// @Summary Inline availability edit from the list view
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Technicien ID"
// @Param request body DisponibiliteRequest true "Availability"
// @Success 200 {object} model.Technicien
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/techniciens/{id}/disponibilite [patch]
func (h *AdminTechnicienHandler) SetDisponibilite(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req DisponibiliteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(err)
	}
	t.Disponibilite = *req.Disponibilite

	// Inline edits go through the full save path, staff promotion included.
	updated, err := h.svc.Update(c.Request().Context(), t)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// MarkDisponible godoc
// @Summary Bulk action: mark selected technicians available
// @Tags admin
// @Accept json
// @Produce json
// @Param request body BulkActionRequest true "Selected IDs"
// @Success 200 {object} BulkActionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/techniciens/actions/marquer-disponible [post]
func (h *AdminTechnicienHandler) MarkDisponible(c echo.Context) error {
	return h.bulkAction(c, h.svc.MarkDisponible)
}

// MarkIndisponible godoc
// @Summary Bulk action: mark selected technicians unavailable
// @Tags admin
// @Accept json
// @Produce json
// @Param request body BulkActionRequest true "Selected IDs"
// @Success 200 {object} BulkActionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/techniciens/actions/marquer-indisponible [post]
func (h *AdminTechnicienHandler) MarkIndisponible(c echo.Context) error {
	return h.bulkAction(c, h.svc.MarkIndisponible)
}

func (h *AdminTechnicienHandler) bulkAction(c echo.Context, action func(ctx context.Context, ids []uint) (int64, string, error)) error {
	var req BulkActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, message, err := action(c.Request().Context(), req.IDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, BulkActionResponse{Updated: updated, Message: message})
}

func (h *AdminTechnicienHandler) adminRow(c echo.Context, t *model.Technicien) AdminTechnicienRow {
	return AdminTechnicienRow{
		ID:            t.ID,
		NomComplet:    t.FullName(),
		UserEmail:     t.User.Email,
		Telephone:     t.Telephone,
		Experience:    t.Experience,
		Disponibilite: t.Disponibilite,
		Photo:         h.thumbnail(c, t.Photo),
		CreatedAt:     t.CreatedAt,
	}
}

func (h *AdminTechnicienHandler) thumbnail(c echo.Context, key string) Thumbnail {
	thumb := Thumbnail{Width: thumbnailSize, Height: thumbnailSize, Rounded: true}
	if key == "" {
		thumb.Placeholder = photoPlaceholder
		return thumb
	}
	url, err := h.photos.PresignedURL(c.Request().Context(), key)
	if err != nil || url == "" {
		thumb.Placeholder = photoPlaceholder
		return thumb
	}
	thumb.URL = url
	return thumb
}

func (h *AdminTechnicienHandler) technicienFieldsets(c echo.Context, t *model.Technicien) []Fieldset {
	return []Fieldset{
		{
			Title: "Utilisateur",
			Fields: []AdminField{
				{Name: "user_id", Value: t.UserID},
				{Name: "user_email", Value: t.User.Email},
			},
		},
		{
			Title: "Informations personnelles",
			Fields: []AdminField{
				{Name: "nom", Value: t.Nom},
				{Name: "prenom", Value: t.Prenom},
				{Name: "telephone", Value: t.Telephone},
				{Name: "adresse", Value: t.Adresse},
				{Name: "photo", Value: h.thumbnail(c, t.Photo)},
			},
		},
		{
			Title: "Informations professionnelles",
			Fields: []AdminField{
				{Name: "experience", Value: t.Experience},
				{Name: "disponibilite", Value: t.Disponibilite},
			},
		},
		{
			Title:    "Timestamps",
			Collapse: true,
			Fields: []AdminField{
				{Name: "created_at", Value: t.CreatedAt, ReadOnly: true},
				{Name: "updated_at", Value: t.UpdatedAt, ReadOnly: true},
			},
		},
	}
}
