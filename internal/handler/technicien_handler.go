package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"techdesk/internal/model"
	"techdesk/internal/repository"
	"techdesk/internal/service"
	"techdesk/internal/storage"
)

// TechnicienHandler exposes the public technician collection.
type TechnicienHandler struct {
	svc    service.TechnicienService
	photos storage.PhotoStoreInterface
}

// NewTechnicienHandler creates a handler layer.
func NewTechnicienHandler(svc service.TechnicienService, photos storage.PhotoStoreInterface) *TechnicienHandler {
	return &TechnicienHandler{svc: svc, photos: photos}
}

// CreateTechnicienRequest is the payload for POST /techniciens/.
type CreateTechnicienRequest struct {
	UserID     uint   `json:"user_id" validate:"required"`
	Nom        string `json:"nom"`
	Prenom     string `json:"prenom"`
	Telephone  string `json:"telephone"`
	Adresse    string `json:"adresse"`
	Experience *uint  `json:"experience"`
	// Availability defaults to true when omitted.
	Disponibilite *bool `json:"disponibilite"`
}

// UpdateTechnicienRequest is the payload for PUT/PATCH /techniciens/{id}/.
type UpdateTechnicienRequest struct {
	Nom           *string `json:"nom"`
	Prenom        *string `json:"prenom"`
	Telephone     *string `json:"telephone"`
	Adresse       *string `json:"adresse"`
	Experience    *uint   `json:"experience"`
	Disponibilite *bool   `json:"disponibilite"`
}

// ListTechniciens godoc
// @Summary List technician profiles
// @Tags techniciens
// @Produce json
// @Success 200 {array} model.Technicien
// @Security BearerAuth
// @Router /techniciens [get]
func (h *TechnicienHandler) ListTechniciens(c echo.Context) error {
	ts, err := h.svc.List(c.Request().Context(), repository.TechnicienListOptions{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ts)
}

// GetTechnicien godoc
// @Summary Get technician profile by id
// @Tags techniciens
// @Produce json
// @Param id path int true "Technicien ID"
// @Success 200 {object} model.Technicien
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /techniciens/{id} [get]
func (h *TechnicienHandler) GetTechnicien(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, t)
}

// CreateTechnicien godoc
// @Summary Attach a technician profile to a user
// @Description Saving a profile promotes the owning user to staff.
// @Tags techniciens
// @Accept json
// @Produce json
// @Param technicien body CreateTechnicienRequest true "Profile payload"
// @Success 201 {object} model.Technicien
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /techniciens [post]
func (h *TechnicienHandler) CreateTechnicien(c echo.Context) error {
	var req CreateTechnicienRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	t := &model.Technicien{
		UserID:        req.UserID,
		Nom:           req.Nom,
		Prenom:        req.Prenom,
		Telephone:     req.Telephone,
		Adresse:       req.Adresse,
		Experience:    req.Experience,
		Disponibilite: true,
	}
	if req.Disponibilite != nil {
		t.Disponibilite = *req.Disponibilite
	}

	created, err := h.svc.Create(c.Request().Context(), t)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateTechnicien godoc
// @Summary Update technician profile
// @Tags techniciens
// @Accept json
// @Produce json
// @Param id path int true "Technicien ID"
// @Param technicien body UpdateTechnicienRequest true "Fields to update"
// @Success 200 {object} model.Technicien
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /techniciens/{id} [put]
func (h *TechnicienHandler) UpdateTechnicien(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req UpdateTechnicienRequest
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
	applyTechnicienUpdate(t, &req)

	updated, err := h.svc.Update(c.Request().Context(), t)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteTechnicien godoc
// @Summary Delete technician profile (the user is kept)
// @Tags techniciens
// @Param id path int true "Technicien ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /techniciens/{id} [delete]
func (h *TechnicienHandler) DeleteTechnicien(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(err)
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return mapServiceError(err)
	}
	// Best effort: an orphaned object is better than a failed delete.
	_ = h.photos.Delete(c.Request().Context(), t.Photo)
	return c.NoContent(http.StatusNoContent)
}

// UploadPhoto godoc
// @Summary Upload technician photo
// @Tags techniciens
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Technicien ID"
// @Param photo formData file true "PNG or JPEG, 10MB max"
// @Success 200 {object} model.Technicien
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /techniciens/{id}/photo [post]
func (h *TechnicienHandler) UploadPhoto(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(err)
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing photo file")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read photo file")
	}
	defer file.Close()

	key, err := h.photos.Upload(c.Request().Context(), t.ID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	oldKey := t.Photo
	t.Photo = key
	updated, err := h.svc.Update(c.Request().Context(), t)
	if err != nil {
		// Roll the upload back so the bucket does not accumulate orphans.
		_ = h.photos.Delete(c.Request().Context(), key)
		return mapServiceError(err)
	}
	if oldKey != "" && oldKey != key {
		_ = h.photos.Delete(c.Request().Context(), oldKey)
	}
	return c.JSON(http.StatusOK, updated)
}

func applyTechnicienUpdate(t *model.Technicien, req *UpdateTechnicienRequest) {
	if req.Nom != nil {
		t.Nom = *req.Nom
	}
	if req.Prenom != nil {
		t.Prenom = *req.Prenom
	}
	if req.Telephone != nil {
		t.Telephone = *req.Telephone
	}
	if req.Adresse != nil {
		t.Adresse = *req.Adresse
	}
	if req.Experience != nil {
		t.Experience = req.Experience
	}
	if req.Disponibilite != nil {
		t.Disponibilite = *req.Disponibilite
	}
}
