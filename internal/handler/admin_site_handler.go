package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"techdesk/internal/config"
)

// AdminSiteHandler serves the back-office display strings. They are fixed
// at startup; there is no per-tenant override.
type AdminSiteHandler struct {
	siteHeader string
	siteTitle  string
	indexTitle string
}

// NewAdminSiteHandler captures the configured site strings.
func NewAdminSiteHandler(cfg *config.Config) *AdminSiteHandler {
	return &AdminSiteHandler{
		siteHeader: cfg.AdminSiteHeader,
		siteTitle:  cfg.AdminSiteTitle,
		indexTitle: cfg.AdminIndexTitle,
	}
}

// SiteInfoResponse is the back-office branding payload.
type SiteInfoResponse struct {
	SiteHeader string `json:"site_header"`
	SiteTitle  string `json:"site_title"`
	IndexTitle string `json:"index_title"`
}

// Site godoc
// @Summary Back-office site title and header
// @Tags admin
// @Produce json
// @Success 200 {object} SiteInfoResponse
// @Security BearerAuth
// @Router /admin/site [get]
func (h *AdminSiteHandler) Site(c echo.Context) error {
	return c.JSON(http.StatusOK, SiteInfoResponse{
		SiteHeader: h.siteHeader,
		SiteTitle:  h.siteTitle,
		IndexTitle: h.indexTitle,
	})
}
