package controllers

import (
	"net/http"

	"storefront/services"
)

// AdminController serves the admin dashboard
type AdminController struct {
	Admin *services.Admin
}

// NewAdminController creates a new AdminController
func NewAdminController(admin *services.Admin) *AdminController {
	return &AdminController{Admin: admin}
}

// GetStats returns catalog and sales counts
func (ac *AdminController) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := ac.Admin.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
