package handlers

import (
	"net/http"

	"github.com/aryanprajapat98/REMS/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler serves the administrator overview.
type AdminHandler struct {
	dashboardService *services.DashboardService
	log              *zap.Logger
}

func NewAdminHandler(dashboardService *services.DashboardService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		dashboardService: dashboardService,
		log:              log,
	}
}

// AdminRouter registers admin routes on the given router.
func AdminRouter(r chi.Router, handler *AdminHandler) {
	r.Get("/dashboard", handler.Dashboard)
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboardService.Dashboard(r.Context(), principalFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
