package handlers

import (
	"net/http"

	"github.com/aryanprajapat98/REMS/internal/services"
	"github.com/aryanprajapat98/REMS/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LeadHandler provides HTTP handlers for leads.
type LeadHandler struct {
	leadService *services.LeadService
	log         *zap.Logger
}

func NewLeadHandler(leadService *services.LeadService, log *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		log:         log,
	}
}

// LeadRouter registers lead routes on the given router.
func LeadRouter(r chi.Router, handler *LeadHandler) {
	r.Post("/", handler.SubmitLead)
	r.Get("/", handler.ListLeads)
}

// SubmitLead records interest in a listing. No account is needed.
func (h *LeadHandler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	var req LeadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	lead, err := h.leadService.Submit(r.Context(), services.LeadInput{
		Name:      req.Name,
		Email:     req.Email,
		Message:   req.Message,
		ListingID: req.ListingID,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to submit lead")
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leadService.ListAll(r.Context(), principalFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err, "failed to list leads")
		return
	}
	writeJSON(w, http.StatusOK, LeadListResponse{Items: leads})
}

type LeadRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	ListingID int    `json:"listing_id"`
}

type LeadListResponse struct {
	Items []types.Lead `json:"items"`
}
