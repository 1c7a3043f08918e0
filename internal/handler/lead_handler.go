package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/auth"
	"github.com/asah-capstone-a25/leadscore-backend/internal/service"
)

// LeadHandler holds the dependencies for lead- and stats-related HTTP
// handlers, plus the health endpoint.
type LeadHandler struct {
	Auth    *auth.Authenticator
	Service *service.CampaignService
	DB      *sql.DB
}

// ListLeads returns one page of a campaign's leads.
// Query params: risk_level, min_probability, max_probability, job,
// education, sort_by, order, page, page_size.
func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Auth.FromRequest(r); err != nil {
		h.writeError(w, err)
		return
	}

	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, apperrors.NewFileValidationError("campaign id must be an integer"))
		return
	}

	q := service.LeadQuery{
		RiskLevel: r.URL.Query().Get("risk_level"),
		Job:       r.URL.Query().Get("job"),
		Education: r.URL.Query().Get("education"),
		SortBy:    r.URL.Query().Get("sort_by"),
		Order:     r.URL.Query().Get("order"),
	}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.PageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))

	if raw := r.URL.Query().Get("min_probability"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, apperrors.NewFileValidationError("min_probability must be a number"))
			return
		}
		q.MinProbability = &p
	}
	if raw := r.URL.Query().Get("max_probability"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, apperrors.NewFileValidationError("max_probability must be a number"))
			return
		}
		q.MaxProbability = &p
	}

	leads, pagination, err := h.Service.ListLeads(campaignID, q)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       leads,
		"pagination": pagination,
	})
}

func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Auth.FromRequest(r); err != nil {
		h.writeError(w, err)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, apperrors.NewFileValidationError("lead id must be an integer"))
		return
	}

	lead, err := h.Service.GetLead(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, lead)
}

// CampaignStats serves the on-demand rollup recomputed by full scan.
func (h *LeadHandler) CampaignStats(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Auth.FromRequest(r); err != nil {
		h.writeError(w, err)
		return
	}

	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, apperrors.NewFileValidationError("campaign id must be an integer"))
		return
	}

	stats, err := h.Service.CampaignStats(campaignID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// Health reports liveness and database reachability. Unauthenticated.
func (h *LeadHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if h.DB != nil {
		dbOK = h.DB.Ping() == nil
	}
	status := http.StatusOK
	if !dbOK {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, map[string]interface{}{
		"status":   "ok",
		"database": dbOK,
	})
}

func (h *LeadHandler) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *apperrors.ValidationError
		unauthorized  *apperrors.UnauthorizedError
		campaignMiss  *apperrors.CampaignNotFoundError
		leadMiss      *apperrors.LeadNotFoundError
	)

	status := http.StatusInternalServerError
	kind := "internal_error"
	message := "an internal error occurred"

	switch {
	case errors.As(err, &validationErr):
		status, kind, message = http.StatusBadRequest, "validation_error", err.Error()
	case errors.As(err, &unauthorized):
		status, kind, message = http.StatusForbidden, "unauthorized", err.Error()
	case errors.As(err, &campaignMiss), errors.As(err, &leadMiss):
		status, kind, message = http.StatusNotFound, "not_found", err.Error()
	}

	h.writeJSON(w, status, map[string]string{"error": kind, "message": message})
}

func (h *LeadHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
