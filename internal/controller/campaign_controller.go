package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/auth"
	"github.com/asah-capstone-a25/leadscore-backend/internal/service"
)

// CampaignController handles campaign-level routes: ingestion, listing,
// lookup, delete. Lead queries live in the handler package.
type CampaignController struct {
	Auth      *auth.Authenticator
	Ingestion *service.IngestionService
	Campaigns *service.CampaignService
}

// Ingest accepts a multipart upload ("file" part, optional "name" form
// value) and runs the full ingestion pipeline synchronously.
func (c *CampaignController) Ingest(w http.ResponseWriter, r *http.Request) {
	caller, err := c.Auth.FromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.NewFileValidationError("multipart form must include a \"file\" part"))
		return
	}
	defer file.Close()

	result, err := c.Ingestion.Ingest(r.Context(), caller, service.Upload{
		Name:        r.FormValue("name"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        file,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	if _, err := c.Auth.FromRequest(r); err != nil {
		writeError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	createdBy, _ := strconv.Atoi(r.URL.Query().Get("created_by"))

	campaigns, pagination, err := c.Campaigns.ListCampaigns(page, pageSize, createdBy)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	if _, err := c.Auth.FromRequest(r); err != nil {
		writeError(w, err)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewFileValidationError("campaign id must be an integer"))
		return
	}

	campaign, err := c.Campaigns.GetCampaign(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	caller, err := c.Auth.FromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewFileValidationError("campaign id must be an integer"))
		return
	}

	if err := c.Campaigns.DeleteCampaign(caller, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps the error taxonomy to HTTP statuses so callers can
// tell "fix your file" from "try again later" from "internal error".
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr  *apperrors.ValidationError
		unavailableErr *apperrors.ScoringUnavailableError
		unauthorized   *apperrors.UnauthorizedError
		campaignMiss   *apperrors.CampaignNotFoundError
		leadMiss       *apperrors.LeadNotFoundError
	)

	status := http.StatusInternalServerError
	kind := "internal_error"
	message := "an internal error occurred"

	switch {
	case errors.As(err, &validationErr):
		status, kind, message = http.StatusBadRequest, "validation_error", err.Error()
	case errors.As(err, &unavailableErr):
		status, kind, message = http.StatusServiceUnavailable, "scoring_unavailable",
			"scoring engine is unavailable, try again later"
	case errors.As(err, &unauthorized):
		status, kind, message = http.StatusForbidden, "unauthorized", err.Error()
	case errors.As(err, &campaignMiss), errors.As(err, &leadMiss):
		status, kind, message = http.StatusNotFound, "not_found", err.Error()
	}

	writeJSON(w, status, map[string]string{"error": kind, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
