package handlers

import (
	"net/http"

	"github.com/carelocate/waitline/internal/application/services"
	"github.com/carelocate/waitline/internal/domain/repositories"
)

// WaitTimeHandler exposes the public read API consumed by the UI layer.
type WaitTimeHandler struct {
	waitTimes *services.WaitTimeService
	catalog   repositories.FacilityRepository
}

// NewWaitTimeHandler creates a new wait-time handler.
func NewWaitTimeHandler(waitTimes *services.WaitTimeService, catalog repositories.FacilityRepository) *WaitTimeHandler {
	return &WaitTimeHandler{
		waitTimes: waitTimes,
		catalog:   catalog,
	}
}

// ListFacilities handles GET /api/facilities
func (h *WaitTimeHandler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := h.catalog.List(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data": facilities,
	})
}

// GetWaitTimes handles GET /api/facilities/{id}/wait-times
func (h *WaitTimeHandler) GetWaitTimes(w http.ResponseWriter, r *http.Request) {
	facilityID := r.PathValue("id")
	if facilityID == "" {
		respondWithError(w, http.StatusBadRequest, "facility id is required")
		return
	}

	waitTimes, err := h.waitTimes.GetWaitTimes(r.Context(), facilityID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, waitTimes)
}

// GetLogEligibility handles GET /api/facilities/{id}/log-eligibility
func (h *WaitTimeHandler) GetLogEligibility(w http.ResponseWriter, r *http.Request) {
	facilityID := r.PathValue("id")
	if facilityID == "" {
		respondWithError(w, http.StatusBadRequest, "facility id is required")
		return
	}

	state, eligible := h.waitTimes.LogEligibility(facilityID)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"eligible": eligible,
		"state":    state,
	})
}
