package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/carelocate/waitline/internal/application/services"
)

// CrowdLogHandler is the crowd log ingress. It enforces the geofence
// eligibility precondition before anything reaches the store.
type CrowdLogHandler struct {
	crowd *services.CrowdLogService
	gate  *services.GeofenceService
}

// NewCrowdLogHandler creates a new crowd log handler.
func NewCrowdLogHandler(crowd *services.CrowdLogService, gate *services.GeofenceService) *CrowdLogHandler {
	return &CrowdLogHandler{
		crowd: crowd,
		gate:  gate,
	}
}

type submitLogRequest struct {
	ReporterID  string    `json:"reporter_id"`
	CheckInTime time.Time `json:"check_in_time"`
}

// SubmitLog handles POST /api/facilities/{id}/crowd-logs
func (h *CrowdLogHandler) SubmitLog(w http.ResponseWriter, r *http.Request) {
	facilityID := r.PathValue("id")
	if facilityID == "" {
		respondWithError(w, http.StatusBadRequest, "facility id is required")
		return
	}

	var payload submitLogRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if !h.gate.IsEligible(facilityID) {
		respondWithError(w, http.StatusForbidden, "not eligible to log for this facility")
		return
	}

	crowdLog, err := h.crowd.Submit(r.Context(), facilityID, payload.ReporterID, payload.CheckInTime)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, crowdLog)
}

type confirmSeenRequest struct {
	SeenTime time.Time `json:"seen_time"`
}

// ConfirmSeen handles PATCH /api/crowd-logs/{id}/seen
func (h *CrowdLogHandler) ConfirmSeen(w http.ResponseWriter, r *http.Request) {
	logID := r.PathValue("id")
	if logID == "" {
		respondWithError(w, http.StatusBadRequest, "crowd log id is required")
		return
	}

	var payload confirmSeenRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	crowdLog, err := h.crowd.ConfirmSeen(r.Context(), logID, payload.SeenTime)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, crowdLog)
}
