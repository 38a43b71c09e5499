package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/carelocate/waitline/internal/application/services"
	"github.com/carelocate/waitline/internal/domain/entities"
)

// LocationHandler ingests the device location stream that drives the
// geofence gate.
type LocationHandler struct {
	gate *services.GeofenceService
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(gate *services.GeofenceService) *LocationHandler {
	return &LocationHandler{gate: gate}
}

type locationUpdateRequest struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// UpdateLocation handles POST /api/location
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var payload locationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if payload.Latitude < -90 || payload.Latitude > 90 || payload.Longitude < -180 || payload.Longitude > 180 {
		respondWithError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}

	h.gate.Update(entities.Location{
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
	}, payload.Timestamp)

	w.WriteHeader(http.StatusNoContent)
}

// StopTracking handles DELETE /api/facilities/{id}/tracking
func (h *LocationHandler) StopTracking(w http.ResponseWriter, r *http.Request) {
	facilityID := r.PathValue("id")
	if facilityID == "" {
		respondWithError(w, http.StatusBadRequest, "facility id is required")
		return
	}
	h.gate.StopTracking(facilityID)
	w.WriteHeader(http.StatusNoContent)
}
