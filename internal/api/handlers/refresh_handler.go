package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/carelocate/waitline/internal/application/services"
)

// RefreshHandler is the ingress for the host platform's background-execution
// trigger. The soft deadline it carries is best-effort: in-flight fetches
// finish, unstarted ones wait for the next trigger.
type RefreshHandler struct {
	refresh *services.RefreshService
}

// NewRefreshHandler creates a new refresh trigger handler.
func NewRefreshHandler(refresh *services.RefreshService) *RefreshHandler {
	return &RefreshHandler{refresh: refresh}
}

// TriggerRefresh handles POST /api/refresh/trigger
func (h *RefreshHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if deadline := r.URL.Query().Get("deadline"); deadline != "" {
		d, err := time.ParseDuration(deadline)
		if err != nil || d <= 0 {
			respondWithError(w, http.StatusBadRequest, "invalid deadline")
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	report, err := h.refresh.RunCycle(ctx, "trigger")
	if err != nil {
		if errors.Is(err, services.ErrCycleInProgress) {
			respondWithError(w, http.StatusConflict, "refresh cycle already in progress")
			return
		}
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}
