package routes

import (
	"net/http"

	"github.com/carelocate/waitline/internal/api/handlers"
	"github.com/carelocate/waitline/internal/api/middleware"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	waitTimeHandler *handlers.WaitTimeHandler
	crowdLogHandler *handlers.CrowdLogHandler
	locationHandler *handlers.LocationHandler
	refreshHandler  *handlers.RefreshHandler
}

// NewRouter creates a new router
func NewRouter(
	waitTimeHandler *handlers.WaitTimeHandler,
	crowdLogHandler *handlers.CrowdLogHandler,
	locationHandler *handlers.LocationHandler,
	refreshHandler *handlers.RefreshHandler,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		waitTimeHandler: waitTimeHandler,
		crowdLogHandler: crowdLogHandler,
		locationHandler: locationHandler,
		refreshHandler:  refreshHandler,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Facility wait-time reads
	r.mux.HandleFunc("GET /api/facilities", r.waitTimeHandler.ListFacilities)
	r.mux.HandleFunc("GET /api/facilities/{id}/wait-times", r.waitTimeHandler.GetWaitTimes)
	r.mux.HandleFunc("GET /api/facilities/{id}/log-eligibility", r.waitTimeHandler.GetLogEligibility)

	// Crowd log ingress
	r.mux.HandleFunc("POST /api/facilities/{id}/crowd-logs", r.crowdLogHandler.SubmitLog)
	r.mux.HandleFunc("PATCH /api/crowd-logs/{id}/seen", r.crowdLogHandler.ConfirmSeen)

	// Location stream and tracking
	r.mux.HandleFunc("POST /api/location", r.locationHandler.UpdateLocation)
	r.mux.HandleFunc("DELETE /api/facilities/{id}/tracking", r.locationHandler.StopTracking)

	// Background-execution refresh trigger
	r.mux.HandleFunc("POST /api/refresh/trigger", r.refreshHandler.TriggerRefresh)

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
