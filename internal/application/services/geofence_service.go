package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carelocate/waitline/internal/domain/entities"
)

// GeofenceService runs the per-facility dwell state machine that gates crowd
// log submission. Updates from the location stream are processed one at a
// time so the dwell-timer invariant holds: Eligible is reachable only through
// a continuous, uninterrupted stay inside the radius for at least the minimum
// dwell.
//
// Exiting the radius while Eligible revokes eligibility and destroys the
// session; a reporter must dwell again from scratch after re-entering.
type GeofenceService struct {
	mu        sync.Mutex
	sessions  map[string]*entities.GeofenceSession
	locations map[string]entities.Location

	radiusMeters float64
	minDwell     time.Duration
}

// GeofenceConfig holds the gate's tuning knobs.
type GeofenceConfig struct {
	RadiusMeters float64
	MinDwell     time.Duration
}

// NewGeofenceService creates a gate over the given facility set.
func NewGeofenceService(facilities []*entities.Facility, cfg GeofenceConfig) *GeofenceService {
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = 75
	}
	if cfg.MinDwell <= 0 {
		cfg.MinDwell = 5 * time.Minute
	}

	locations := make(map[string]entities.Location, len(facilities))
	for _, f := range facilities {
		locations[f.ID] = f.Location
	}

	return &GeofenceService{
		sessions:     make(map[string]*entities.GeofenceSession),
		locations:    locations,
		radiusMeters: cfg.RadiusMeters,
		minDwell:     cfg.MinDwell,
	}
}

// Update feeds one position fix from the location stream into every
// facility's state machine.
func (s *GeofenceService) Update(position entities.Location, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for facilityID, location := range s.locations {
		s.updateFacilityLocked(facilityID, position.DistanceMeters(location), at)
	}
}

func (s *GeofenceService) updateFacilityLocked(facilityID string, distance float64, at time.Time) {
	session, exists := s.sessions[facilityID]

	if distance > s.radiusMeters {
		if !exists {
			return
		}
		// Leaving before the dwell is met discards the timer entirely;
		// leaving while Eligible revokes the grant.
		if session.State == entities.GeofenceEligible {
			log.Debug().Str("facility_id", facilityID).Msg("reporter exited radius, eligibility revoked")
		}
		delete(s.sessions, facilityID)
		return
	}

	if !exists {
		s.sessions[facilityID] = &entities.GeofenceSession{
			FacilityID:        facilityID,
			State:             entities.GeofenceInsidePending,
			EnteredAt:         at,
			LastKnownDistance: distance,
		}
		return
	}

	session.LastKnownDistance = distance
	if session.State == entities.GeofenceInsidePending && at.Sub(session.EnteredAt) >= s.minDwell {
		session.State = entities.GeofenceEligible
		log.Debug().
			Str("facility_id", facilityID).
			Dur("dwell", at.Sub(session.EnteredAt)).
			Msg("reporter became eligible to log")
	}
}

// IsEligible reports whether the reporter may submit a crowd log for the
// facility right now.
func (s *GeofenceService) IsEligible(facilityID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[facilityID]
	return ok && session.State == entities.GeofenceEligible
}

// State returns the facility's dwell state. No session means Outside.
func (s *GeofenceService) State(facilityID string) entities.GeofenceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[facilityID]
	if !ok {
		return entities.GeofenceOutside
	}
	return session.State
}

// Session returns a snapshot of the facility's session, if one exists.
func (s *GeofenceService) Session(facilityID string) (*entities.GeofenceSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[facilityID]
	if !ok {
		return nil, false
	}
	snapshot := *session
	return &snapshot, true
}

// StopTracking destroys the facility's session, e.g. when the user switches
// context away from it.
func (s *GeofenceService) StopTracking(facilityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, facilityID)
}
