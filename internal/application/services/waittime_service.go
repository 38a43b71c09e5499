package services

import (
	"context"
	"time"

	"github.com/carelocate/waitline/internal/domain/entities"
	"github.com/carelocate/waitline/internal/domain/repositories"
)

// FacilityWaitTimes is the public read model: up to two independent
// indicators per facility. The CMS baseline and the live value are never
// numerically combined.
type FacilityWaitTimes struct {
	Live       *entities.WaitTime `json:"live,omitempty"`
	CMSAverage *entities.WaitTime `json:"cms_average,omitempty"`
}

// WaitTimeService merges the scraped/API cache, the crowd estimate and the
// CMS baseline into each facility's exposed wait-time set, applying the
// staleness rules.
type WaitTimeService struct {
	catalog repositories.FacilityRepository
	cache   *LiveCache
	crowd   *CrowdLogService
	gate    *GeofenceService

	staleAfter time.Duration
	now        func() time.Time
}

// NewWaitTimeService creates a new selector over the given inputs.
func NewWaitTimeService(
	catalog repositories.FacilityRepository,
	cache *LiveCache,
	crowd *CrowdLogService,
	gate *GeofenceService,
	staleAfter time.Duration,
	now func() time.Time,
) *WaitTimeService {
	if staleAfter <= 0 {
		staleAfter = 8 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &WaitTimeService{
		catalog:    catalog,
		cache:      cache,
		crowd:      crowd,
		gate:       gate,
		staleAfter: staleAfter,
		now:        now,
	}
}

// GetWaitTimes returns the facility's exposed wait-time set.
//
// Emergency departments expose the static CMS baseline (when present) and a
// live indicator fed only by crowd logs; the crowd indicator is absent, not
// stale, once its samples decay. Urgent cares expose the freshest scraped or
// API value, flagged stale past the threshold, or an explicit unavailable
// marker when nothing was ever fetched.
func (s *WaitTimeService) GetWaitTimes(ctx context.Context, facilityID string) (*FacilityWaitTimes, error) {
	facility, err := s.catalog.GetByID(ctx, facilityID)
	if err != nil {
		return nil, err
	}

	if facility.Type == entities.FacilityTypeEmergencyDepartment {
		return &FacilityWaitTimes{
			Live:       s.crowdIndicator(facility),
			CMSAverage: s.cmsIndicator(facility),
		}, nil
	}

	return &FacilityWaitTimes{Live: s.liveIndicator(facility)}, nil
}

// IsEligibleToLog reports whether the current user may submit a crowd log
// for the facility.
func (s *WaitTimeService) IsEligibleToLog(facilityID string) bool {
	return s.gate.IsEligible(facilityID)
}

// LogEligibility returns the facility's dwell state alongside the
// submission verdict, so the UI can show "keep waiting" versus "too far".
func (s *WaitTimeService) LogEligibility(facilityID string) (entities.GeofenceState, bool) {
	state := s.gate.State(facilityID)
	return state, state == entities.GeofenceEligible
}

func (s *WaitTimeService) cmsIndicator(facility *entities.Facility) *entities.WaitTime {
	if facility.CMSAverageMinutes == nil {
		return nil
	}
	minutes := *facility.CMSAverageMinutes
	return &entities.WaitTime{
		FacilityID: facility.ID,
		Minutes:    &minutes,
		Status:     entities.WaitStatusAvailable,
		Source:     entities.SourceCMSAverage,
		ObservedAt: s.now(),
	}
}

func (s *WaitTimeService) crowdIndicator(facility *entities.Facility) *entities.WaitTime {
	estimate, ok := s.crowd.LiveEstimate(facility.ID)
	if !ok {
		return nil
	}
	minutes := estimate.RoundedMinutes()
	return &entities.WaitTime{
		FacilityID: facility.ID,
		Minutes:    &minutes,
		Status:     entities.WaitStatusAvailable,
		Source:     entities.SourceCrowd,
		ObservedAt: estimate.LastSeenTime,
	}
}

func (s *WaitTimeService) liveIndicator(facility *entities.Facility) *entities.WaitTime {
	cached, ok := s.cache.Get(facility.ID)
	if !ok {
		// Explicit unavailable marker, never a fabricated number and never a
		// silent omission.
		return &entities.WaitTime{
			FacilityID: facility.ID,
			Status:     entities.WaitStatusUnavailable,
			ObservedAt: s.now(),
		}
	}
	if cached.OlderThan(s.staleAfter, s.now()) {
		cached.IsStale = true
	}
	return cached
}
