package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carelocate/waitline/internal/domain/entities"
	"github.com/carelocate/waitline/internal/domain/providers"
	"github.com/carelocate/waitline/internal/infrastructure/observability"
	apperrors "github.com/carelocate/waitline/pkg/errors"
)

// CrowdEstimate is the decay-weighted live estimate over one facility's
// crowd logs.
type CrowdEstimate struct {
	Minutes      float64
	SampleCount  int
	LastSeenTime time.Time
}

// CrowdLogService holds the sliding per-facility sets of anonymous
// check-in/seen-time reports and computes the decay-weighted live estimate.
//
// Precondition: a log may only be submitted while the geofence gate reports
// the reporter Eligible for the facility. Enforcement lives at the ingress;
// the store itself does not duplicate the check.
type CrowdLogService struct {
	mu     sync.Mutex
	logs   map[string][]*entities.CrowdLog
	byID   map[string]*entities.CrowdLog
	sink   providers.CrowdLogSink
	metric *observability.Metrics

	abandonedAfter time.Duration
	now            func() time.Time
}

// CrowdLogConfig holds the store's tuning knobs.
type CrowdLogConfig struct {
	// AbandonedAfter is how long an unconfirmed log is kept before pruning.
	AbandonedAfter time.Duration

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// NewCrowdLogService creates an empty store. sink may be nil.
func NewCrowdLogService(sink providers.CrowdLogSink, metrics *observability.Metrics, cfg CrowdLogConfig) *CrowdLogService {
	if cfg.AbandonedAfter <= 0 {
		cfg.AbandonedAfter = 4 * time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &CrowdLogService{
		logs:           make(map[string][]*entities.CrowdLog),
		byID:           make(map[string]*entities.CrowdLog),
		sink:           sink,
		metric:         metrics,
		abandonedAfter: cfg.AbandonedAfter,
		now:            now,
	}
}

// Submit records a new check-in for a facility and forwards it to the sink.
func (s *CrowdLogService) Submit(ctx context.Context, facilityID, reporterID string, checkInTime time.Time) (*entities.CrowdLog, error) {
	if facilityID == "" {
		return nil, apperrors.NewValidationError("facility id is required")
	}
	if reporterID == "" {
		return nil, apperrors.NewValidationError("reporter id is required")
	}
	if checkInTime.IsZero() {
		checkInTime = s.now()
	}

	crowdLog := &entities.CrowdLog{
		ID:          uuid.NewString(),
		FacilityID:  facilityID,
		ReporterID:  reporterID,
		CheckInTime: checkInTime,
	}

	s.mu.Lock()
	s.logs[facilityID] = append(s.logs[facilityID], crowdLog)
	s.byID[crowdLog.ID] = crowdLog
	snapshot := crowdLog.Snapshot()
	s.mu.Unlock()

	observability.RecordCrowdLog(ctx, s.metric, "submitted")
	s.deliver(ctx, snapshot)
	return snapshot, nil
}

// ConfirmSeen sets the log's seen time. A log is confirmed at most once.
func (s *CrowdLogService) ConfirmSeen(ctx context.Context, logID string, seenTime time.Time) (*entities.CrowdLog, error) {
	if seenTime.IsZero() {
		seenTime = s.now()
	}

	s.mu.Lock()
	crowdLog, ok := s.byID[logID]
	if !ok {
		s.mu.Unlock()
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("crowd log %s not found", logID))
	}
	if crowdLog.SeenTime != nil {
		s.mu.Unlock()
		return nil, apperrors.NewValidationError("crowd log is already confirmed")
	}
	if seenTime.Before(crowdLog.CheckInTime) {
		s.mu.Unlock()
		return nil, apperrors.NewValidationError("seen time precedes check-in time")
	}
	seen := seenTime
	crowdLog.SeenTime = &seen
	snapshot := crowdLog.Snapshot()
	s.mu.Unlock()

	observability.RecordCrowdLog(ctx, s.metric, "confirmed")
	s.deliver(ctx, snapshot)
	return snapshot, nil
}

// LiveEstimate returns the decay-weighted average wait for a facility, in
// minutes. ok is false when no log has positive weight: the crowd indicator
// is absent, not zero. Expired logs are pruned as part of the query.
func (s *CrowdLogService) LiveEstimate(facilityID string) (*CrowdEstimate, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.pruneLocked(facilityID, now)
	if len(kept) == 0 {
		return nil, false
	}

	var weightSum, weightedMinutes float64
	var lastSeen time.Time
	samples := 0
	for _, crowdLog := range kept {
		w := crowdLog.Weight(now)
		if w <= 0 {
			continue
		}
		weightSum += w
		weightedMinutes += w * crowdLog.WaitMinutes()
		samples++
		if crowdLog.SeenTime.After(lastSeen) {
			lastSeen = *crowdLog.SeenTime
		}
	}
	if samples == 0 || weightSum == 0 {
		return nil, false
	}

	return &CrowdEstimate{
		Minutes:      weightedMinutes / weightSum,
		SampleCount:  samples,
		LastSeenTime: lastSeen,
	}, true
}

// pruneLocked drops confirmed logs whose weight reached zero and unconfirmed
// logs past the abandonment window, returning the confirmed survivors.
func (s *CrowdLogService) pruneLocked(facilityID string, now time.Time) []*entities.CrowdLog {
	all := s.logs[facilityID]
	kept := all[:0]
	var confirmed []*entities.CrowdLog
	for _, crowdLog := range all {
		if crowdLog.Confirmed() {
			if crowdLog.Weight(now) <= 0 {
				delete(s.byID, crowdLog.ID)
				continue
			}
			confirmed = append(confirmed, crowdLog)
		} else if now.Sub(crowdLog.CheckInTime) > s.abandonedAfter {
			delete(s.byID, crowdLog.ID)
			continue
		}
		kept = append(kept, crowdLog)
	}
	if len(kept) == 0 {
		delete(s.logs, facilityID)
	} else {
		s.logs[facilityID] = kept
	}
	return confirmed
}

func (s *CrowdLogService) deliver(ctx context.Context, crowdLog *entities.CrowdLog) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Deliver(ctx, crowdLog); err != nil {
		// Eventual delivery: the remote store catches up later, the local
		// estimate is unaffected.
		log.Warn().Err(err).Str("crowd_log_id", crowdLog.ID).Msg("crowd log sink delivery failed")
	}
}

// RoundedMinutes returns the estimate as a whole-minute figure.
func (e *CrowdEstimate) RoundedMinutes() int {
	return int(math.Round(e.Minutes))
}
