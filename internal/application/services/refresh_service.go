package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carelocate/waitline/internal/domain/repositories"
	"github.com/carelocate/waitline/internal/infrastructure/observability"
	apperrors "github.com/carelocate/waitline/pkg/errors"
)

// ErrCycleInProgress is returned when a trigger fires while the previous
// cycle has not finished; overlapping cycles are never started.
var ErrCycleInProgress = apperrors.NewValidationError("refresh cycle already in progress")

// CycleReport is the accounting result of one refresh cycle. It exists for
// the trigger's bookkeeping only; a failed cycle is not retried here, the
// next scheduled trigger is the retry mechanism.
type CycleReport struct {
	Trigger   string        `json:"trigger"`
	Total     int           `json:"total"`
	Refreshed int           `json:"refreshed"`
	Degraded  int           `json:"degraded"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// RefreshService drives periodic and one-shot refresh cycles across the
// facility set, fanning out to the fallback orchestrator with bounded
// concurrency.
type RefreshService struct {
	catalog  repositories.FacilityRepository
	fallback *FallbackService
	metrics  *observability.Metrics

	concurrency int
	interval    time.Duration
	running     atomic.Bool
}

// NewRefreshService creates a new refresh scheduler.
func NewRefreshService(
	catalog repositories.FacilityRepository,
	fallback *FallbackService,
	metrics *observability.Metrics,
	concurrency int,
	interval time.Duration,
) *RefreshService {
	if concurrency <= 0 {
		concurrency = 5
	}
	if interval <= 0 {
		interval = 90 * time.Second
	}
	return &RefreshService{
		catalog:     catalog,
		fallback:    fallback,
		metrics:     metrics,
		concurrency: concurrency,
		interval:    interval,
	}
}

// RunCycle refreshes every facility that has a live source. The caller's
// context bounds the cycle: facilities not yet started when it ends are
// skipped and picked up by the next cycle. Returns ErrCycleInProgress when
// a cycle is already running.
func (s *RefreshService) RunCycle(ctx context.Context, trigger string) (*CycleReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCycleInProgress
	}
	defer s.running.Store(false)

	ctx, span := observability.StartSpan(ctx, "refresh.cycle")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	facilities, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &CycleReport{Trigger: trigger}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, facility := range facilities {
		if !facility.HasLiveSource() {
			continue
		}
		report.Total++

		if gctx.Err() != nil {
			// Deadline hit mid-cycle: in-flight fetches finish, the rest are
			// simply not issued.
			mu.Lock()
			report.Skipped++
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			value := s.fallback.Resolve(gctx, facility)
			mu.Lock()
			if value != nil && !value.IsStale {
				report.Refreshed++
			} else {
				report.Degraded++
			}
			mu.Unlock()
			return nil
		})
	}

	// Resolve never returns an error; Wait only observes context ends.
	_ = g.Wait()

	report.Duration = time.Since(start)
	observability.RecordCycle(ctx, s.metrics, trigger, report.Duration)

	logger.Info().
		Str("trigger", trigger).
		Int("total", report.Total).
		Int("refreshed", report.Refreshed).
		Int("degraded", report.Degraded).
		Int("skipped", report.Skipped).
		Dur("duration", report.Duration).
		Msg("refresh cycle finished")

	return report, nil
}

// Start runs the foreground interval loop until the context ends. A tick
// that lands while a cycle is still running is skipped.
func (s *RefreshService) Start(ctx context.Context) {
	logger := observability.LoggerFromContext(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("refresh loop stopped")
			return
		case <-ticker.C:
			if _, err := s.RunCycle(ctx, "interval"); err != nil && err != ErrCycleInProgress {
				logger.Error().Err(err).Msg("refresh cycle failed")
			}
		}
	}
}
