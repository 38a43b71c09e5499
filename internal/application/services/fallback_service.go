package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carelocate/waitline/internal/domain/entities"
	"github.com/carelocate/waitline/internal/domain/providers"
	"github.com/carelocate/waitline/internal/infrastructure/observability"
	"github.com/carelocate/waitline/pkg/breaker"
	apperrors "github.com/carelocate/waitline/pkg/errors"
	"github.com/carelocate/waitline/pkg/ratelimit"
)

// FallbackService resolves one facility's live wait time by trying its
// sources strictly in priority order: website scrape, then API, then the last
// cached value. Scraped data is defined as more accurate than the API but
// less available. Sources are never attempted concurrently for the same
// facility, and a failure never surfaces as an error; it degrades to the
// best cached value with an explicit staleness flag.
type FallbackService struct {
	scrape   providers.WaitSource
	api      providers.WaitSource
	breakers *breaker.Registry
	limiter  *ratelimit.PerProvider
	cache    *LiveCache
	metrics  *observability.Metrics

	fetchTimeout time.Duration
	staleAfter   time.Duration
	now          func() time.Time
}

// FallbackConfig holds the orchestration knobs.
type FallbackConfig struct {
	FetchTimeout time.Duration
	StaleAfter   time.Duration

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// NewFallbackService creates a new fallback orchestrator.
func NewFallbackService(
	scrape providers.WaitSource,
	api providers.WaitSource,
	breakers *breaker.Registry,
	limiter *ratelimit.PerProvider,
	cache *LiveCache,
	metrics *observability.Metrics,
	cfg FallbackConfig,
) *FallbackService {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 8 * time.Second
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 8 * time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &FallbackService{
		scrape:       scrape,
		api:          api,
		breakers:     breakers,
		limiter:      limiter,
		cache:        cache,
		metrics:      metrics,
		fetchTimeout: cfg.FetchTimeout,
		staleAfter:   cfg.StaleAfter,
		now:          now,
	}
}

// Resolve produces the facility's current live wait time. It never returns
// an error; when every source fails it falls back to the last cached value,
// and when none exists it returns nil.
func (s *FallbackService) Resolve(ctx context.Context, facility *entities.Facility) *entities.WaitTime {
	ctx, span := observability.StartSpan(ctx, "fallback.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("facility_id", facility.ID))

	shortCircuited := false

	if facility.WebsiteURL != "" && s.scrape != nil {
		value, open := s.attempt(ctx, facility, s.scrape)
		if value != nil {
			return value
		}
		shortCircuited = shortCircuited || open
	}

	if facility.APIEndpoint != "" && s.api != nil {
		value, open := s.attempt(ctx, facility, s.api)
		if value != nil {
			return value
		}
		shortCircuited = shortCircuited || open
	}

	return s.cachedFallback(facility, shortCircuited)
}

// attempt runs one gated fetch against a single source. The second return
// value reports a breaker-open short circuit, which forces the eventual
// cached fallback to be flagged stale.
func (s *FallbackService) attempt(ctx context.Context, facility *entities.Facility, source providers.WaitSource) (*entities.WaitTime, bool) {
	kind := string(source.Kind())
	logger := observability.LoggerFromContext(ctx)

	br := s.breakers.For(facility.ID, kind)
	if !br.Allow() {
		logger.Debug().
			Str("facility_id", facility.ID).
			Str("source", kind).
			Msg("circuit open, skipping source")
		return nil, true
	}

	if err := s.limiter.Acquire(ctx, kind); err != nil {
		// Context ended while waiting; not the provider's fault. Release the
		// half-open slot so the breaker can admit a later attempt.
		br.CancelProbe()
		return nil, false
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	start := s.now()
	reading, err := source.Fetch(fetchCtx, facility)
	elapsed := s.now().Sub(start)

	if err != nil {
		observability.RecordFetch(ctx, s.metrics, kind, "failure", elapsed)
		if apperrors.IsThrottled(err) {
			br.RecordThrottle()
		} else {
			br.RecordFailure()
		}
		if br.State() == breaker.StateOpen {
			observability.RecordBreakerOpen(ctx, s.metrics, facility.ID, kind)
		}
		logger.Warn().
			Err(err).
			Str("facility_id", facility.ID).
			Str("source", kind).
			Str("circuit", br.State().String()).
			Msg("source fetch failed")
		return nil, false
	}

	br.RecordSuccess()

	if reading == nil {
		// Source answered but published nothing; fall through without
		// penalising it.
		observability.RecordFetch(ctx, s.metrics, kind, "empty", elapsed)
		return nil, false
	}

	observability.RecordFetch(ctx, s.metrics, kind, "success", elapsed)

	value := s.toWaitTime(facility, source.Kind(), reading)
	s.cache.Put(ctx, value)
	return value, false
}

func (s *FallbackService) toWaitTime(facility *entities.Facility, kind entities.WaitSource, reading *providers.Reading) *entities.WaitTime {
	value := &entities.WaitTime{
		FacilityID: facility.ID,
		Source:     kind,
		ObservedAt: s.now(),
	}
	if reading.Closed {
		value.Status = entities.WaitStatusClosed
		return value
	}
	minutes := reading.Minutes
	value.Minutes = &minutes
	value.Status = entities.WaitStatusAvailable
	value.PatientsInLine = reading.PatientsInLine
	return value
}

// cachedFallback returns the last cached value, flagged stale when it exceeds
// the staleness threshold or when a breaker short-circuit forced the
// fallback. Values are never fabricated: no cache entry means nil.
func (s *FallbackService) cachedFallback(facility *entities.Facility, shortCircuited bool) *entities.WaitTime {
	cached, ok := s.cache.Get(facility.ID)
	if !ok {
		return nil
	}
	if shortCircuited || cached.OlderThan(s.staleAfter, s.now()) {
		cached.IsStale = true
	}
	return cached
}
