package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelocate/waitline/internal/adapters/events"
	"github.com/carelocate/waitline/internal/application/services"
	apperrors "github.com/carelocate/waitline/pkg/errors"
)

func newCrowdService(sink *events.MemorySink, clock *func() time.Time) *services.CrowdLogService {
	return services.NewCrowdLogService(sink, nil, services.CrowdLogConfig{
		Now: func() time.Time { return (*clock)() },
	})
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCrowdLogService_WeightedAverageOverTwoReports(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clock := fixedClock(now)
	svc := newCrowdService(events.NewMemorySink(), &clock)

	// 20 minute wait, confirmed 10 minutes ago.
	first, err := svc.Submit(ctx, "ed-1", "reporter-a", now.Add(-30*time.Minute))
	require.NoError(t, err)
	_, err = svc.ConfirmSeen(ctx, first.ID, now.Add(-10*time.Minute))
	require.NoError(t, err)

	// 30 minute wait, confirmed 40 minutes ago.
	second, err := svc.Submit(ctx, "ed-1", "reporter-b", now.Add(-70*time.Minute))
	require.NoError(t, err)
	_, err = svc.ConfirmSeen(ctx, second.ID, now.Add(-40*time.Minute))
	require.NoError(t, err)

	estimate, ok := svc.LiveEstimate("ed-1")
	require.True(t, ok)
	assert.Equal(t, 2, estimate.SampleCount)

	// weights 11/12 and 2/3: (20*11/12 + 30*2/3) / (11/12 + 2/3) = 460/19
	assert.InDelta(t, 460.0/19.0, estimate.Minutes, 1e-9)
	assert.Equal(t, 24, estimate.RoundedMinutes())
	assert.Equal(t, now.Add(-10*time.Minute), estimate.LastSeenTime)
}

func TestCrowdLogService_EstimateAbsentWithoutConfirmedReports(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clock := fixedClock(now)
	svc := newCrowdService(events.NewMemorySink(), &clock)

	_, ok := svc.LiveEstimate("ed-1")
	assert.False(t, ok)

	// An unconfirmed check-in contributes nothing.
	_, err := svc.Submit(ctx, "ed-1", "reporter-a", now.Add(-20*time.Minute))
	require.NoError(t, err)
	_, ok = svc.LiveEstimate("ed-1")
	assert.False(t, ok)
}

func TestCrowdLogService_EstimateExpiresAtDecayHorizon(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clock := fixedClock(now)
	svc := newCrowdService(events.NewMemorySink(), &clock)

	crowdLog, err := svc.Submit(ctx, "ed-1", "reporter-a", now.Add(-25*time.Minute))
	require.NoError(t, err)
	_, err = svc.ConfirmSeen(ctx, crowdLog.ID, now)
	require.NoError(t, err)

	_, ok := svc.LiveEstimate("ed-1")
	require.True(t, ok)

	clock = fixedClock(now.Add(2 * time.Hour))
	_, ok = svc.LiveEstimate("ed-1")
	assert.False(t, ok)

	// The expired log was pruned, not merely skipped.
	_, err = svc.ConfirmSeen(ctx, crowdLog.ID, now)
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestCrowdLogService_AbandonedCheckInsArePruned(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clock := fixedClock(now)
	svc := newCrowdService(events.NewMemorySink(), &clock)

	crowdLog, err := svc.Submit(ctx, "ed-1", "reporter-a", now)
	require.NoError(t, err)

	clock = fixedClock(now.Add(5 * time.Hour))
	_, ok := svc.LiveEstimate("ed-1")
	assert.False(t, ok)

	_, err = svc.ConfirmSeen(ctx, crowdLog.ID, now.Add(5*time.Hour))
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestCrowdLogService_ConfirmSeenValidation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clock := fixedClock(now)
	svc := newCrowdService(events.NewMemorySink(), &clock)

	crowdLog, err := svc.Submit(ctx, "ed-1", "reporter-a", now.Add(-10*time.Minute))
	require.NoError(t, err)

	_, err = svc.ConfirmSeen(ctx, crowdLog.ID, now.Add(-20*time.Minute))
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

	_, err = svc.ConfirmSeen(ctx, crowdLog.ID, now)
	require.NoError(t, err)

	// Confirmation is one-shot.
	_, err = svc.ConfirmSeen(ctx, crowdLog.ID, now.Add(time.Minute))
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

	_, err = svc.ConfirmSeen(ctx, "no-such-log", now)
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestCrowdLogService_SubmitValidation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clock := fixedClock(now)
	svc := newCrowdService(events.NewMemorySink(), &clock)

	_, err := svc.Submit(ctx, "", "reporter-a", now)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

	_, err = svc.Submit(ctx, "ed-1", "", now)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestCrowdLogService_DeliversToSink(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clock := fixedClock(now)
	sink := events.NewMemorySink()
	svc := newCrowdService(sink, &clock)

	crowdLog, err := svc.Submit(ctx, "ed-1", "reporter-a", now.Add(-10*time.Minute))
	require.NoError(t, err)
	_, err = svc.ConfirmSeen(ctx, crowdLog.ID, now)
	require.NoError(t, err)

	// Delivered once on submission and again on confirmation. Each delivery
	// is a point-in-time copy, so the first one stays unconfirmed.
	delivered := sink.Delivered()
	require.Len(t, delivered, 2)
	assert.Equal(t, crowdLog.ID, delivered[0].ID)
	assert.Nil(t, delivered[0].SeenTime)
	assert.Equal(t, crowdLog.ID, delivered[1].ID)
	assert.NotNil(t, delivered[1].SeenTime)
}

func TestCrowdLogService_ReturnedLogsAreDetachedFromTheStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clock := fixedClock(now)
	svc := newCrowdService(events.NewMemorySink(), &clock)

	submitted, err := svc.Submit(ctx, "ed-1", "reporter-a", now.Add(-10*time.Minute))
	require.NoError(t, err)

	// A handler goroutine may still be encoding the submitted value when the
	// reporter confirms; the confirmation must not reach back into it.
	confirmed, err := svc.ConfirmSeen(ctx, submitted.ID, now)
	require.NoError(t, err)
	require.NotNil(t, confirmed.SeenTime)
	assert.Nil(t, submitted.SeenTime)

	// Nor does mutating a returned copy corrupt the stored record.
	*confirmed.SeenTime = now.Add(time.Hour)
	confirmed.FacilityID = "elsewhere"

	estimate, ok := svc.LiveEstimate("ed-1")
	require.True(t, ok)
	assert.InDelta(t, 10.0, estimate.Minutes, 1e-9)
	assert.Equal(t, now, estimate.LastSeenTime)
}
