package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/carelocate/waitline/internal/domain/entities"
)

func confirmedLog(seen time.Time, wait time.Duration) *entities.CrowdLog {
	return &entities.CrowdLog{
		ID:          "log-1",
		FacilityID:  "fac-1",
		ReporterID:  "reporter-1",
		CheckInTime: seen.Add(-wait),
		SeenTime:    &seen,
	}
}

func TestCrowdLog_WeightDecaysLinearlyToZero(t *testing.T) {
	seen := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	log := confirmedLog(seen, 20*time.Minute)

	assert.InDelta(t, 1.0, log.Weight(seen), 1e-9)
	assert.InDelta(t, 0.5, log.Weight(seen.Add(time.Hour)), 1e-9)
	assert.InDelta(t, 1.0-600.0/7200.0, log.Weight(seen.Add(10*time.Minute)), 1e-9)

	// Exactly zero at the horizon, not merely small.
	assert.Zero(t, log.Weight(seen.Add(2*time.Hour)))
	assert.Zero(t, log.Weight(seen.Add(3*time.Hour)))
}

func TestCrowdLog_WeightIsMonotonicallyNonIncreasing(t *testing.T) {
	seen := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	log := confirmedLog(seen, 15*time.Minute)

	prev := log.Weight(seen)
	for elapsed := time.Minute; elapsed <= 3*time.Hour; elapsed += 7 * time.Minute {
		w := log.Weight(seen.Add(elapsed))
		assert.LessOrEqual(t, w, prev)
		prev = w
	}
}

func TestCrowdLog_UnconfirmedWeighsNothing(t *testing.T) {
	log := &entities.CrowdLog{
		ID:          "log-2",
		FacilityID:  "fac-1",
		CheckInTime: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}

	assert.False(t, log.Confirmed())
	assert.Zero(t, log.Weight(log.CheckInTime.Add(time.Minute)))
	assert.Zero(t, log.WaitMinutes())
}

func TestCrowdLog_WaitMinutes(t *testing.T) {
	seen := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	log := confirmedLog(seen, 42*time.Minute)

	assert.True(t, log.Confirmed())
	assert.InDelta(t, 42.0, log.WaitMinutes(), 1e-9)
}
