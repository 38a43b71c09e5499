package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelocate/waitline/internal/adapters/cache"
	"github.com/carelocate/waitline/internal/application/services"
	"github.com/carelocate/waitline/internal/domain/entities"
)

func intPtr(v int) *int { return &v }

func TestLiveCache_RejectsOlderObservations(t *testing.T) {
	ctx := context.Background()
	c := services.NewLiveCache(nil)
	observed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	require.True(t, c.Put(ctx, &entities.WaitTime{
		FacilityID: "uc-1",
		Minutes:    intPtr(25),
		Status:     entities.WaitStatusAvailable,
		Source:     entities.SourceScraped,
		ObservedAt: observed,
	}))

	// A slow fetch that finishes after a newer one must not win.
	accepted := c.Put(ctx, &entities.WaitTime{
		FacilityID: "uc-1",
		Minutes:    intPtr(40),
		Status:     entities.WaitStatusAvailable,
		Source:     entities.SourceAPI,
		ObservedAt: observed.Add(-time.Minute),
	})
	assert.False(t, accepted)

	value, ok := c.Get("uc-1")
	require.True(t, ok)
	assert.Equal(t, 25, *value.Minutes)
	assert.Equal(t, entities.SourceScraped, value.Source)
}

func TestLiveCache_GetReturnsACopy(t *testing.T) {
	ctx := context.Background()
	c := services.NewLiveCache(nil)

	require.True(t, c.Put(ctx, &entities.WaitTime{
		FacilityID: "uc-1",
		Minutes:    intPtr(25),
		Status:     entities.WaitStatusAvailable,
		Source:     entities.SourceScraped,
		ObservedAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}))

	value, ok := c.Get("uc-1")
	require.True(t, ok)
	value.IsStale = true

	again, ok := c.Get("uc-1")
	require.True(t, ok)
	assert.False(t, again.IsStale)
}

func TestLiveCache_MissingFacility(t *testing.T) {
	c := services.NewLiveCache(nil)

	_, ok := c.Get("uc-unknown")
	assert.False(t, ok)
}

func TestLiveCache_RestoreFromRemoteMirror(t *testing.T) {
	ctx := context.Background()
	remote := cache.NewMemoryAdapter()
	observed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	first := services.NewLiveCache(remote)
	require.True(t, first.Put(ctx, &entities.WaitTime{
		FacilityID: "uc-1",
		Minutes:    intPtr(25),
		Status:     entities.WaitStatusAvailable,
		Source:     entities.SourceScraped,
		ObservedAt: observed,
	}))

	// A fresh process restores the mirrored snapshot.
	second := services.NewLiveCache(remote)
	second.Restore(ctx, []string{"uc-1", "uc-never-seen"})

	value, ok := second.Get("uc-1")
	require.True(t, ok)
	assert.Equal(t, 25, *value.Minutes)
	assert.Equal(t, entities.SourceScraped, value.Source)
	assert.True(t, value.ObservedAt.Equal(observed))
}
