package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/carelocate/waitline/internal/domain/entities"
	"github.com/carelocate/waitline/internal/domain/providers"
)

const (
	liveCacheKeyPrefix = "waitline:live:"

	// Mirrored snapshots outlive the 8h staleness threshold so a restarted
	// process can still serve a flagged-stale value instead of nothing.
	liveCacheMirrorTTLSeconds = 24 * 60 * 60
)

type liveEntry struct {
	mu    sync.Mutex
	value *entities.WaitTime
}

// LiveCache holds the latest live wait-time per facility. Entries are locked
// per facility so one slow facility cannot block updates to others. Writes
// are ordered by ObservedAt, not by completion order, so a slow fetch that
// finishes last cannot overwrite a newer observation.
//
// When a remote CacheProvider is attached, accepted values are mirrored there
// and can be restored after a restart.
type LiveCache struct {
	mu      sync.RWMutex
	entries map[string]*liveEntry
	remote  providers.CacheProvider
}

// NewLiveCache creates an empty cache. remote may be nil.
func NewLiveCache(remote providers.CacheProvider) *LiveCache {
	return &LiveCache{
		entries: make(map[string]*liveEntry),
		remote:  remote,
	}
}

func (c *LiveCache) entryFor(facilityID string) *liveEntry {
	c.mu.RLock()
	e, ok := c.entries[facilityID]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok = c.entries[facilityID]; ok {
		return e
	}
	e = &liveEntry{}
	c.entries[facilityID] = e
	return e
}

// Get returns the latest live value for a facility, if any.
func (c *LiveCache) Get(facilityID string) (*entities.WaitTime, bool) {
	e := c.entryFor(facilityID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.value == nil {
		return nil, false
	}
	v := *e.value
	return &v, true
}

// Put stores a value unless a newer observation is already present. It
// reports whether the value was accepted.
func (c *LiveCache) Put(ctx context.Context, value *entities.WaitTime) bool {
	e := c.entryFor(value.FacilityID)

	e.mu.Lock()
	if e.value != nil && e.value.ObservedAt.After(value.ObservedAt) {
		e.mu.Unlock()
		return false
	}
	stored := *value
	e.value = &stored
	e.mu.Unlock()

	c.mirror(ctx, value)
	return true
}

func (c *LiveCache) mirror(ctx context.Context, value *entities.WaitTime) {
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.remote.Set(ctx, liveCacheKeyPrefix+value.FacilityID, data, liveCacheMirrorTTLSeconds); err != nil {
		log.Warn().Err(err).Str("facility_id", value.FacilityID).Msg("failed to mirror wait time to remote cache")
	}
}

// Restore warms the cache from the remote mirror for the given facilities.
// Missing keys are skipped silently; a restart with an empty mirror is fine.
func (c *LiveCache) Restore(ctx context.Context, facilityIDs []string) {
	if c.remote == nil {
		return
	}
	restored := 0
	for _, id := range facilityIDs {
		data, err := c.remote.Get(ctx, liveCacheKeyPrefix+id)
		if err != nil {
			continue
		}
		var value entities.WaitTime
		if err := json.Unmarshal(data, &value); err != nil {
			continue
		}

		e := c.entryFor(id)
		e.mu.Lock()
		if e.value == nil || value.ObservedAt.After(e.value.ObservedAt) {
			e.value = &value
			restored++
		}
		e.mu.Unlock()
	}
	if restored > 0 {
		log.Info().Int("restored", restored).Msg("restored wait times from remote cache")
	}
}
