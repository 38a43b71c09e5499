package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PerProvider enforces a minimum spacing between outbound calls to each
// external provider key. Limiting is per key, not global; grants are
// first-come-first-served and the last-acquired timestamp only advances on a
// granted acquisition.
type PerProvider struct {
	mu        sync.Mutex
	interval  time.Duration
	intervals map[string]time.Duration
	limiters  map[string]*rate.Limiter
}

// New creates a limiter that spaces calls to each provider key at least
// minInterval apart.
func New(minInterval time.Duration) *PerProvider {
	return &PerProvider{
		interval:  minInterval,
		intervals: make(map[string]time.Duration),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// SetInterval overrides the spacing for one provider key. It must be called
// before the key's first acquisition.
func (p *PerProvider) SetInterval(providerKey string, interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intervals[providerKey] = interval
}

// Acquire blocks until the provider key's interval has elapsed since the last
// grant, or the context ends.
func (p *PerProvider) Acquire(ctx context.Context, providerKey string) error {
	return p.limiterFor(providerKey).Wait(ctx)
}

// TryAcquire is the non-blocking form: it is refused instead of waiting.
func (p *PerProvider) TryAcquire(providerKey string) bool {
	return p.limiterFor(providerKey).Allow()
}

func (p *PerProvider) limiterFor(providerKey string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.limiters[providerKey]
	if !ok {
		interval := p.interval
		if override, ok := p.intervals[providerKey]; ok {
			interval = override
		}
		l = rate.NewLimiter(rate.Every(interval), 1)
		p.limiters[providerKey] = l
	}
	return l
}
