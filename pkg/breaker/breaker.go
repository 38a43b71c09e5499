package breaker

import (
	"fmt"
	"sync"
	"time"
)

// State is the circuit state for one facility/source pair.
type State int

const (
	// StateClosed allows attempts.
	StateClosed State = iota

	// StateOpen suppresses attempts until the cooldown elapses.
	StateOpen

	// StateHalfOpen allows exactly one probe.
	StateHalfOpen
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds breaker tuning.
type Config struct {
	// FailureThreshold is the consecutive-failure count that opens the circuit.
	FailureThreshold int

	// BaseCooldown is the open duration before the first probe; it doubles
	// per consecutive reopen.
	BaseCooldown time.Duration

	// MaxBackoffExponent caps the doubling.
	MaxBackoffExponent int

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultConfig matches the engine defaults: 3 failures, 60s base cooldown,
// cooldown capped at base<<6 (64 minutes).
func DefaultConfig() Config {
	return Config{
		FailureThreshold:   3,
		BaseCooldown:       60 * time.Second,
		MaxBackoffExponent: 6,
	}
}

// Breaker tracks consecutive failures for one facility/source pair and gates
// whether an attempt is even made. State persists for the process lifetime
// and resets only through successful probes.
type Breaker struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	state               State
	consecutiveFailures int
	openedAt            time.Time
	backoffExponent     int
	probeInFlight       bool
}

// New creates a closed breaker.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.BaseCooldown <= 0 {
		cfg.BaseCooldown = 60 * time.Second
	}
	if cfg.MaxBackoffExponent <= 0 {
		cfg.MaxBackoffExponent = 6
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Breaker{cfg: cfg, now: now, state: StateClosed}
}

// Allow reports whether an attempt may be made right now. While open it
// returns false until the cooldown elapses, at which point the breaker moves
// to half-open and admits exactly one probe; further calls return false until
// that probe is recorded.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown() {
			return false
		}
		b.state = StateHalfOpen
		b.probeInFlight = true
		return true
	case StateHalfOpen:
		if b.probeInFlight {
			return false
		}
		b.probeInFlight = true
		return true
	default:
		return false
	}
}

// CancelProbe releases the half-open slot when an admitted attempt was
// abandoned before reaching the provider, e.g. on a dead context. The circuit
// state is unchanged; the next Allow may admit a fresh probe.
func (b *Breaker) CancelProbe() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeInFlight = false
}

// RecordSuccess resets the breaker to closed with zero failures.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.consecutiveFailures = 0
	b.backoffExponent = 0
	b.probeInFlight = false
}

// RecordFailure registers one failed attempt. In closed state it opens the
// circuit at the failure threshold; in half-open state it reopens with an
// increased backoff exponent.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recordFailureLocked(false)
}

// RecordThrottle registers provider pushback: a failure that additionally
// raises the backoff exponent so the next cooldown is extended.
func (b *Breaker) RecordThrottle() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recordFailureLocked(true)
}

func (b *Breaker) recordFailureLocked(extendBackoff bool) {
	switch b.state {
	case StateClosed:
		b.consecutiveFailures++
		if extendBackoff {
			b.raiseExponent()
		}
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.trip()
		}
	case StateHalfOpen:
		b.raiseExponent()
		if extendBackoff {
			b.raiseExponent()
		}
		b.trip()
	case StateOpen:
		// Attempts are suppressed while open; a straggling completion from a
		// probe issued earlier still reopens the window.
		b.openedAt = b.now()
	}
	b.probeInFlight = false
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.now()
}

func (b *Breaker) raiseExponent() {
	if b.backoffExponent < b.cfg.MaxBackoffExponent {
		b.backoffExponent++
	}
}

func (b *Breaker) cooldown() time.Duration {
	return b.cfg.BaseCooldown << uint(b.backoffExponent)
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ConsecutiveFailures returns the current failure streak.
func (b *Breaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures
}
