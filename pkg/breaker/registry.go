package breaker

import "sync"

type key struct {
	facilityID string
	source     string
}

// Registry hands out one Breaker per (facility, source) pair so a failing
// pair cannot cascade into unrelated facilities or sources.
type Registry struct {
	mu       sync.Mutex
	cfg      Config
	breakers map[key]*Breaker
}

// NewRegistry creates an empty registry; breakers are created on first use.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg,
		breakers: make(map[key]*Breaker),
	}
}

// For returns the breaker for the given facility/source pair, creating it if
// needed.
func (r *Registry) For(facilityID, source string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{facilityID: facilityID, source: source}
	b, ok := r.breakers[k]
	if !ok {
		b = New(r.cfg)
		r.breakers[k] = b
	}
	return b
}
