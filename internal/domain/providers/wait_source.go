package providers

import (
	"context"

	"github.com/carelocate/waitline/internal/domain/entities"
)

// Reading is a normalized wait-time observation from one external source.
// A nil *Reading with a nil error means the source answered but published no
// figure; the orchestrator falls through without penalising the source.
type Reading struct {
	Minutes        int
	PatientsInLine *int
	Closed         bool
}

// WaitSource is a single-attempt, timeout-bounded fetcher for one kind of
// external wait-time source. Implementations never retry; retry policy
// belongs to the refresh cycle and the circuit breaker.
type WaitSource interface {
	// Kind identifies which WaitSource variant this fetcher produces.
	Kind() entities.WaitSource

	// Fetch performs one bounded call against the facility's source and
	// returns a normalized reading or a typed failure (pkg/errors).
	Fetch(ctx context.Context, facility *entities.Facility) (*Reading, error)
}
