package repositories

import (
	"context"

	"github.com/carelocate/waitline/internal/domain/entities"
)

// FacilityRepository is the read-only facility catalog: the source of truth
// for which facilities exist and which of them carry a website, an API
// endpoint or a CMS baseline. The catalog is loaded once at startup.
type FacilityRepository interface {
	// GetByID retrieves a facility by ID
	GetByID(ctx context.Context, id string) (*entities.Facility, error)

	// List returns the full facility set
	List(ctx context.Context) ([]*entities.Facility, error)
}
