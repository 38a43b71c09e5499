package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/carelocate/waitline/internal/domain/entities"
	"github.com/carelocate/waitline/internal/domain/repositories"
	apperrors "github.com/carelocate/waitline/pkg/errors"
)

// FileCatalog implements the FacilityRepository interface over a static JSON
// file. The file is read once at construction; the catalog is immutable.
type FileCatalog struct {
	byID  map[string]*entities.Facility
	order []*entities.Facility
}

// NewFileCatalog loads the catalog from the given JSON file.
func NewFileCatalog(path string) (repositories.FacilityRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var facilities []*entities.Facility
	if err := json.Unmarshal(data, &facilities); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	return NewStaticCatalog(facilities), nil
}

// NewStaticCatalog wraps an in-memory facility list as a repository.
func NewStaticCatalog(facilities []*entities.Facility) repositories.FacilityRepository {
	catalog := &FileCatalog{
		byID:  make(map[string]*entities.Facility, len(facilities)),
		order: facilities,
	}
	for _, f := range facilities {
		catalog.byID[f.ID] = f
	}
	return catalog
}

// GetByID retrieves a facility by ID
func (c *FileCatalog) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	facility, ok := c.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("facility with id %s not found", id))
	}
	return facility, nil
}

// List returns the full facility set
func (c *FileCatalog) List(ctx context.Context) ([]*entities.Facility, error) {
	out := make([]*entities.Facility, len(c.order))
	copy(out, c.order)
	return out, nil
}
