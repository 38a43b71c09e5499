package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/carelocate/waitline/internal/domain/entities"
	"github.com/carelocate/waitline/internal/domain/repositories"
	"github.com/carelocate/waitline/internal/infrastructure/clients/postgres"
	apperrors "github.com/carelocate/waitline/pkg/errors"
)

// FacilityAdapter implements the FacilityRepository interface over Postgres.
type FacilityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFacilityAdapter creates a new facility adapter
func NewFacilityAdapter(client *postgres.Client) repositories.FacilityRepository {
	return &FacilityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var facilityColumns = []interface{}{
	"id", "name", "latitude", "longitude", "facility_type",
	"cms_average_minutes", "api_endpoint", "website_url",
}

// GetByID retrieves a facility by ID
func (a *FacilityAdapter) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	query, args, err := a.db.From("facilities").
		Select(facilityColumns...).
		Where(goqu.Ex{"id": id, "is_active": true}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build facility query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	facility, err := scanFacility(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("facility with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get facility", err)
	}

	return facility, nil
}

// List returns the full active facility set
func (a *FacilityAdapter) List(ctx context.Context) ([]*entities.Facility, error) {
	query, args, err := a.db.From("facilities").
		Select(facilityColumns...).
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build facility list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list facilities", err)
	}
	defer rows.Close()

	var facilities []*entities.Facility
	for rows.Next() {
		facility, err := scanFacility(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan facility", err)
		}
		facilities = append(facilities, facility)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate facilities", err)
	}

	return facilities, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFacility(row rowScanner) (*entities.Facility, error) {
	var (
		facility    entities.Facility
		cmsMinutes  sql.NullInt64
		apiEndpoint sql.NullString
		websiteURL  sql.NullString
	)

	err := row.Scan(
		&facility.ID,
		&facility.Name,
		&facility.Location.Latitude,
		&facility.Location.Longitude,
		&facility.Type,
		&cmsMinutes,
		&apiEndpoint,
		&websiteURL,
	)
	if err != nil {
		return nil, err
	}

	if cmsMinutes.Valid {
		minutes := int(cmsMinutes.Int64)
		facility.CMSAverageMinutes = &minutes
	}
	facility.APIEndpoint = apiEndpoint.String
	facility.WebsiteURL = websiteURL.String

	return &facility, nil
}
