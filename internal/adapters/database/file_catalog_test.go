package database_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelocate/waitline/internal/adapters/database"
	"github.com/carelocate/waitline/internal/domain/entities"
	apperrors "github.com/carelocate/waitline/pkg/errors"
)

const catalogJSON = `[
	{
		"id": "ed-1",
		"name": "General Hospital ED",
		"location": {"latitude": 40.7128, "longitude": -74.0060},
		"facility_type": "emergency_department",
		"cms_average_minutes": 45
	},
	{
		"id": "uc-1",
		"name": "Riverside Urgent Care",
		"location": {"latitude": 40.72, "longitude": -74.01},
		"facility_type": "urgent_care",
		"website_url": "https://riverside.example.com/wait",
		"api_endpoint": "https://api.riverside.example.com/wait"
	}
]`

func TestFileCatalog_LoadsFacilities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facilities.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o644))

	catalog, err := database.NewFileCatalog(path)
	require.NoError(t, err)

	facilities, err := catalog.List(context.Background())
	require.NoError(t, err)
	require.Len(t, facilities, 2)

	ed, err := catalog.GetByID(context.Background(), "ed-1")
	require.NoError(t, err)
	assert.Equal(t, entities.FacilityTypeEmergencyDepartment, ed.Type)
	require.NotNil(t, ed.CMSAverageMinutes)
	assert.Equal(t, 45, *ed.CMSAverageMinutes)
	assert.False(t, ed.HasLiveSource())

	uc, err := catalog.GetByID(context.Background(), "uc-1")
	require.NoError(t, err)
	assert.Equal(t, entities.FacilityTypeUrgentCare, uc.Type)
	assert.Nil(t, uc.CMSAverageMinutes)
	assert.True(t, uc.HasLiveSource())
}

func TestFileCatalog_UnknownFacility(t *testing.T) {
	catalog := database.NewStaticCatalog(nil)

	_, err := catalog.GetByID(context.Background(), "nope")
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestFileCatalog_MissingFile(t *testing.T) {
	_, err := database.NewFileCatalog(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFileCatalog_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facilities.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := database.NewFileCatalog(path)
	assert.Error(t, err)
}
