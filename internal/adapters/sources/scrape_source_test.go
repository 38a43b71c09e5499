package sources_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelocate/waitline/internal/adapters/sources"
	"github.com/carelocate/waitline/internal/domain/entities"
	apperrors "github.com/carelocate/waitline/pkg/errors"
)

func scrapeFacility(url string) *entities.Facility {
	return &entities.Facility{
		ID:         "uc-1",
		Type:       entities.FacilityTypeUrgentCare,
		WebsiteURL: url,
	}
}

func servePage(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestScrapeSource_ExtractsPostedWait(t *testing.T) {
	tests := []struct {
		name        string
		page        string
		wantMinutes int
	}{
		{"plain minutes", `<p>Current wait time: 25 minutes</p>`, 25},
		{"estimated wait", `Estimated wait: 8 min`, 8},
		{"hours and minutes", `<div>Wait time: 1 hr 30 min</div>`, 90},
		{"hours only", `Your wait is about 2 hours`, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := servePage(t, tt.page)
			source := sources.NewScrapeSource(5 * time.Second)

			reading, err := source.Fetch(context.Background(), scrapeFacility(server.URL))
			require.NoError(t, err)
			require.NotNil(t, reading)
			assert.Equal(t, tt.wantMinutes, reading.Minutes)
		})
	}
}

func TestScrapeSource_ExtractsPatientsInLine(t *testing.T) {
	server := servePage(t, `<p>Current wait: 20 minutes</p><p>5 patients in line</p>`)
	source := sources.NewScrapeSource(5 * time.Second)

	reading, err := source.Fetch(context.Background(), scrapeFacility(server.URL))
	require.NoError(t, err)
	require.NotNil(t, reading.PatientsInLine)
	assert.Equal(t, 5, *reading.PatientsInLine)
}

func TestScrapeSource_ClosedPage(t *testing.T) {
	server := servePage(t, `<h1>We are currently closed</h1>`)
	source := sources.NewScrapeSource(5 * time.Second)

	reading, err := source.Fetch(context.Background(), scrapeFacility(server.URL))
	require.NoError(t, err)
	require.NotNil(t, reading)
	assert.True(t, reading.Closed)
}

func TestScrapeSource_NoFigurePostedIsNotAnError(t *testing.T) {
	server := servePage(t, `<p>Wait times are unavailable. Please call for wait details.</p>`)
	source := sources.NewScrapeSource(5 * time.Second)

	reading, err := source.Fetch(context.Background(), scrapeFacility(server.URL))
	assert.NoError(t, err)
	assert.Nil(t, reading)
}

func TestScrapeSource_UnparseablePage(t *testing.T) {
	server := servePage(t, `<html><body>Welcome to our clinic!</body></html>`)
	source := sources.NewScrapeSource(5 * time.Second)

	_, err := source.Fetch(context.Background(), scrapeFacility(server.URL))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeParse, apperrors.TypeOf(err))
}

func TestScrapeSource_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	source := sources.NewScrapeSource(5 * time.Second)
	_, err := source.Fetch(context.Background(), scrapeFacility(server.URL))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeNetwork, apperrors.TypeOf(err))
}

func TestScrapeSource_UnreachableHost(t *testing.T) {
	source := sources.NewScrapeSource(time.Second)
	_, err := source.Fetch(context.Background(), scrapeFacility("http://127.0.0.1:1/wait"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeNetwork, apperrors.TypeOf(err))
}

func TestScrapeSource_MissingWebsite(t *testing.T) {
	source := sources.NewScrapeSource(5 * time.Second)
	_, err := source.Fetch(context.Background(), &entities.Facility{ID: "uc-1"})
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}
