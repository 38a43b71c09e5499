package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/carelocate/waitline/internal/domain/entities"
	"github.com/carelocate/waitline/internal/domain/providers"
	apperrors "github.com/carelocate/waitline/pkg/errors"
)

// APISource fetches a facility's structured wait-time endpoint. One call,
// no retries; the caller bounds the context.
type APISource struct {
	httpClient *http.Client
}

// NewAPISource creates a new API source fetcher.
func NewAPISource(timeout time.Duration) *APISource {
	return &APISource{
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ providers.WaitSource = (*APISource)(nil)

// Kind identifies readings from this fetcher as API values.
func (s *APISource) Kind() entities.WaitSource {
	return entities.SourceAPI
}

type apiQueue struct {
	CurrentWait    *int `json:"current_wait"`
	PatientsInLine int  `json:"patients_in_line"`
}

type apiResponse struct {
	CurrentWait    *int       `json:"current_wait"`
	PatientsInLine *int       `json:"patients_in_line"`
	Queues         []apiQueue `json:"queues"`
	Closed         bool       `json:"closed"`
}

// Fetch performs one GET against the facility's API endpoint and normalizes
// the response. Patient counts split across sub-queues are summed; the wait
// figure is the top-level current_wait, falling back to the worst queue.
func (s *APISource) Fetch(ctx context.Context, facility *entities.Facility) (*providers.Reading, error) {
	if facility.APIEndpoint == "" {
		return nil, apperrors.NewValidationError("facility has no API endpoint")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, facility.APIEndpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build API request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("api", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus("api", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.NewParseError("api returned malformed JSON", err)
	}

	return normalizeAPIResponse(&body)
}

func normalizeAPIResponse(body *apiResponse) (*providers.Reading, error) {
	if body.Closed {
		return &providers.Reading{Closed: true}, nil
	}

	minutes := body.CurrentWait
	patients := body.PatientsInLine

	if len(body.Queues) > 0 {
		sum := 0
		worst := 0
		for _, q := range body.Queues {
			sum += q.PatientsInLine
			if q.CurrentWait != nil && *q.CurrentWait > worst {
				worst = *q.CurrentWait
			}
		}
		patients = &sum
		if minutes == nil {
			minutes = &worst
		}
	}

	if minutes == nil {
		return nil, apperrors.NewParseError("api response has no current_wait", nil)
	}
	if *minutes < 0 {
		return nil, apperrors.NewParseError("api reported a negative wait", nil)
	}

	return &providers.Reading{
		Minutes:        *minutes,
		PatientsInLine: patients,
	}, nil
}
