package sources

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/carelocate/waitline/internal/domain/entities"
	"github.com/carelocate/waitline/internal/domain/providers"
	apperrors "github.com/carelocate/waitline/pkg/errors"
)

// Facility websites publish wait times in a handful of textual shapes; the
// patterns below cover the ones seen in the wild. Scraped values are defined
// as more accurate than the API but less available, hence the permissive
// matching and the explicit "no figure posted" outcome.
var (
	waitPattern     = regexp.MustCompile(`(?i)(?:current\s+|estimated\s+)?wait(?:\s*time)?\D{0,24}?(\d{1,3})\s*(?:min|minute)`)
	hourWaitPattern = regexp.MustCompile(`(?i)wait(?:\s*time)?\D{0,24}?(\d{1,2})\s*(?:hr|hour)s?(?:\s*(\d{1,2})\s*min)?`)
	patientsPattern = regexp.MustCompile(`(?i)(\d{1,3})\s+patients?\s+(?:in\s+line|waiting|ahead)`)
	closedPattern   = regexp.MustCompile(`(?i)(?:currently|now)\s+closed|closed\s+(?:today|now)`)
	noPostPattern   = regexp.MustCompile(`(?i)wait\s*times?\s+(?:are\s+)?(?:unavailable|not\s+(?:posted|available))|call\s+for\s+wait`)

	maxScrapeBody = int64(1 << 20) // 1 MiB
)

// ScrapeSource fetches and parses a facility's public wait-time page.
type ScrapeSource struct {
	httpClient *http.Client
	userAgent  string
}

// NewScrapeSource creates a new website scrape fetcher.
func NewScrapeSource(timeout time.Duration) *ScrapeSource {
	return &ScrapeSource{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "waitline/1.0",
	}
}

var _ providers.WaitSource = (*ScrapeSource)(nil)

// Kind identifies readings from this fetcher as scraped values.
func (s *ScrapeSource) Kind() entities.WaitSource {
	return entities.SourceScraped
}

// Fetch performs one GET against the facility's website and extracts the
// posted wait. A page that explicitly says no figure is posted yields a nil
// reading with no error; a page we cannot interpret is a parse failure.
func (s *ScrapeSource) Fetch(ctx context.Context, facility *entities.Facility) (*providers.Reading, error) {
	if facility.WebsiteURL == "" {
		return nil, apperrors.NewValidationError("facility has no website URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, facility.WebsiteURL, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build scrape request", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("scrape", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus("scrape", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeBody))
	if err != nil {
		return nil, classifyTransportError("scrape", err)
	}

	return parseWaitPage(string(body))
}

func parseWaitPage(page string) (*providers.Reading, error) {
	if closedPattern.MatchString(page) {
		return &providers.Reading{Closed: true}, nil
	}
	if noPostPattern.MatchString(page) {
		// Source is healthy, it just has nothing posted.
		return nil, nil
	}

	minutes, ok := extractMinutes(page)
	if !ok {
		return nil, apperrors.NewParseError("no wait figure found on page", nil)
	}

	reading := &providers.Reading{Minutes: minutes}
	if m := patientsPattern.FindStringSubmatch(page); m != nil {
		if patients, err := strconv.Atoi(m[1]); err == nil {
			reading.PatientsInLine = &patients
		}
	}
	return reading, nil
}

func extractMinutes(page string) (int, bool) {
	if m := waitPattern.FindStringSubmatch(page); m != nil {
		minutes, err := strconv.Atoi(m[1])
		if err == nil && minutes >= 0 {
			return minutes, true
		}
	}
	if m := hourWaitPattern.FindStringSubmatch(page); m != nil {
		hours, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		minutes := hours * 60
		if m[2] != "" {
			if extra, err := strconv.Atoi(m[2]); err == nil {
				minutes += extra
			}
		}
		return minutes, true
	}
	return 0, false
}
