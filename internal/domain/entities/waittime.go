package entities

import "time"

// WaitSource identifies where a wait-time value came from. The four kinds are
// a closed set; every consumer switches over them exhaustively.
type WaitSource string

const (
	// SourceScraped is a value parsed from the facility's public website.
	SourceScraped WaitSource = "scraped"

	// SourceAPI is a value returned by the facility's wait-time API.
	SourceAPI WaitSource = "api"

	// SourceCrowd is an aggregate of anonymous crowd-submitted timestamps.
	SourceCrowd WaitSource = "crowd_sourced"

	// SourceCMSAverage is the static government baseline (EDs only).
	SourceCMSAverage WaitSource = "cms_average"
)

// WaitStatus marks values that carry no minutes figure.
type WaitStatus string

const (
	// WaitStatusAvailable means Minutes holds a usable estimate.
	WaitStatusAvailable WaitStatus = "available"

	// WaitStatusClosed means the facility reported itself closed.
	WaitStatusClosed WaitStatus = "closed"

	// WaitStatusUnavailable means no usable data exists for the facility.
	WaitStatusUnavailable WaitStatus = "unavailable"
)

// WaitTime is one exposed wait-time indicator for a facility. A facility may
// expose up to two at once: one CMS baseline and one live value; they are
// never numerically combined. Entries are replaced wholesale, never mutated.
type WaitTime struct {
	FacilityID     string     `json:"facility_id"`
	Minutes        *int       `json:"minutes,omitempty"`
	Status         WaitStatus `json:"status"`
	Source         WaitSource `json:"source,omitempty"`
	ObservedAt     time.Time  `json:"observed_at"`
	PatientsInLine *int       `json:"patients_in_line,omitempty"`
	IsStale        bool       `json:"is_stale"`
}

// Age returns how old the observation is at the given instant.
func (w *WaitTime) Age(now time.Time) time.Duration {
	return now.Sub(w.ObservedAt)
}

// OlderThan reports whether the observation exceeds the staleness threshold.
func (w *WaitTime) OlderThan(threshold time.Duration, now time.Time) bool {
	return w.Age(now) > threshold
}
