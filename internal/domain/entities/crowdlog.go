package entities

import "time"

// CrowdDecayHorizon is the age at which a confirmed crowd log's weight
// reaches exactly zero.
const CrowdDecayHorizon = 2 * time.Hour

// CrowdLog is one anonymous check-in/seen-time report for a facility.
// ReporterID is a device+day hash and carries no PII. A log is mutated
// exactly once, when SeenTime is set on user confirmation.
type CrowdLog struct {
	ID          string     `json:"id"`
	FacilityID  string     `json:"facility_id"`
	ReporterID  string     `json:"reporter_id"`
	CheckInTime time.Time  `json:"check_in_time"`
	SeenTime    *time.Time `json:"seen_time,omitempty"`
}

// Snapshot returns a detached copy, safe to hand across goroutine
// boundaries while the stored record awaits confirmation.
func (l *CrowdLog) Snapshot() *CrowdLog {
	copied := *l
	if l.SeenTime != nil {
		seen := *l.SeenTime
		copied.SeenTime = &seen
	}
	return &copied
}

// Confirmed reports whether the reporter has confirmed being seen.
func (l *CrowdLog) Confirmed() bool {
	return l.SeenTime != nil
}

// WaitMinutes returns the reported wait duration in minutes. It is only
// meaningful for confirmed logs.
func (l *CrowdLog) WaitMinutes() float64 {
	if l.SeenTime == nil {
		return 0
	}
	return l.SeenTime.Sub(l.CheckInTime).Minutes()
}

// Weight returns the decay weight of the log at the given instant:
// max(0, 1 - elapsed/horizon), linear in the time since SeenTime,
// monotonically non-increasing, exactly 0 at the horizon. Unconfirmed logs
// weigh nothing.
func (l *CrowdLog) Weight(now time.Time) float64 {
	if l.SeenTime == nil {
		return 0
	}
	elapsed := now.Sub(*l.SeenTime)
	if elapsed < 0 {
		return 1
	}
	if elapsed >= CrowdDecayHorizon {
		return 0
	}
	return 1 - elapsed.Seconds()/CrowdDecayHorizon.Seconds()
}
