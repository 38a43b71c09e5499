package entities

import "time"

// GeofenceState is the dwell state of a reporter relative to one facility.
type GeofenceState string

const (
	// GeofenceOutside means the reporter is beyond the facility radius.
	GeofenceOutside GeofenceState = "outside"

	// GeofenceInsidePending means the reporter is inside the radius but has
	// not yet satisfied the minimum dwell.
	GeofenceInsidePending GeofenceState = "inside_pending"

	// GeofenceEligible means the reporter dwelled continuously for at least
	// the minimum duration and may submit crowd logs.
	GeofenceEligible GeofenceState = "eligible"
)

// GeofenceSession tracks one facility's dwell state machine. Sessions are
// created on first proximity detection and destroyed when the reporter exits
// the radius or stops tracking the facility.
type GeofenceSession struct {
	FacilityID        string        `json:"facility_id"`
	State             GeofenceState `json:"state"`
	EnteredAt         time.Time     `json:"entered_at"`
	LastKnownDistance float64       `json:"last_known_distance"`
}
