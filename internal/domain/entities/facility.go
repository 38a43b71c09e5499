package entities

import "math"

// FacilityType distinguishes the two kinds of facilities the engine tracks.
type FacilityType string

const (
	// FacilityTypeEmergencyDepartment is a 24/7 emergency department with a CMS baseline.
	FacilityTypeEmergencyDepartment FacilityType = "emergency_department"

	// FacilityTypeUrgentCare is a limited-hours urgent care without a CMS baseline.
	FacilityTypeUrgentCare FacilityType = "urgent_care"
)

// Facility represents one tracked healthcare facility. Facilities are loaded
// once from the catalog at startup and are immutable afterwards.
type Facility struct {
	ID                string       `json:"id" db:"id"`
	Name              string       `json:"name" db:"name"`
	Location          Location     `json:"location" db:"-"`
	Type              FacilityType `json:"facility_type" db:"facility_type"`
	CMSAverageMinutes *int         `json:"cms_average_minutes,omitempty" db:"cms_average_minutes"`
	APIEndpoint       string       `json:"api_endpoint,omitempty" db:"api_endpoint"`
	WebsiteURL        string       `json:"website_url,omitempty" db:"website_url"`
}

// HasLiveSource reports whether the facility has at least one fetchable
// external source (website or API).
func (f *Facility) HasLiveSource() bool {
	return f.WebsiteURL != "" || f.APIEndpoint != ""
}

// Location represents geographical coordinates.
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// DistanceMeters returns the great-circle distance to another location using
// the Haversine formula.
func (l Location) DistanceMeters(other Location) float64 {
	const earthRadiusMeters = 6371000.0

	lat1 := toRadians(l.Latitude)
	lat2 := toRadians(other.Latitude)
	deltaLat := toRadians(other.Latitude - l.Latitude)
	deltaLon := toRadians(other.Longitude - l.Longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
