// pkg/core/vessel.go
package core

import "time"

// Position is a WGS84 latitude/longitude pair in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// VesselRecord is one vessel as reported inside a snapshot file.
// Name is the identity key for matching vessels across snapshots.
// Lat and Lon are nil when the feed omitted them; such records are
// excluded from distance comparison but may still be displayed.
type VesselRecord struct {
	Name             string   `json:"name"`
	Lat              *float64 `json:"lat"`
	Lon              *float64 `json:"lon"`
	TypeSpecific     string   `json:"type_specific,omitempty"`
	NavigationStatus string   `json:"navigation_status,omitempty"`
	CountryISO       string   `json:"country_iso,omitempty"`
}

// HasPosition reports whether both coordinates are present.
func (v VesselRecord) HasPosition() bool {
	return v.Lat != nil && v.Lon != nil
}

// Position returns the vessel position and whether it is present.
func (v VesselRecord) Position() (Position, bool) {
	if !v.HasPosition() {
		return Position{}, false
	}
	return Position{Lat: *v.Lat, Lon: *v.Lon}, true
}

// Snapshot identifies one timestamped snapshot file on disk.
// SourcePath is the identity; Timestamp is the ordering key.
type Snapshot struct {
	Timestamp  time.Time `json:"timestamp"`
	SourcePath string    `json:"sourcePath"`
}
