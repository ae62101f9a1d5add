package core

import "time"

// MarkerStyle is the derived styling for one map marker. The color is
// RGBA; the radius is in meters at the equator, matching what deck-style
// scatterplot layers expect.
type MarkerStyle struct {
	Color  [4]uint8 `json:"color"`
	Radius float64  `json:"radius"`
}

// VesselRow is one row of the prepared presentation table handed to a
// presentation adapter. WebMercatorX/Y are EPSG:3857 coordinates for map
// widgets and are nil when the vessel has no position.
type VesselRow struct {
	Name             string      `json:"name"`
	Latitude         *float64    `json:"latitude"`
	Longitude        *float64    `json:"longitude"`
	TypeSpecific     string      `json:"typeSpecific,omitempty"`
	NavigationStatus string      `json:"navigationStatus,omitempty"`
	CountryISO       string      `json:"countryIso,omitempty"`
	Changed          bool        `json:"changed"`
	Marker           MarkerStyle `json:"marker"`
	WebMercatorX     *float64    `json:"webMercatorX,omitempty"`
	WebMercatorY     *float64    `json:"webMercatorY,omitempty"`
}

// Frame is the fully prepared output for one selected snapshot: the
// annotated vessel table plus the changed-name list for status displays.
type Frame struct {
	Index        int         `json:"index"`
	Timestamp    time.Time   `json:"timestamp"`
	SourcePath   string      `json:"sourcePath"`
	Rows         []VesselRow `json:"rows"`
	ChangedNames []string    `json:"changedNames"`
}
