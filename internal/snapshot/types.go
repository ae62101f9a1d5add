package snapshot

// Wire shapes for snapshot files. Feeds have been observed with the vessel
// list either nested under "data" or at the top level, so both are decoded
// from the same envelope.

type vesselJSON struct {
	Name             *string  `json:"name"`
	Lat              *float64 `json:"lat"`
	Lon              *float64 `json:"lon"`
	TypeSpecific     *string  `json:"type_specific"`
	NavigationStatus *string  `json:"navigation_status"`
	CountryISO       *string  `json:"country_iso"`
}

type dataJSON struct {
	Vessels []vesselJSON `json:"vessels"`
}

type envelopeJSON struct {
	Data    *dataJSON    `json:"data"`
	Vessels []vesselJSON `json:"vessels"`
}
