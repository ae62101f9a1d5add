package view

import (
	"encoding/json"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/fsru-tools/fleet-timeline/internal/geo"
	"github.com/fsru-tools/fleet-timeline/pkg/core"
)

// FrameGeoJSON renders a frame as a GeoJSON FeatureCollection for map
// adapters that consume features directly. Rows without coordinates have
// no geometry and are omitted; they only exist in the tabular output.
func FrameGeoJSON(frame core.Frame) ([]byte, error) {
	features := make(geom.GeoJSONFeatureCollection, 0, len(frame.Rows))
	for _, row := range frame.Rows {
		if row.Latitude == nil || row.Longitude == nil {
			continue
		}
		point := geo.PointFromLatLon(*row.Latitude, *row.Longitude)
		features = append(features, geom.GeoJSONFeature{
			Geometry: point.AsGeometry(),
			Properties: map[string]any{
				"name":              row.Name,
				"type_specific":     row.TypeSpecific,
				"navigation_status": row.NavigationStatus,
				"country_iso":       row.CountryISO,
				"changed":           row.Changed,
			},
		})
	}
	return json.Marshal(features)
}
