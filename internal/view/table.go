// Package view prepares the annotated vessel table a presentation adapter
// consumes. Styling stops here: adapters receive plain rows plus derived
// marker hints and decide rendering themselves.
package view

import (
	"github.com/fsru-tools/fleet-timeline/internal/detect"
	"github.com/fsru-tools/fleet-timeline/internal/geo"
	"github.com/fsru-tools/fleet-timeline/pkg/core"
)

// Marker styling hints for scatterplot-style layers. Changed vessels get
// the bright gold enlarged marker, everything else the default red.
var (
	markerChanged = core.MarkerStyle{Color: [4]uint8{255, 215, 0, 200}, Radius: 150000}
	markerDefault = core.MarkerStyle{Color: [4]uint8{200, 30, 0, 160}, Radius: 100000}
)

// BuildFrame assembles the presentation table for one selected snapshot.
// Row order follows the vessel order of the snapshot file. Vessels without
// coordinates keep their row (unclassified, default-styled) but carry no
// projected position.
func BuildFrame(index int, snap core.Snapshot, vessels []core.VesselRecord, changes detect.ChangeSet) core.Frame {
	rows := make([]core.VesselRow, 0, len(vessels))
	for _, v := range vessels {
		row := core.VesselRow{
			Name:             v.Name,
			Latitude:         v.Lat,
			Longitude:        v.Lon,
			TypeSpecific:     v.TypeSpecific,
			NavigationStatus: v.NavigationStatus,
			CountryISO:       v.CountryISO,
			Changed:          changes.Contains(v.Name),
			Marker:           markerDefault,
		}
		if row.Changed {
			row.Marker = markerChanged
		}
		if pos, ok := v.Position(); ok {
			if point, err := geo.Coords3857From4326(pos.Lon, pos.Lat); err == nil {
				if coords, valid := point.Coordinates(); valid {
					x, y := coords.X, coords.Y
					row.WebMercatorX = &x
					row.WebMercatorY = &y
				}
			}
		}
		rows = append(rows, row)
	}

	return core.Frame{
		Index:        index,
		Timestamp:    snap.Timestamp,
		SourcePath:   snap.SourcePath,
		Rows:         rows,
		ChangedNames: changes.Names(),
	}
}
