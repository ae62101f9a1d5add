package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Vessel feeds report WGS84 (EPSG:4326) coordinates. Map widgets want Web
// Mercator (EPSG:3857), so projection happens here and nowhere else.

// EarthRadiusMiles is the mean Earth radius used for great-circle distances.
const EarthRadiusMiles = 3958.8

// DistanceMiles returns the great-circle distance in miles between two
// WGS84 coordinates using the haversine formula. The asin argument is
// clamped to [0,1] so antipodal and coincident points cannot drift out of
// the domain through floating-point error.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)

	root := math.Sqrt(a)
	if root > 1 {
		root = 1
	} else if root < 0 {
		root = 0
	}

	return 2 * math.Asin(root) * EarthRadiusMiles
}

// PointFromLatLon builds a 4326 point for GeoJSON output. GeoJSON order is
// longitude first.
func PointFromLatLon(lat, lon float64) geom.Point {
	return geom.NewPoint(
		geom.Coordinates{
			XY: geom.XY{X: lon, Y: lat},
		},
	)
}

// Coords3857From4326 projects a WGS84 longitude/latitude into Web Mercator
// for map widgets that position markers in projected meters.
func Coords3857From4326(
	longitude float64,
	latitude float64,
) (
	point geom.Point,
	err error,
) {
	var x, y float64
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ = f(longitude, latitude, 0)
	point = geom.NewPoint(
		geom.Coordinates{
			XY: geom.XY{X: x, Y: y},
		},
	)
	return point, nil
}
