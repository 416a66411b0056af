// Package geo projects WGS84 coordinates into a locally accurate metric plane
// (UTM) and builds closed-disk buffers around projected points.
//
// Every comparison between planar points must happen inside a single
// Projection. A Projection is anchored on one reference point and is never
// shared across queries with different geographic centers.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

var (
	// ErrInvalidCoordinate is returned for latitudes outside [-90, 90],
	// longitudes outside [-180, 180], non-finite values, and planar points
	// that were not produced by a Projection.
	ErrInvalidCoordinate = eris.New("geo: invalid coordinate")

	// ErrInvalidRadius is returned for negative or non-finite buffer radii.
	ErrInvalidRadius = eris.New("geo: invalid radius")
)

const earthRadiusMeters = 6371000.0

// Point is a WGS84 latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewPoint returns a validated Point.
func NewPoint(lat, lng float64) (Point, error) {
	p := Point{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Validate reports ErrInvalidCoordinate when the point is outside the WGS84 range.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return eris.Wrapf(ErrInvalidCoordinate, "non-finite lat=%v lng=%v", p.Lat, p.Lng)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return eris.Wrapf(ErrInvalidCoordinate, "latitude %f out of range", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return eris.Wrapf(ErrInvalidCoordinate, "longitude %f out of range", p.Lng)
	}
	return nil
}

// Geom returns the point as a go-geom XY point (x = longitude, y = latitude) with SRID 4326.
func (p Point) Geom() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}).SetSRID(4326)
}

// PointFromGeom converts a go-geom XY point in lon/lat order into a validated Point.
func PointFromGeom(g *geom.Point) (Point, error) {
	if g == nil || g.Empty() {
		return Point{}, eris.Wrap(ErrInvalidCoordinate, "empty geometry")
	}
	return NewPoint(g.Y(), g.X())
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
