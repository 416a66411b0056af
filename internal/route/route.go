// Package route holds the ordered waypoints of a transit route.
package route

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-polyline"

	"github.com/sells-group/disruption-cli/internal/geo"
)

// Stop is a named transit stop along the route (boarding or alighting point).
type Stop struct {
	Name     string    `json:"name"`
	Location geo.Point `json:"location"`
	Line     string    `json:"line,omitempty"`
}

// Route is an immutable, ordered sequence of waypoints in travel order.
type Route struct {
	waypoints []geo.Point
	stops     []Stop
}

// New validates and copies points into a Route. An empty slice yields an
// empty route.
func New(points []geo.Point, stops ...Stop) (Route, error) {
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return Route{}, eris.Wrapf(err, "route: waypoint %d", i)
		}
	}
	for i, s := range stops {
		if err := s.Location.Validate(); err != nil {
			return Route{}, eris.Wrapf(err, "route: stop %d", i)
		}
	}
	r := Route{
		waypoints: append([]geo.Point(nil), points...),
		stops:     append([]Stop(nil), stops...),
	}
	return r, nil
}

// FromPolyline decodes a Google encoded polyline (precision 5) into a Route.
func FromPolyline(encoded string, stops ...Stop) (Route, error) {
	if encoded == "" {
		return Route{}, eris.New("route: empty polyline")
	}
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return Route{}, eris.Wrap(err, "route: decode polyline")
	}
	if len(rest) != 0 {
		return Route{}, eris.Errorf("route: %d trailing polyline bytes", len(rest))
	}

	points := make([]geo.Point, 0, len(coords))
	for _, c := range coords {
		points = append(points, geo.Point{Lat: c[0], Lng: c[1]})
	}
	return New(points, stops...)
}

// Waypoints returns a copy of the waypoints in travel order.
func (r Route) Waypoints() []geo.Point {
	return append([]geo.Point(nil), r.waypoints...)
}

// Stops returns a copy of the transit stops along the route.
func (r Route) Stops() []Stop {
	return append([]Stop(nil), r.stops...)
}

// Len returns the number of waypoints.
func (r Route) Len() int { return len(r.waypoints) }

// IsEmpty reports whether the route has no waypoints.
func (r Route) IsEmpty() bool { return len(r.waypoints) == 0 }

// IsDegenerate reports whether the route has fewer than two waypoints.
func (r Route) IsDegenerate() bool { return len(r.waypoints) < 2 }

// First returns the first waypoint. ok is false for an empty route.
func (r Route) First() (p geo.Point, ok bool) {
	if r.IsEmpty() {
		return geo.Point{}, false
	}
	return r.waypoints[0], true
}

// LengthMeters sums great-circle distances between consecutive waypoints.
func (r Route) LengthMeters() float64 {
	var total float64
	for i := 1; i < len(r.waypoints); i++ {
		total += geo.Haversine(r.waypoints[i-1], r.waypoints[i])
	}
	return total
}

// LineString returns the route as a lon/lat go-geom line string with SRID 4326.
// Routes with fewer than two waypoints return nil.
func (r Route) LineString() *geom.LineString {
	if r.IsDegenerate() {
		return nil
	}
	flat := make([]float64, 0, 2*len(r.waypoints))
	for _, p := range r.waypoints {
		flat = append(flat, p.Lng, p.Lat)
	}
	return geom.NewLineStringFlat(geom.XY, flat).SetSRID(4326)
}

// Encode returns the route as a Google encoded polyline.
func (r Route) Encode() string {
	coords := make([][]float64, len(r.waypoints))
	for i, p := range r.waypoints {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}
