package geo

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

// WGS84 ellipsoid and UTM constants.
const (
	wgs84A         = 6378137.0
	wgs84F         = 1 / 298.257223563
	utmScale       = 0.9996
	falseEasting   = 500000.0
	falseNorthingS = 10000000.0
)

// Krüger series coefficients (third order in n), derived once from the ellipsoid.
var (
	tmN      = wgs84F / (2 - wgs84F)
	tmE      = 2 * math.Sqrt(tmN) / (1 + tmN)
	tmA      = wgs84A / (1 + tmN) * (1 + tmN*tmN/4 + tmN*tmN*tmN*tmN/64)
	tmAlpha1 = tmN/2 - 2*tmN*tmN/3 + 5*tmN*tmN*tmN/16
	tmAlpha2 = 13*tmN*tmN/48 - 3*tmN*tmN*tmN/5
	tmAlpha3 = 61 * tmN * tmN * tmN / 240
)

// Zone identifies a UTM zone and hemisphere.
type Zone struct {
	Number int  `json:"number"`
	North  bool `json:"north"`
}

// String returns the zone in "16N" form.
func (z Zone) String() string {
	h := "S"
	if z.North {
		h = "N"
	}
	return fmt.Sprintf("%d%s", z.Number, h)
}

// EPSG returns the WGS84 / UTM EPSG code for the zone (326xx north, 327xx south).
func (z Zone) EPSG() int {
	if z.North {
		return 32600 + z.Number
	}
	return 32700 + z.Number
}

// CentralMeridian returns the zone's central meridian in degrees.
func (z Zone) CentralMeridian() float64 {
	return float64(z.Number-1)*6 - 180 + 3
}

func (z Zone) valid() bool {
	return z.Number >= 1 && z.Number <= 60
}

// ZoneFor returns the UTM zone containing p.
//
// A longitude exactly on a 6° boundary belongs to the zone east of it, with
// 180° folded into zone 60. Latitude 0 is northern. The Norway (32V) and
// Svalbard (31X-37X) exceptions are applied.
func ZoneFor(p Point) (Zone, error) {
	if err := p.Validate(); err != nil {
		return Zone{}, err
	}

	number := int(math.Floor((p.Lng+180)/6)) + 1
	if number > 60 {
		number = 60
	}

	switch {
	case p.Lat >= 56 && p.Lat < 64 && p.Lng >= 3 && p.Lng < 12:
		number = 32
	case p.Lat >= 72 && p.Lat < 84 && p.Lng >= 0:
		switch {
		case p.Lng < 9:
			number = 31
		case p.Lng < 21:
			number = 33
		case p.Lng < 33:
			number = 35
		case p.Lng < 42:
			number = 37
		}
	}

	return Zone{Number: number, North: p.Lat >= 0}, nil
}

// Projection is a transverse Mercator projection fixed to one UTM zone.
// The zero value is not usable; build one with NewProjection or ProjectionFor.
type Projection struct {
	zone    Zone
	lambda0 float64
}

// NewProjection anchors a projection on the zone containing anchor. Every
// point projected through it uses that zone, including points that lie in a
// neighbouring zone.
func NewProjection(anchor Point) (Projection, error) {
	zone, err := ZoneFor(anchor)
	if err != nil {
		return Projection{}, eris.Wrap(err, "geo: anchor projection")
	}
	return ProjectionFor(zone)
}

// ProjectionFor returns the projection for an explicit zone.
func ProjectionFor(zone Zone) (Projection, error) {
	if !zone.valid() {
		return Projection{}, eris.Errorf("geo: zone number %d out of range", zone.Number)
	}
	return Projection{zone: zone, lambda0: toRad(zone.CentralMeridian())}, nil
}

// Zone returns the anchored zone.
func (pr Projection) Zone() Zone {
	return pr.zone
}

// Project converts p into planar meters in the anchored zone.
func (pr Projection) Project(p Point) (PlanarPoint, error) {
	if !pr.zone.valid() {
		return PlanarPoint{}, eris.New("geo: projection is not anchored")
	}
	if err := p.Validate(); err != nil {
		return PlanarPoint{}, err
	}

	phi := toRad(p.Lat)
	dLambda := toRad(p.Lng) - pr.lambda0
	// Keep the longitude offset in (-π, π] so points across the antimeridian
	// stay next to an anchor near ±180°.
	if dLambda > math.Pi {
		dLambda -= 2 * math.Pi
	} else if dLambda <= -math.Pi {
		dLambda += 2 * math.Pi
	}

	sinPhi := math.Sin(phi)
	t := math.Sinh(math.Atanh(sinPhi) - tmE*math.Atanh(tmE*sinPhi))
	xi := math.Atan2(t, math.Cos(dLambda))
	eta := math.Atanh(math.Sin(dLambda) / math.Sqrt(1+t*t))

	easting := eta +
		tmAlpha1*math.Cos(2*xi)*math.Sinh(2*eta) +
		tmAlpha2*math.Cos(4*xi)*math.Sinh(4*eta) +
		tmAlpha3*math.Cos(6*xi)*math.Sinh(6*eta)
	northing := xi +
		tmAlpha1*math.Sin(2*xi)*math.Cosh(2*eta) +
		tmAlpha2*math.Sin(4*xi)*math.Cosh(4*eta) +
		tmAlpha3*math.Sin(6*xi)*math.Cosh(6*eta)

	x := falseEasting + utmScale*tmA*easting
	y := utmScale * tmA * northing
	if !pr.zone.North {
		y += falseNorthingS
	}

	return PlanarPoint{x: x, y: y, zone: pr.zone}, nil
}

// ProjectAll projects pts in order. It fails on the first invalid point.
func (pr Projection) ProjectAll(pts []Point) ([]PlanarPoint, error) {
	out := make([]PlanarPoint, len(pts))
	for i, p := range pts {
		pp, err := pr.Project(p)
		if err != nil {
			return nil, eris.Wrapf(err, "geo: project point %d", i)
		}
		out[i] = pp
	}
	return out, nil
}

// PlanarPoint is an easting/northing pair in meters. It is only meaningful
// next to other points projected through the same zone.
type PlanarPoint struct {
	x, y float64
	zone Zone
}

// X returns the easting in meters.
func (p PlanarPoint) X() float64 { return p.x }

// Y returns the northing in meters.
func (p PlanarPoint) Y() float64 { return p.y }

// Zone returns the zone the point was projected through.
func (p PlanarPoint) Zone() Zone { return p.zone }

// DistanceTo returns the Euclidean distance to q. ok is false when the points
// come from different zones and cannot be compared.
func (p PlanarPoint) DistanceTo(q PlanarPoint) (meters float64, ok bool) {
	if !p.zone.valid() || p.zone != q.zone {
		return 0, false
	}
	return math.Hypot(q.x-p.x, q.y-p.y), true
}
