package geo

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestNewPoint_Valid(t *testing.T) {
	p, err := NewPoint(41.88, -87.63)
	require.NoError(t, err)
	assert.Equal(t, 41.88, p.Lat)
	assert.Equal(t, -87.63, p.Lng)
}

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name  string
		point Point
		ok    bool
	}{
		{"origin", Point{0, 0}, true},
		{"north pole", Point{90, 0}, true},
		{"south pole antimeridian", Point{-90, -180}, true},
		{"lat too high", Point{90.0001, 0}, false},
		{"lat too low", Point{-91, 0}, false},
		{"lng too high", Point{0, 180.5}, false},
		{"lng too low", Point{0, -181}, false},
		{"nan", Point{math.NaN(), 0}, false},
		{"inf", Point{0, math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidCoordinate))
		})
	}
}

func TestPointGeomRoundTrip(t *testing.T) {
	p := Point{Lat: 41.8762, Lng: -87.6292}
	g := p.Geom()
	assert.Equal(t, 4326, g.SRID())
	assert.InDelta(t, -87.6292, g.X(), 1e-12)
	assert.InDelta(t, 41.8762, g.Y(), 1e-12)

	back, err := PointFromGeom(g)
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

func TestPointFromGeom_Invalid(t *testing.T) {
	_, err := PointFromGeom(nil)
	assert.True(t, eris.Is(err, ErrInvalidCoordinate))

	_, err = PointFromGeom(geom.NewPointFlat(geom.XY, []float64{200, 10}))
	assert.True(t, eris.Is(err, ErrInvalidCoordinate))
}

func TestHaversine(t *testing.T) {
	a := Point{Lat: 41.8800, Lng: -87.6300}
	assert.InDelta(t, 0, Haversine(a, a), 1e-9)

	// One degree of latitude on the sphere.
	b := Point{Lat: 42.8800, Lng: -87.6300}
	assert.InDelta(t, 111195, Haversine(a, b), 1)
	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-9)
}
