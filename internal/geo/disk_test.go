package geo

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testZone = Zone{Number: 16, North: true}

func planar(x, y float64) PlanarPoint {
	return PlanarPoint{x: x, y: y, zone: testZone}
}

func TestBuffer_InvalidRadius(t *testing.T) {
	for _, r := range []float64{-1, -0.0001, math.NaN(), math.Inf(1)} {
		_, err := Buffer(planar(0, 0), r)
		require.Error(t, err, "radius=%v", r)
		assert.True(t, eris.Is(err, ErrInvalidRadius))
	}
}

func TestBuffer_UnprojectedCenter(t *testing.T) {
	_, err := Buffer(PlanarPoint{}, 10)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidCoordinate))
}

func TestDiskContains_BoundaryInclusive(t *testing.T) {
	d, err := Buffer(planar(1000, 2000), 5)
	require.NoError(t, err)

	assert.True(t, d.Contains(planar(1000, 2000)), "center")
	assert.True(t, d.Contains(planar(1003, 2004)), "exactly on radius (3-4-5)")
	assert.True(t, d.Contains(planar(1005, 2000)), "on radius along axis")
	assert.False(t, d.Contains(planar(1003, 2004.001)), "just outside")
	assert.False(t, d.Contains(planar(1006, 2000)))
}

func TestDiskContains_ZeroRadius(t *testing.T) {
	d, err := Buffer(planar(10, 10), 0)
	require.NoError(t, err)

	assert.True(t, d.Contains(planar(10, 10)))
	assert.False(t, d.Contains(planar(10, 10.000001)))
}

func TestDiskContains_OtherZoneNeverContained(t *testing.T) {
	d, err := Buffer(planar(10, 10), 1000)
	require.NoError(t, err)

	other := PlanarPoint{x: 10, y: 10, zone: Zone{Number: 15, North: true}}
	assert.False(t, d.Contains(other))
	assert.False(t, d.Contains(PlanarPoint{x: 10, y: 10}))
}

func TestDiskContains_MatchesDistance(t *testing.T) {
	d, err := Buffer(planar(0, 0), 100)
	require.NoError(t, err)

	for _, p := range []PlanarPoint{planar(60, 80), planar(-70, 71), planar(0, -100), planar(99.9, 5)} {
		dist, ok := d.Center().DistanceTo(p)
		require.True(t, ok)
		assert.Equal(t, dist <= d.Radius(), d.Contains(p), "point %v", p)
	}
}

func TestDiskContains_RadiusEqualToDistance(t *testing.T) {
	proj, err := NewProjection(Point{Lat: 41.8786, Lng: -87.6403})
	require.NoError(t, err)

	pairs := [][2]Point{
		{{Lat: 41.8786, Lng: -87.6403}, {Lat: 41.8796, Lng: -87.6403}},
		{{Lat: 41.8623, Lng: -87.6167}, {Lat: 41.8762, Lng: -87.6292}},
		{{Lat: 41.8800, Lng: -87.6300}, {Lat: 41.8725, Lng: -87.6285}},
	}
	for _, pair := range pairs {
		a, err := proj.Project(pair[0])
		require.NoError(t, err)
		b, err := proj.Project(pair[1])
		require.NoError(t, err)

		dist, ok := a.DistanceTo(b)
		require.True(t, ok)
		d, err := Buffer(a, dist)
		require.NoError(t, err)
		assert.True(t, d.Contains(b), "point at the reported distance %v must be inside", dist)
		assert.True(t, d.Contains(a))
	}
}

func TestDiskBounds(t *testing.T) {
	d, err := Buffer(planar(100, 200), 50)
	require.NoError(t, err)

	minX, minY, maxX, maxY := d.Bounds()
	assert.Equal(t, 50.0, minX)
	assert.Equal(t, 150.0, minY)
	assert.Equal(t, 150.0, maxX)
	assert.Equal(t, 250.0, maxY)
}
