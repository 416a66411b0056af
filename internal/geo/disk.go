package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

// Disk is a closed planar disk: the zone of influence around a projected point.
type Disk struct {
	center PlanarPoint
	radius float64
}

// Buffer builds the disk of radiusMeters around center. A radius of 0
// contains only the center itself.
func Buffer(center PlanarPoint, radiusMeters float64) (Disk, error) {
	if math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) || radiusMeters < 0 {
		return Disk{}, eris.Wrapf(ErrInvalidRadius, "radius %v", radiusMeters)
	}
	if !center.zone.valid() {
		return Disk{}, eris.Wrap(ErrInvalidCoordinate, "buffer center was not projected")
	}
	return Disk{center: center, radius: radiusMeters}, nil
}

// Center returns the disk center.
func (d Disk) Center() PlanarPoint { return d.center }

// Radius returns the radius in meters.
func (d Disk) Radius() float64 { return d.radius }

// Contains reports whether p lies inside or on the boundary of the disk.
// Points from a different zone are never contained. The distance is the
// one DistanceTo reports, so a point at exactly that distance is inside.
func (d Disk) Contains(p PlanarPoint) bool {
	dist, ok := d.center.DistanceTo(p)
	return ok && dist <= d.radius
}

// Bounds returns the axis-aligned square enclosing the disk.
func (d Disk) Bounds() (minX, minY, maxX, maxY float64) {
	return d.center.x - d.radius, d.center.y - d.radius, d.center.x + d.radius, d.center.y + d.radius
}
