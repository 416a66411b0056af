package disruption

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/sells-group/disruption-cli/internal/geo"
)

// waypointIndex answers whether any projected waypoint lies inside a disk.
type waypointIndex interface {
	anyWithin(d geo.Disk) bool
}

// linearIndex scans waypoints in route order and stops at the first hit.
type linearIndex []geo.PlanarPoint

func (l linearIndex) anyWithin(d geo.Disk) bool {
	for _, p := range l {
		if d.Contains(p) {
			return true
		}
	}
	return false
}

// minRectSide keeps R-tree rectangles non-degenerate for zero radii.
const minRectSide = 1e-6

type indexedWaypoint struct {
	point geo.PlanarPoint
	rect  rtreego.Rect
}

func (w *indexedWaypoint) Bounds() rtreego.Rect { return w.rect }

// rtreeIndex narrows candidates by bounding box before the exact disk test.
type rtreeIndex struct {
	tree *rtreego.Rtree
}

func newRtreeIndex(points []geo.PlanarPoint) *rtreeIndex {
	objs := make([]rtreego.Spatial, 0, len(points))
	for _, p := range points {
		objs = append(objs, &indexedWaypoint{
			point: p,
			rect:  rtreego.Point{p.X(), p.Y()}.ToRect(minRectSide / 2),
		})
	}
	return &rtreeIndex{tree: rtreego.NewTree(2, 8, 32, objs...)}
}

func (r *rtreeIndex) anyWithin(d geo.Disk) bool {
	minX, minY, maxX, maxY := d.Bounds()
	w := math.Max(maxX-minX, minRectSide)
	h := math.Max(maxY-minY, minRectSide)
	bb, err := rtreego.NewRect(rtreego.Point{minX - minRectSide/2, minY - minRectSide/2}, []float64{w + minRectSide, h + minRectSide})
	if err != nil {
		return false
	}
	for _, s := range r.tree.SearchIntersect(bb) {
		if d.Contains(s.(*indexedWaypoint).point) {
			return true
		}
	}
	return false
}
