package disruption

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/route"
)

// Matcher finds the event zones that intersect a route. It holds no
// per-query state and is safe for concurrent use.
type Matcher struct {
	indexThreshold int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithIndexThreshold switches to an R-tree waypoint index for routes with at
// least n waypoints. n <= 0 always scans linearly.
func WithIndexThreshold(n int) Option {
	return func(m *Matcher) {
		m.indexThreshold = n
	}
}

// NewMatcher creates a Matcher.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var defaultMatcher = NewMatcher()

// FindDisruptions matches zones against r with a linear waypoint scan.
func FindDisruptions(r route.Route, zones []EventZone) (Report, error) {
	return defaultMatcher.FindDisruptions(r, zones)
}

// FindDisruptions returns the names of zones whose disk contains at least one
// waypoint of r, in zone input order with duplicate names dropped.
//
// Every waypoint and zone center is projected through the single UTM zone
// that contains the route's first waypoint. An empty route or an empty zone
// list yields an empty report.
func (m *Matcher) FindDisruptions(r route.Route, zones []EventZone) (Report, error) {
	var report Report
	anchor, ok := r.First()
	if !ok || len(zones) == 0 {
		return report, nil
	}

	proj, err := geo.NewProjection(anchor)
	if err != nil {
		return Report{}, eris.Wrap(err, "disruption: anchor projection")
	}
	waypoints, err := proj.ProjectAll(r.Waypoints())
	if err != nil {
		return Report{}, eris.Wrap(err, "disruption: project route")
	}
	idx := m.index(waypoints)

	for i, z := range zones {
		if err := z.Validate(); err != nil {
			return Report{}, eris.Wrapf(err, "disruption: zone %d", i)
		}
		if report.Contains(z.Name) {
			continue
		}
		center, err := proj.Project(z.Center)
		if err != nil {
			return Report{}, eris.Wrapf(err, "disruption: project zone %q", z.Name)
		}
		disk, err := geo.Buffer(center, z.RadiusMeters)
		if err != nil {
			return Report{}, eris.Wrapf(err, "disruption: buffer zone %q", z.Name)
		}
		if idx.anyWithin(disk) {
			report.add(z.Name)
		}
	}
	return report, nil
}

func (m *Matcher) index(waypoints []geo.PlanarPoint) waypointIndex {
	if m.indexThreshold > 0 && len(waypoints) >= m.indexThreshold {
		return newRtreeIndex(waypoints)
	}
	return linearIndex(waypoints)
}
