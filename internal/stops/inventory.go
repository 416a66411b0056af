// Package stops answers "which transit stations and bus stops are within r
// meters of here" against a fixed stop inventory, and loads that inventory
// from the Chicago data portal and CTA bus-stop files.
package stops

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/model"
)

// Inventory is a read-only collection of named transit locations.
type Inventory struct {
	stops []model.Stop
}

// NewInventory copies stops into an Inventory, preserving order.
func NewInventory(stops ...model.Stop) Inventory {
	return Inventory{stops: append([]model.Stop(nil), stops...)}
}

// Stops returns a copy of the inventory's stops in iteration order.
func (inv Inventory) Stops() []model.Stop {
	return append([]model.Stop(nil), inv.stops...)
}

// Len returns the number of stops.
func (inv Inventory) Len() int { return len(inv.stops) }

// Count returns the number of stops of the given kind.
func (inv Inventory) Count(kind model.StopKind) int {
	n := 0
	for _, s := range inv.stops {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// Concat returns a new inventory holding inv's stops followed by each of others'.
func (inv Inventory) Concat(others ...Inventory) Inventory {
	n := len(inv.stops)
	for _, o := range others {
		n += len(o.stops)
	}
	all := make([]model.Stop, 0, n)
	all = append(all, inv.stops...)
	for _, o := range others {
		all = append(all, o.stops...)
	}
	return Inventory{stops: all}
}

// Match is a stop found within a query radius.
type Match struct {
	model.Stop
	DistanceMeters float64 `json:"distance_meters"`
}

// FindStopsInRadius returns the stops whose location lies in the closed disk
// of radiusMeters around center, in inventory order.
//
// The projection is anchored on center and every stop is projected through
// that same zone.
func FindStopsInRadius(center geo.Point, radiusMeters float64, inv Inventory) ([]Match, error) {
	proj, err := geo.NewProjection(center)
	if err != nil {
		return nil, eris.Wrap(err, "stops: anchor projection")
	}
	c, err := proj.Project(center)
	if err != nil {
		return nil, eris.Wrap(err, "stops: project center")
	}
	disk, err := geo.Buffer(c, radiusMeters)
	if err != nil {
		return nil, eris.Wrap(err, "stops: buffer")
	}

	matches := make([]Match, 0)
	for _, s := range inv.stops {
		p, err := proj.Project(s.Location)
		if err != nil {
			return nil, eris.Wrapf(err, "stops: project %q", s.Name)
		}
		if !disk.Contains(p) {
			continue
		}
		d, _ := c.DistanceTo(p)
		matches = append(matches, Match{Stop: s, DistanceMeters: d})
	}
	return matches, nil
}
