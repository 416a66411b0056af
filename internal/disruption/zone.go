// Package disruption matches event zones of influence against a transit route.
package disruption

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/geo"
)

// DefaultRadiusMeters is the zone radius used when an event has no override.
const DefaultRadiusMeters = 500.0

// ErrUnnamedZone is returned for zones without a display name.
var ErrUnnamedZone = eris.New("disruption: zone name is empty")

// EventZone is one candidate disruption source: a named event with a center
// and a radius in meters.
type EventZone struct {
	Name         string    `json:"name"`
	Center       geo.Point `json:"center"`
	RadiusMeters float64   `json:"radius_meters"`
}

// Validate checks the zone's name, center, and radius.
func (z EventZone) Validate() error {
	if strings.TrimSpace(z.Name) == "" {
		return ErrUnnamedZone
	}
	if err := z.Center.Validate(); err != nil {
		return eris.Wrapf(err, "disruption: zone %q center", z.Name)
	}
	if z.RadiusMeters < 0 || math.IsNaN(z.RadiusMeters) || math.IsInf(z.RadiusMeters, 0) {
		return eris.Wrapf(geo.ErrInvalidRadius, "disruption: zone %q radius %v", z.Name, z.RadiusMeters)
	}
	return nil
}

// Report is the ordered, de-duplicated set of event names that intersect a route.
type Report struct {
	names []string
	seen  map[string]struct{}
}

// NewReport builds a report from names, keeping the first occurrence of each.
func NewReport(names ...string) Report {
	var r Report
	for _, n := range names {
		r.add(n)
	}
	return r
}

func (r *Report) add(name string) bool {
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	if _, dup := r.seen[name]; dup {
		return false
	}
	r.seen[name] = struct{}{}
	r.names = append(r.names, name)
	return true
}

// Names returns the event names in the order they were first matched.
func (r Report) Names() []string {
	return append([]string{}, r.names...)
}

// Contains reports whether name is in the report.
func (r Report) Contains(name string) bool {
	_, ok := r.seen[name]
	return ok
}

// Len returns the number of distinct names.
func (r Report) Len() int { return len(r.names) }

// IsEmpty reports whether no event intersects the route.
func (r Report) IsEmpty() bool { return len(r.names) == 0 }

// MarshalJSON encodes the report as a JSON array of names (never null).
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Names())
}
