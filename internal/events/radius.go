package events

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/disruption-cli/internal/disruption"
	"github.com/sells-group/disruption-cli/internal/model"
)

// RadiusPolicy decides the zone radius for an event: a per-venue override
// when one exists, otherwise the default.
type RadiusPolicy struct {
	DefaultMeters float64            `yaml:"default_meters"`
	Venues        map[string]float64 `yaml:"venues"`
}

// radiusFile is the layout of the radius overrides file.
type radiusFile struct {
	Radius RadiusPolicy `yaml:"radius"`
}

// NewRadiusPolicy returns a policy with no venue overrides. A non-positive
// default falls back to disruption.DefaultRadiusMeters.
func NewRadiusPolicy(defaultMeters float64) RadiusPolicy {
	if defaultMeters <= 0 {
		defaultMeters = disruption.DefaultRadiusMeters
	}
	return RadiusPolicy{DefaultMeters: defaultMeters}
}

// LoadRadiusPolicy reads overrides from a YAML file of the form
//
//	radius:
//	  default_meters: 500
//	  venues:
//	    Soldier Field: 1500
//
// An empty path returns NewRadiusPolicy(defaultMeters). A default in the file
// wins over defaultMeters.
func LoadRadiusPolicy(path string, defaultMeters float64) (RadiusPolicy, error) {
	base := NewRadiusPolicy(defaultMeters)
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RadiusPolicy{}, eris.Wrapf(err, "events: read radius file %s", path)
	}
	var f radiusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return RadiusPolicy{}, eris.Wrapf(err, "events: parse radius file %s", path)
	}

	p := f.Radius
	if p.DefaultMeters <= 0 {
		p.DefaultMeters = base.DefaultMeters
	}
	venues := make(map[string]float64, len(p.Venues))
	for name, m := range p.Venues {
		if m < 0 {
			return RadiusPolicy{}, eris.Errorf("events: radius for venue %q is negative", name)
		}
		venues[normalizeVenue(name)] = m
	}
	p.Venues = venues
	return p, nil
}

// For returns the radius in meters for e.
func (p RadiusPolicy) For(e model.Event) float64 {
	if m, ok := p.Venues[normalizeVenue(e.Venue)]; ok {
		return m
	}
	return p.DefaultMeters
}

func normalizeVenue(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
