package model

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/geo"
)

// StopKind distinguishes rail stations from bus stops.
type StopKind string

const (
	StopKindRail StopKind = "rail"
	StopKindBus  StopKind = "bus"
)

// ParseStopKind converts a string into a StopKind.
func ParseStopKind(s string) (StopKind, error) {
	switch StopKind(s) {
	case StopKindRail, StopKindBus:
		return StopKind(s), nil
	default:
		return "", eris.Errorf("unknown stop kind: %q (valid: rail, bus)", s)
	}
}

// Stop is a named transit location from a stop inventory.
type Stop struct {
	Name     string    `json:"name"`
	Kind     StopKind  `json:"kind"`
	Location geo.Point `json:"location"`
	SourceID string    `json:"source_id,omitempty"`
}
