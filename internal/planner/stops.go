package planner

import (
	"context"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/stops"
)

// StopLoader supplies the stop inventory for a query.
type StopLoader interface {
	Load(ctx context.Context) (stops.Inventory, error)
}

// StopsRequest asks for the stops around either an address or a point.
type StopsRequest struct {
	Address      string
	Center       *geo.Point
	RadiusMeters float64
}

// StopsResult is the answer to a StopsRequest.
type StopsResult struct {
	Center       Endpoint      `json:"center"`
	RadiusMeters float64       `json:"radius_meters"`
	Stops        []stops.Match `json:"stops"`
}

// NearbyStops returns the rail stations and bus stops within the requested
// radius, in inventory order (rail first).
func (p *Planner) NearbyStops(ctx context.Context, req StopsRequest) (*StopsResult, error) {
	if p.stops == nil {
		return nil, eris.New("planner: no stop inventory configured")
	}
	if req.RadiusMeters < 0 || math.IsNaN(req.RadiusMeters) || math.IsInf(req.RadiusMeters, 0) {
		return nil, eris.Wrapf(geo.ErrInvalidRadius, "radius %v", req.RadiusMeters)
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var center Endpoint
	switch {
	case req.Center != nil:
		if err := req.Center.Validate(); err != nil {
			return nil, err
		}
		center = Endpoint{Location: *req.Center}
	case strings.TrimSpace(req.Address) != "":
		var err error
		center, err = p.resolve(ctx, "center", req.Address)
		if err != nil {
			return nil, err
		}
	default:
		return nil, eris.Wrap(model.ErrInvalidRequest, "address or center is required")
	}

	inv, err := p.stops.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "planner: load stops")
	}
	matches, err := stops.FindStopsInRadius(center.Location, req.RadiusMeters, inv)
	if err != nil {
		return nil, err
	}
	return &StopsResult{Center: center, RadiusMeters: req.RadiusMeters, Stops: matches}, nil
}
