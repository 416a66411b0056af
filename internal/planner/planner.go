// Package planner runs a route check end to end: resolve both addresses,
// ask the router for a transit route, load the events scheduled on the travel
// date, and match their zones against the route.
package planner

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/disruption-cli/internal/disruption"
	"github.com/sells-group/disruption-cli/internal/events"
	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/route"
	"github.com/sells-group/disruption-cli/pkg/directions"
	"github.com/sells-group/disruption-cli/pkg/geocode"
)

// Request is one route check.
type Request struct {
	Start string
	End   string
	// Date is the civil travel date; only its year, month, and day are used.
	Date time.Time
}

// Endpoint is a resolved route endpoint.
type Endpoint struct {
	Address          string    `json:"address"`
	FormattedAddress string    `json:"formatted_address,omitempty"`
	Location         geo.Point `json:"location"`
}

// Plan is the outcome of a route check that reached the matcher. An empty
// Disruptions report means no event intersects the route.
type Plan struct {
	Start       Endpoint          `json:"start"`
	End         Endpoint          `json:"end"`
	Date        string            `json:"date"`
	Departure   time.Time         `json:"departure,omitzero"`
	Route       route.Route       `json:"-"`
	Stops       []route.Stop      `json:"stops"`
	Disruptions disruption.Report `json:"disruptions"`
	Zones       events.ZoneStats  `json:"zones"`
}

// Observer receives the outcome of every route check.
type Observer interface {
	CheckCompleted(kind model.ErrorKind, elapsed time.Duration)
	DisruptionsFound(n int)
}

// Planner wires the geocoder, router, event source, and matcher together.
type Planner struct {
	geocoder      geocode.Client
	router        directions.Router
	events        events.Source
	zones         *events.ZoneBuilder
	matcher       *disruption.Matcher
	stops         StopLoader
	departureHour int
	loc           *time.Location
	timeout       time.Duration
	now           func() time.Time
	observer      Observer
}

// Option configures a Planner.
type Option func(*Planner)

// WithDeparture sets the local hour and time zone used as departure time for
// future travel dates.
func WithDeparture(hour int, loc *time.Location) Option {
	return func(p *Planner) {
		p.departureHour = hour
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithTimeout bounds a single check. 0 leaves the caller's deadline alone.
func WithTimeout(d time.Duration) Option {
	return func(p *Planner) { p.timeout = d }
}

// WithMatcher replaces the default linear-scan matcher.
func WithMatcher(m *disruption.Matcher) Option {
	return func(p *Planner) { p.matcher = m }
}

// WithStops enables stop queries against the given inventory loader.
func WithStops(l StopLoader) Option {
	return func(p *Planner) { p.stops = l }
}

// WithObserver reports check outcomes to o.
func WithObserver(o Observer) Option {
	return func(p *Planner) { p.observer = o }
}

// WithClock overrides the clock used to decide whether a date is in the future.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// New creates a Planner.
func New(gc geocode.Client, router directions.Router, src events.Source, zones *events.ZoneBuilder, opts ...Option) *Planner {
	p := &Planner{
		geocoder:      gc,
		router:        router,
		events:        src,
		zones:         zones,
		matcher:       disruption.NewMatcher(),
		departureHour: 9,
		loc:           time.Local,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check runs a route check. Any error means matching never ran; classify it
// with model.Classify.
func (p *Planner) Check(ctx context.Context, req Request) (plan *Plan, err error) {
	start := time.Now()
	defer func() {
		if p.observer == nil {
			return
		}
		p.observer.CheckCompleted(model.Classify(err), time.Since(start))
		if err == nil {
			p.observer.DisruptionsFound(plan.Disruptions.Len())
		}
	}()

	if err := req.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	log := zap.L().With(zap.String("component", "planner"))
	day := civilDate(req.Date)

	var from, to Endpoint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		from, err = p.resolve(gctx, "start", req.Start)
		return err
	})
	g.Go(func() error {
		var err error
		to, err = p.resolve(gctx, "end", req.End)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	departure := p.DepartureFor(day)
	r, err := p.router.Route(ctx, from.Location, to.Location, departure)
	if err != nil {
		return nil, eris.Wrap(err, "planner: route")
	}
	if r.IsEmpty() {
		return nil, eris.Wrap(model.ErrRoutingFailure, "planner: router returned an empty route")
	}

	evs, err := p.events.EventsOn(ctx, day)
	if err != nil {
		return nil, eris.Wrap(err, "planner: load events")
	}
	zones, stats, err := p.zones.Build(ctx, evs)
	if err != nil {
		return nil, eris.Wrap(err, "planner: build zones")
	}

	report, err := p.matcher.FindDisruptions(r, zones)
	if err != nil {
		return nil, eris.Wrap(err, "planner: match")
	}

	log.Info("route check complete",
		zap.String("date", day.Format(model.DateLayout)),
		zap.Int("waypoints", r.Len()),
		zap.Int("events", stats.Events),
		zap.Int("zones", stats.Zones),
		zap.Int("disruptions", report.Len()),
	)

	stops := r.Stops()
	if stops == nil {
		stops = []route.Stop{}
	}
	return &Plan{
		Start:       from,
		End:         to,
		Date:        day.Format(model.DateLayout),
		Departure:   departure,
		Route:       r,
		Stops:       stops,
		Disruptions: report,
		Zones:       stats,
	}, nil
}

// DepartureFor returns the departure time used for a travel date: the
// configured local hour when the date is after today, otherwise zero (leave
// now).
func (p *Planner) DepartureFor(day time.Time) time.Time {
	now := p.now().In(p.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day = civilDate(day)
	if !day.After(today) {
		return time.Time{}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), p.departureHour, 0, 0, 0, p.loc)
}

// resolve geocodes one endpoint. A miss is ErrGeocodeMiss.
func (p *Planner) resolve(ctx context.Context, which, address string) (Endpoint, error) {
	res, err := p.geocoder.Geocode(ctx, address)
	if err != nil {
		return Endpoint{}, eris.Wrapf(err, "planner: geocode %s address", which)
	}
	pt, ok := res.Point()
	if !ok {
		return Endpoint{}, eris.Wrapf(model.ErrGeocodeMiss, "%s address %q", which, address)
	}
	return Endpoint{Address: address, FormattedAddress: res.FormattedAddress, Location: pt}, nil
}

func (p *Planner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (r Request) validate() error {
	var missing []string
	if strings.TrimSpace(r.Start) == "" {
		missing = append(missing, "start")
	}
	if strings.TrimSpace(r.End) == "" {
		missing = append(missing, "end")
	}
	if r.Date.IsZero() {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return eris.Wrapf(model.ErrInvalidRequest, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
