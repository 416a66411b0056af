package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/disruption-cli/internal/disruption"
	"github.com/sells-group/disruption-cli/internal/events"
	"github.com/sells-group/disruption-cli/internal/fetcher"
	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/monitoring"
	"github.com/sells-group/disruption-cli/internal/planner"
	"github.com/sells-group/disruption-cli/internal/resilience"
	"github.com/sells-group/disruption-cli/internal/stops"
	"github.com/sells-group/disruption-cli/internal/store"
	"github.com/sells-group/disruption-cli/pkg/directions"
	"github.com/sells-group/disruption-cli/pkg/geocode"
)

const directionsService = "google_directions"

// appEnv holds the store, clients, and planner shared by the check, stops,
// and serve commands.
type appEnv struct {
	Store    store.Store
	Planner  *planner.Planner
	Breakers *resilience.ServiceBreakers
	Location *time.Location
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// envOptions selects the optional parts of the environment.
type envOptions struct {
	// Metrics, when set, receives check outcomes, misses, and breaker changes.
	Metrics *monitoring.Metrics
	// EventsFile reads events from the scraper's JSON file instead of the store.
	EventsFile string
	// StopsTTL keeps a loaded stop inventory for this long. 0 reloads per query.
	StopsTTL time.Duration
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initFetcher builds the shared dataset fetcher.
func initFetcher() *fetcher.HTTPFetcher {
	retry := resilience.RetryFromConfig(cfg.Resilience)
	retry.OnRetry = resilience.RetryLogger("fetcher", "download")
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Retry: retry})
}

// localTime resolves the configured time zone, falling back to the host's.
func localTime() *time.Location {
	if cfg.Google.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(cfg.Google.TimeZone)
	if err != nil {
		zap.L().Warn("unknown time zone, using local time",
			zap.String("time_zone", cfg.Google.TimeZone),
			zap.Error(err),
		)
		return time.Local
	}
	return loc
}

// initEnv validates the config for mode and wires the planner. Callers
// should defer env.Close().
func initEnv(ctx context.Context, mode string, opts envOptions) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	m := opts.Metrics
	breakers := resilience.NewServiceBreakers(resilience.CircuitFromConfig(cfg.Resilience),
		func(service string, from, to resilience.CircuitState) {
			zap.L().Warn("circuit breaker state changed",
				zap.String("service", service),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
			if m != nil {
				m.BreakerStateChanged(service, from, to)
			}
		})

	geocodeRetry := resilience.RetryFromConfig(cfg.Resilience)
	geocodeRetry.OnRetry = upstreamRetryHook(m, "geocode", "geocode")
	var gc geocode.Client = geocode.NewClient(
		geocode.WithGoogleAPIKey(cfg.Google.Key),
		geocode.WithCensusFallback(cfg.Geocode.CensusFallback),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
		geocode.WithBatchConcurrency(cfg.Geocode.BatchConcurrency),
		geocode.WithRetry(geocodeRetry),
	)
	gc = geocode.NewCachedClient(gc, st, time.Duration(cfg.Geocode.CacheTTLDays)*24*time.Hour)

	routeRetry := resilience.RetryFromConfig(cfg.Resilience)
	routeRetry.OnRetry = upstreamRetryHook(m, directionsService, "route")
	router := directions.NewClient(cfg.Google.Key,
		directions.WithRetry(routeRetry),
		directions.WithCircuitBreaker(breakers.Get(directionsService)),
	)

	radius, err := events.LoadRadiusPolicy(cfg.Events.RadiusFile, cfg.Events.RadiusMeters)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	zoneOpts := []events.ZoneOption{events.WithConcurrency(cfg.Geocode.BatchConcurrency)}
	if m != nil {
		zoneOpts = append(zoneOpts, events.WithMissHook(func(model.Event) { m.GeocodeMiss("event") }))
	}
	zones := events.NewZoneBuilder(gc, radius, zoneOpts...)

	var src events.Source = events.StoreSource{Store: st}
	if opts.EventsFile != "" {
		src = events.FileSource{Path: opts.EventsFile}
	}

	var loaderOpts []stops.LoaderOption
	if opts.StopsTTL > 0 {
		loaderOpts = append(loaderOpts, stops.WithTTL(opts.StopsTTL))
	}
	stopLoader, err := stops.FromConfig(cfg.Stops, initFetcher(), loaderOpts...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	loc := localTime()
	plannerOpts := []planner.Option{
		planner.WithDeparture(cfg.Google.DepartureHour, loc),
		planner.WithTimeout(time.Duration(cfg.Planner.TimeoutSecs) * time.Second),
		planner.WithMatcher(disruption.NewMatcher(disruption.WithIndexThreshold(cfg.Disruption.IndexThreshold))),
		planner.WithStops(stopLoader),
	}
	if m != nil {
		plannerOpts = append(plannerOpts, planner.WithObserver(m))
	}

	return &appEnv{
		Store:    st,
		Planner:  planner.New(gc, router, src, zones, plannerOpts...),
		Breakers: breakers,
		Location: loc,
	}, nil
}

// upstreamRetryHook logs a retry and counts it as an upstream failure.
func upstreamRetryHook(m *monitoring.Metrics, service, op string) func(int, error) {
	log := resilience.RetryLogger(service, op)
	return func(attempt int, err error) {
		log(attempt, err)
		if m != nil {
			m.UpstreamFailure(service)
		}
	}
}
