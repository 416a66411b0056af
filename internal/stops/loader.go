package stops

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/disruption-cli/internal/config"
	"github.com/sells-group/disruption-cli/internal/fetcher"
	"github.com/sells-group/disruption-cli/internal/model"
)

// Source produces one stop inventory dataset.
type Source interface {
	Name() string
	Load(ctx context.Context) (Inventory, error)
}

// Loader loads all sources concurrently and concatenates them in source
// order. With a TTL it keeps the last inventory in memory.
type Loader struct {
	sources []Source
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	cached   Inventory
	loadedAt time.Time
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTTL keeps a loaded inventory for d before loading again. 0 disables caching.
func WithTTL(d time.Duration) LoaderOption {
	return func(l *Loader) { l.ttl = d }
}

// NewLoader creates a Loader over sources.
func NewLoader(sources []Source, opts ...LoaderOption) *Loader {
	l := &Loader{sources: sources, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FromConfig builds a Loader for the configured rail and bus datasets.
func FromConfig(cfg config.StopsConfig, f fetcher.Fetcher, opts ...LoaderOption) (*Loader, error) {
	var sources []Source
	if cfg.StationsURL != "" {
		sources = append(sources, RailSource{URL: cfg.StationsURL, Fetcher: f})
	}
	if cfg.BusStopsFile != "" {
		switch cfg.BusStopsFormat {
		case "", "csv":
			sources = append(sources, BusCSVSource{Path: cfg.BusStopsFile, Fetcher: f})
		case "shp":
			sources = append(sources, BusShapefileSource{Path: cfg.BusStopsFile})
		default:
			return nil, eris.Errorf("stops: unknown bus stops format %q", cfg.BusStopsFormat)
		}
	}
	if len(sources) == 0 {
		return nil, eris.New("stops: no stop datasets configured")
	}
	return NewLoader(sources, opts...), nil
}

// Load returns the combined inventory. Any source failure fails the whole
// load with ErrDatasetUnavailable.
func (l *Loader) Load(ctx context.Context) (Inventory, error) {
	if l.ttl > 0 {
		l.mu.Lock()
		defer l.mu.Unlock()
		if !l.loadedAt.IsZero() && l.now().Sub(l.loadedAt) < l.ttl {
			return l.cached, nil
		}
	}

	parts := make([]Inventory, len(l.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range l.sources {
		g.Go(func() error {
			start := l.now()
			inv, err := src.Load(gctx)
			if err != nil {
				return eris.Wrapf(model.ErrDatasetUnavailable, "stops: %s: %v", src.Name(), err)
			}
			zap.L().Debug("stops: dataset loaded",
				zap.String("source", src.Name()),
				zap.Int("stops", inv.Len()),
				zap.Duration("elapsed", l.now().Sub(start)),
			)
			parts[i] = inv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Inventory{}, err
	}

	inv := Inventory{}.Concat(parts...)
	if l.ttl > 0 {
		l.cached = inv
		l.loadedAt = l.now()
	}
	return inv, nil
}
