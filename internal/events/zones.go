package events

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/disruption-cli/internal/disruption"
	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/pkg/geocode"
)

// ZoneStats summarizes one zone build.
type ZoneStats struct {
	Events int      `json:"events"`
	Zones  int      `json:"zones"`
	Misses []string `json:"geocode_misses,omitempty"`
	// LookupFailures names events whose address lookup errored. They are
	// excluded like misses but say nothing about the address itself.
	LookupFailures []string `json:"lookup_failures,omitempty"`
}

// maxFailedShare is the share of distinct addresses whose lookup may error
// before a build fails instead of returning a partial zone list.
const maxFailedShare = 0.5

// ZoneBuilder geocodes event addresses and builds one disruption zone per
// event that resolves. Events that do not resolve are excluded.
type ZoneBuilder struct {
	geocoder    geocode.Client
	radius      RadiusPolicy
	concurrency int
	onMiss      func(model.Event)
}

// ZoneOption configures a ZoneBuilder.
type ZoneOption func(*ZoneBuilder)

// WithConcurrency bounds parallel geocode lookups.
func WithConcurrency(n int) ZoneOption {
	return func(b *ZoneBuilder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithMissHook runs for every event excluded because its address did not geocode.
func WithMissHook(fn func(model.Event)) ZoneOption {
	return func(b *ZoneBuilder) { b.onMiss = fn }
}

// NewZoneBuilder creates a ZoneBuilder.
func NewZoneBuilder(gc geocode.Client, radius RadiusPolicy, opts ...ZoneOption) *ZoneBuilder {
	b := &ZoneBuilder{geocoder: gc, radius: radius, concurrency: 5}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns zones in event order. Each distinct address is geocoded once.
// A lookup that errors excludes its events and is reported in
// ZoneStats.LookupFailures. When more than half of the lookups error, or ctx
// is cancelled, the build fails with model.ErrDatasetUnavailable.
func (b *ZoneBuilder) Build(ctx context.Context, events []model.Event) ([]disruption.EventZone, ZoneStats, error) {
	log := zap.L().With(zap.String("component", "events.zones"))
	stats := ZoneStats{Events: len(events)}

	var addresses []string
	seen := make(map[string]struct{})
	for _, e := range events {
		if !e.HasAddress() {
			continue
		}
		key := addressKey(e.Address)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		addresses = append(addresses, e.Address)
	}

	var mu sync.Mutex
	located := make(map[string]geo.Point, len(addresses))
	failed := make(map[string]error)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, addr := range addresses {
		g.Go(func() error {
			res, err := b.geocoder.Geocode(gctx, addr)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn("event address lookup failed", zap.String("address", addr), zap.Error(err))
				mu.Lock()
				failed[addressKey(addr)] = err
				mu.Unlock()
				return nil
			}
			if p, ok := res.Point(); ok {
				mu.Lock()
				located[addressKey(addr)] = p
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, eris.Wrap(err, "events: geocode event addresses")
	}
	if n := len(failed); n > 0 && float64(n) > maxFailedShare*float64(len(addresses)) {
		var last error
		for _, err := range failed {
			last = err
			break
		}
		return nil, stats, eris.Wrapf(model.ErrDatasetUnavailable,
			"events: %d of %d event address lookups failed: %v", n, len(addresses), last)
	}

	zones := make([]disruption.EventZone, 0, len(events))
	for _, e := range events {
		key := addressKey(e.Address)
		if _, ok := failed[key]; ok && e.HasAddress() {
			stats.LookupFailures = append(stats.LookupFailures, e.Name)
			continue
		}
		p, ok := located[key]
		if !e.HasAddress() || !ok {
			log.Debug("excluding event without a geocoded address",
				zap.String("event", e.Name), zap.String("address", e.Address))
			stats.Misses = append(stats.Misses, e.Name)
			if b.onMiss != nil {
				b.onMiss(e)
			}
			continue
		}
		zones = append(zones, disruption.EventZone{
			Name:         e.Name,
			Center:       p,
			RadiusMeters: b.radius.For(e),
		})
	}
	stats.Zones = len(zones)
	return zones, stats, nil
}

func addressKey(addr string) string {
	return strings.ToLower(strings.Join(strings.Fields(addr), " "))
}
