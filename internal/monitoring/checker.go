package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Checker periodically collects an event snapshot, publishes it as metrics,
// and warns when the event data has gone stale.
type Checker struct {
	collector  *Collector
	metrics    *Metrics
	interval   time.Duration
	windowDays int
	staleAfter time.Duration
}

// NewChecker creates a background freshness checker.
func NewChecker(collector *Collector, metrics *Metrics, interval time.Duration, windowDays int) *Checker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Checker{
		collector:  collector,
		metrics:    metrics,
		interval:   interval,
		windowDays: windowDays,
		staleAfter: 48 * time.Hour,
	}
}

// Run checks once immediately and then on every tick. It blocks until ctx
// is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting event freshness checker",
		zap.Duration("interval", c.interval),
		zap.Int("window_days", c.windowDays),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.check(ctx, log)
	for {
		select {
		case <-ctx.Done():
			log.Info("event freshness checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) *Snapshot {
	snap, err := c.collector.Collect(ctx, c.windowDays)
	if err != nil {
		log.Error("monitoring: failed to collect event snapshot", zap.Error(err))
		return nil
	}
	c.metrics.SetEventSnapshot(snap)

	if snap.Stale(c.staleAfter) {
		log.Warn("monitoring: event data is stale, run `disruption events scrape`",
			zap.Time("last_scraped_at", snap.LastScrapedAt),
			zap.Int("upcoming_events", snap.UpcomingEvents),
		)
		return snap
	}
	log.Debug("monitoring: event snapshot",
		zap.Int("upcoming_events", snap.UpcomingEvents),
		zap.Int("venues", snap.Venues),
	)
	return snap
}
