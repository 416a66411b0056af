package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/store"
)

// Snapshot is a point-in-time view of the stored event data.
type Snapshot struct {
	UpcomingEvents int       `json:"upcoming_events"`
	Venues         int       `json:"venues"`
	WithoutAddress int       `json:"without_address"`
	LastScrapedAt  time.Time `json:"last_scraped_at,omitzero"`
	WindowDays     int       `json:"window_days"`
	CollectedAt    time.Time `json:"collected_at"`
}

// Stale reports whether the newest stored event was scraped more than
// maxAge before the snapshot, or no event is stored at all.
func (s *Snapshot) Stale(maxAge time.Duration) bool {
	if s.LastScrapedAt.IsZero() {
		return true
	}
	return s.CollectedAt.Sub(s.LastScrapedAt) > maxAge
}

// EventLister is the slice of store.Store the collector reads.
type EventLister interface {
	ListEvents(ctx context.Context, filter store.EventFilter) ([]model.Event, error)
}

// Collector gathers event freshness from the store.
type Collector struct {
	store EventLister
	now   func() time.Time
}

// NewCollector creates a new collector.
func NewCollector(st EventLister) *Collector {
	return &Collector{store: st, now: time.Now}
}

// Collect summarizes the events dated from today through today+windowDays.
func (c *Collector) Collect(ctx context.Context, windowDays int) (*Snapshot, error) {
	now := c.now().UTC()
	snap := &Snapshot{WindowDays: windowDays, CollectedAt: now}

	from := now.Format(model.DateLayout)
	to := now.AddDate(0, 0, windowDays).Format(model.DateLayout)
	events, err := c.store.ListEvents(ctx, store.EventFilter{From: from, To: to})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list events")
	}

	venues := make(map[string]struct{})
	for _, e := range events {
		snap.UpcomingEvents++
		venues[e.Venue] = struct{}{}
		if !e.HasAddress() {
			snap.WithoutAddress++
		}
		if e.ScrapedAt.After(snap.LastScrapedAt) {
			snap.LastScrapedAt = e.ScrapedAt
		}
	}
	snap.Venues = len(venues)
	return snap, nil
}
