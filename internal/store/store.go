// Package store persists scraped events and the geocode cache in SQLite or
// Postgres.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/config"
	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/pkg/geocode"
)

// EventFilter specifies criteria for listing events. Dates are inclusive
// and use model.DateLayout; empty means unbounded.
type EventFilter struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Venue string `json:"venue,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for events and geocodes.
type Store interface {
	// Events
	UpsertEvents(ctx context.Context, events []model.Event) (int, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error)
	DeleteEventsBefore(ctx context.Context, date string) (int, error)

	// Geocode cache
	GetGeocode(ctx context.Context, key string, maxAge time.Duration) (*geocode.Result, bool, error)
	PutGeocode(ctx context.Context, key, address string, result *geocode.Result) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

var _ geocode.Cache = Store(nil)

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// prepareEvents validates events, assigns missing IDs and scrape times,
// and drops duplicates of (name, date, venue) keeping the last one.
func prepareEvents(events []model.Event, now time.Time) ([]model.Event, error) {
	type key struct{ name, date, venue string }
	index := make(map[key]int, len(events))
	out := make([]model.Event, 0, len(events))

	for _, e := range events {
		if strings.TrimSpace(e.Name) == "" {
			return nil, eris.New("store: event name is empty")
		}
		if _, err := e.Day(); err != nil {
			return nil, eris.Wrap(err, "store: event")
		}
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.ScrapedAt.IsZero() {
			e.ScrapedAt = now
		}
		k := key{e.Name, e.Date, e.Venue}
		if i, ok := index[k]; ok {
			out[i] = e
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}
	return out, nil
}
