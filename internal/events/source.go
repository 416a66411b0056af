package events

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/store"
)

// Source returns the events scheduled on a travel date.
type Source interface {
	EventsOn(ctx context.Context, date time.Time) ([]model.Event, error)
}

// FileSource reads events from the scraper's JSON file.
type FileSource struct {
	Path string
}

// EventsOn implements Source. A missing or unreadable file is ErrDatasetUnavailable.
func (s FileSource) EventsOn(_ context.Context, date time.Time) ([]model.Event, error) {
	all, err := ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(model.ErrDatasetUnavailable, "events: %v", err)
	}
	day := date.Format(model.DateLayout)

	var out []model.Event
	for _, e := range all {
		if e.Date == day {
			out = append(out, e)
		}
	}
	return out, nil
}

// StoreSource reads events from the event store.
type StoreSource struct {
	Store store.Store
}

// EventsOn implements Source. Store failures are ErrDatasetUnavailable.
func (s StoreSource) EventsOn(ctx context.Context, date time.Time) ([]model.Event, error) {
	day := date.Format(model.DateLayout)
	events, err := s.Store.ListEvents(ctx, store.EventFilter{From: day, To: day})
	if err != nil {
		return nil, eris.Wrapf(model.ErrDatasetUnavailable, "events: %v", err)
	}
	return events, nil
}
