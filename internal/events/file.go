package events

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/model"
)

// fileEvent is the on-disk record shape: [{event_name,date,venue,location,url}].
type fileEvent struct {
	Name    string `json:"event_name"`
	Date    string `json:"date"`
	Venue   string `json:"venue"`
	Address string `json:"location"`
	URL     string `json:"url"`
}

// ReadFile loads events from a JSON file.
func ReadFile(path string) ([]model.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "events: read %s", path)
	}
	var rows []fileEvent
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "events: decode %s", path)
	}

	out := make([]model.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Event{
			Name:    r.Name,
			Date:    r.Date,
			Venue:   r.Venue,
			Address: r.Address,
			URL:     r.URL,
		})
	}
	return out, nil
}

// WriteFile writes events as an indented JSON array, replacing path atomically.
func WriteFile(path string, events []model.Event) error {
	rows := make([]fileEvent, 0, len(events))
	for _, e := range events {
		rows = append(rows, fileEvent{
			Name:    e.Name,
			Date:    e.Date,
			Venue:   e.Venue,
			Address: e.Address,
			URL:     e.URL,
		})
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return eris.Wrap(err, "events: encode")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "events: create directory for %s", path)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "events: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "events: rename %s", tmp)
	}
	return nil
}
