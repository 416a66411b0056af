package stops

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/disruption-cli/internal/fetcher"
	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/model"
)

// railRow is one record of the "CTA - System Information - List of 'L'
// Stops" dataset. The portal lists one row per platform direction.
type railRow struct {
	StopID      string `json:"stop_id"`
	StopName    string `json:"stop_name"`
	StationName string `json:"station_name"`
	MapID       string `json:"map_id"`
	Location    *struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"location"`
}

// RailSource loads rail stations from the Chicago data portal JSON API.
type RailSource struct {
	URL     string
	Fetcher fetcher.Fetcher
}

// Name implements Source.
func (s RailSource) Name() string { return "rail_stations" }

// Load implements Source. Rows without a usable location are skipped and
// stations are deduplicated by name and location.
func (s RailSource) Load(ctx context.Context) (Inventory, error) {
	body, err := fetcher.Open(ctx, s.Fetcher, s.URL)
	if err != nil {
		return Inventory{}, eris.Wrap(err, "rail: fetch stations")
	}
	defer body.Close() //nolint:errcheck

	type key struct {
		name string
		loc  geo.Point
	}
	seen := make(map[key]struct{})
	var out []model.Stop
	var skipped int

	err = fetcher.EachJSON(ctx, body, func(row railRow) error {
		stop, ok := row.stop()
		if !ok {
			skipped++
			return nil
		}
		k := key{name: stop.Name, loc: stop.Location}
		if _, dup := seen[k]; dup {
			return nil
		}
		seen[k] = struct{}{}
		out = append(out, stop)
		return nil
	})
	if err != nil {
		return Inventory{}, eris.Wrap(err, "rail: decode stations")
	}

	if skipped > 0 {
		zap.L().Debug("rail: skipped rows without location", zap.Int("skipped", skipped))
	}
	return NewInventory(out...), nil
}

func (row railRow) stop() (model.Stop, bool) {
	name := strings.TrimSpace(row.StationName)
	if name == "" {
		name = strings.TrimSpace(row.StopName)
	}
	if name == "" || row.Location == nil {
		return model.Stop{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(row.Location.Latitude), 64)
	if err != nil {
		return model.Stop{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(row.Location.Longitude), 64)
	if err != nil {
		return model.Stop{}, false
	}
	p, err := geo.NewPoint(lat, lng)
	if err != nil {
		return model.Stop{}, false
	}

	id := row.MapID
	if id == "" {
		id = row.StopID
	}
	return model.Stop{Name: name, Kind: model.StopKindRail, Location: p, SourceID: id}, true
}
