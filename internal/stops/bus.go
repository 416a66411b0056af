package stops

import (
	"context"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"

	"github.com/sells-group/disruption-cli/internal/fetcher"
	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/model"
)

// Attribute names in the CTA bus stop export.
const (
	busNameField = "PUBLIC_NAM"
	busIDField   = "SYSTEMSTOP"
)

// busRow is one row of the CTA bus stop CSV export.
type busRow struct {
	Geom   string `csv:"the_geom"`
	StopID string `csv:"SYSTEMSTOP"`
	Name   string `csv:"PUBLIC_NAM"`
}

// BusCSVSource loads bus stops from a CSV whose the_geom column holds a WKT
// point in lon/lat order. Path may be a local file or an http(s) URL.
type BusCSVSource struct {
	Path    string
	Fetcher fetcher.Fetcher
}

// Name implements Source.
func (s BusCSVSource) Name() string { return "bus_stops_csv" }

// Load implements Source. Rows with a missing name or unparseable geometry are skipped.
func (s BusCSVSource) Load(ctx context.Context) (Inventory, error) {
	body, err := fetcher.Open(ctx, s.Fetcher, s.Path)
	if err != nil {
		return Inventory{}, eris.Wrap(err, "bus: open csv")
	}
	defer body.Close() //nolint:errcheck

	rows, err := fetcher.DecodeCSV[busRow](body, fetcher.CSVOptions{LazyQuotes: true})
	if err != nil {
		return Inventory{}, eris.Wrap(err, "bus: decode csv")
	}

	out := make([]model.Stop, 0, len(rows))
	var skipped int
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		p, err := ParseWKTPoint(row.Geom)
		if name == "" || err != nil {
			skipped++
			continue
		}
		out = append(out, model.Stop{
			Name:     name,
			Kind:     model.StopKindBus,
			Location: p,
			SourceID: strings.TrimSpace(row.StopID),
		})
	}

	if skipped > 0 {
		zap.L().Debug("bus: skipped csv rows", zap.Int("skipped", skipped))
	}
	return NewInventory(out...), nil
}

// ParseWKTPoint parses a WKT POINT in lon/lat order.
func ParseWKTPoint(s string) (geo.Point, error) {
	g, err := wkt.Unmarshal(strings.TrimSpace(s))
	if err != nil {
		return geo.Point{}, eris.Wrapf(geo.ErrInvalidCoordinate, "wkt %q: %v", s, err)
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return geo.Point{}, eris.Wrapf(geo.ErrInvalidCoordinate, "wkt %q is not a point", s)
	}
	return geo.PointFromGeom(pt)
}

// BusShapefileSource loads bus stops from a local point shapefile carrying
// the PUBLIC_NAM attribute.
type BusShapefileSource struct {
	Path string
}

// Name implements Source.
func (s BusShapefileSource) Name() string { return "bus_stops_shp" }

// Load implements Source.
func (s BusShapefileSource) Load(ctx context.Context) (Inventory, error) {
	reader, err := shp.Open(s.Path)
	if err != nil {
		return Inventory{}, eris.Wrapf(err, "bus: open shapefile %s", s.Path)
	}
	defer func() { _ = reader.Close() }()

	fields := make(map[string]int)
	for i, f := range reader.Fields() {
		fields[strings.ToUpper(strings.TrimRight(f.String(), "\x00"))] = i
	}
	nameIdx, ok := fields[busNameField]
	if !ok {
		return Inventory{}, eris.Errorf("bus: shapefile %s has no %s field", s.Path, busNameField)
	}
	idIdx, hasID := fields[busIDField]

	var out []model.Stop
	var skipped int
	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return Inventory{}, eris.Wrap(err, "bus: read shapefile")
		}
		_, shape := reader.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}
		name := attribute(reader, nameIdx)
		p, err := geo.NewPoint(pt.Y, pt.X)
		if name == "" || err != nil {
			skipped++
			continue
		}
		stop := model.Stop{Name: name, Kind: model.StopKindBus, Location: p}
		if hasID {
			stop.SourceID = attribute(reader, idIdx)
		}
		out = append(out, stop)
	}

	if skipped > 0 {
		zap.L().Debug("bus: skipped shapefile records", zap.Int("skipped", skipped))
	}
	return NewInventory(out...), nil
}

func attribute(reader *shp.Reader, idx int) string {
	return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
}
