package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp moves into an empty temp dir so no config.yaml is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "data/disruption.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 9, cfg.Google.DepartureHour)
	assert.True(t, cfg.Geocode.CensusFallback)
	assert.Equal(t, 30, cfg.Geocode.CacheTTLDays)
	assert.Equal(t, 7, cfg.Events.WindowDays)
	assert.Equal(t, 20, cfg.Events.PageSize)
	assert.InDelta(t, 500.0, cfg.Events.RadiusMeters, 1e-9)
	assert.Equal(t, "data/choose_chicago_events.json", cfg.Events.File)
	assert.Equal(t, "https://data.cityofchicago.org/resource/8pix-ypme.json", cfg.Stops.StationsURL)
	assert.Equal(t, "csv", cfg.Stops.BusStopsFormat)
	assert.Equal(t, 15, cfg.Planner.TimeoutSecs)
	assert.Equal(t, 256, cfg.Disruption.IndexThreshold)
	assert.Equal(t, 3, cfg.Resilience.MaxAttempts)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/disrupt
log:
  level: debug
  format: console
events:
  radius_meters: 250
  window_days: 3
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.InDelta(t, 250.0, cfg.Events.RadiusMeters, 1e-9)
	assert.Equal(t, 3, cfg.Events.WindowDays)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 20, cfg.Events.PageSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
events:
  radius_meters: 250
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("DISRUPT_LOG_LEVEL", "warn")
	t.Setenv("DISRUPT_EVENTS_RADIUS_METERS", "750")
	t.Setenv("DISRUPT_GOOGLE_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.InDelta(t, 750.0, cfg.Events.RadiusMeters, 1e-9)
	assert.Equal(t, "env-key", cfg.Google.Key)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unterminated"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "data/disruption.db"
	cfg.Google.Key = "key"
	cfg.Google.DepartureHour = 9
	cfg.Events.SourceURL = "https://example.com/events"
	cfg.Events.WindowDays = 7
	cfg.Events.PageSize = 20
	cfg.Events.RadiusMeters = 500
	cfg.Stops.BusStopsFormat = "csv"
	cfg.Planner.TimeoutSecs = 15
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModesPassWithDefaults(t *testing.T) {
	for _, mode := range []string{"check", "serve", "scrape", "stops", "migrate", "list"} {
		assert.NoError(t, validDefaults().Validate(mode), mode)
	}
}

func TestValidate_CheckReportsEveryProblem(t *testing.T) {
	cfg := validDefaults()
	cfg.Google.Key = ""
	cfg.Events.RadiusMeters = -1
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google.key is required")
	assert.Contains(t, err.Error(), "events.radius_meters must be >= 0")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidate_ServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	assert.NoError(t, cfg.Validate("check"))
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_StopsFormat(t *testing.T) {
	cfg := validDefaults()
	cfg.Stops.BusStopsFormat = "xlsx"

	err := cfg.Validate("stops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bus_stops_format")
}

func TestValidate_ScrapePageSize(t *testing.T) {
	cfg := validDefaults()
	cfg.Events.PageSize = 0

	err := cfg.Validate("scrape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events.page_size must be > 0")
}

func TestValidate_UnknownDriverAndMode(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	assert.ErrorContains(t, cfg.Validate("migrate"), "store.driver")

	assert.ErrorContains(t, validDefaults().Validate("unknown"), "unknown mode")
}
