// Package config loads application settings with viper and sets up the
// global zap logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Events     EventsConfig     `yaml:"events" mapstructure:"events"`
	Stops      StopsConfig      `yaml:"stops" mapstructure:"stops"`
	Disruption DisruptionConfig `yaml:"disruption" mapstructure:"disruption"`
	Planner    PlannerConfig    `yaml:"planner" mapstructure:"planner"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures the event and geocode cache backend.
// Driver is "sqlite" (DatabaseURL is a file path) or "postgres".
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GoogleConfig holds the Maps Platform key shared by geocoding and directions.
type GoogleConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
	// DepartureHour is the local hour used as departure time for future travel dates.
	DepartureHour int    `yaml:"departure_hour" mapstructure:"departure_hour"`
	TimeZone      string `yaml:"time_zone" mapstructure:"time_zone"`
}

// GeocodeConfig configures the geocoder cascade and its cache.
type GeocodeConfig struct {
	CensusFallback   bool    `yaml:"census_fallback" mapstructure:"census_fallback"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	CacheTTLDays     int     `yaml:"cache_ttl_days" mapstructure:"cache_ttl_days"`
	BatchConcurrency int     `yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
}

// EventsConfig configures event ingestion and zone construction.
type EventsConfig struct {
	SourceURL    string  `yaml:"source_url" mapstructure:"source_url"`
	WindowDays   int     `yaml:"window_days" mapstructure:"window_days"`
	PageSize     int     `yaml:"page_size" mapstructure:"page_size"`
	PagesPerSec  float64 `yaml:"pages_per_sec" mapstructure:"pages_per_sec"`
	File         string  `yaml:"file" mapstructure:"file"`
	RadiusMeters float64 `yaml:"radius_meters" mapstructure:"radius_meters"`
	RadiusFile   string  `yaml:"radius_file" mapstructure:"radius_file"`
}

// StopsConfig locates the rail and bus stop inventories.
type StopsConfig struct {
	StationsURL    string `yaml:"stations_url" mapstructure:"stations_url"`
	BusStopsFile   string `yaml:"bus_stops_file" mapstructure:"bus_stops_file"`
	BusStopsFormat string `yaml:"bus_stops_format" mapstructure:"bus_stops_format"`
}

// DisruptionConfig tunes the matcher.
type DisruptionConfig struct {
	// IndexThreshold is the waypoint count at which the matcher switches to an R-tree. 0 disables it.
	IndexThreshold int `yaml:"index_threshold" mapstructure:"index_threshold"`
}

// PlannerConfig bounds a single route check.
type PlannerConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// ResilienceConfig configures retries and circuit breakers for upstream APIs.
type ResilienceConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DISRUPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/disruption.db")
	// Env-only keys need a default for AutomaticEnv to bind them on Unmarshal.
	v.SetDefault("google.key", "")
	v.SetDefault("google.departure_hour", 9)
	v.SetDefault("google.time_zone", "America/Chicago")
	v.SetDefault("geocode.census_fallback", true)
	v.SetDefault("geocode.rate_limit", 25.0)
	v.SetDefault("geocode.cache_ttl_days", 30)
	v.SetDefault("geocode.batch_concurrency", 5)
	v.SetDefault("events.source_url", "https://www.choosechicago.com/wp-json/tribe/events/v1/events")
	v.SetDefault("events.window_days", 7)
	v.SetDefault("events.page_size", 20)
	v.SetDefault("events.pages_per_sec", 2.0)
	v.SetDefault("events.file", "data/choose_chicago_events.json")
	v.SetDefault("events.radius_meters", 500.0)
	v.SetDefault("events.radius_file", "")
	v.SetDefault("stops.stations_url", "https://data.cityofchicago.org/resource/8pix-ypme.json")
	v.SetDefault("stops.bus_stops_file", "data/cta_bus_stops.csv")
	v.SetDefault("stops.bus_stops_format", "csv")
	v.SetDefault("disruption.index_threshold", 256)
	v.SetDefault("planner.timeout_secs", 15)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("resilience.max_attempts", 3)
	v.SetDefault("resilience.initial_backoff_ms", 500)
	v.SetDefault("resilience.max_backoff_ms", 5000)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 30)
}

// Validate checks the settings a command mode depends on. Every problem is
// reported, not only the first.
func (c *Config) Validate(mode string) error {
	var problems []string
	add := func(msg string) { problems = append(problems, msg) }

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		add("store.driver must be sqlite or postgres")
	}

	switch mode {
	case "check", "serve":
		if c.Google.Key == "" {
			add("google.key is required")
		}
		if c.Google.DepartureHour < 0 || c.Google.DepartureHour > 23 {
			add("google.departure_hour must be 0-23")
		}
		if c.Events.RadiusMeters < 0 {
			add("events.radius_meters must be >= 0")
		}
		if c.Planner.TimeoutSecs <= 0 {
			add("planner.timeout_secs must be > 0")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			add("server.port must be > 0")
		}
	case "scrape":
		if c.Events.SourceURL == "" {
			add("events.source_url is required")
		}
		if c.Events.WindowDays < 0 {
			add("events.window_days must be >= 0")
		}
		if c.Events.PageSize <= 0 {
			add("events.page_size must be > 0")
		}
	case "stops":
		switch c.Stops.BusStopsFormat {
		case "csv", "shp":
		default:
			add("stops.bus_stops_format must be csv or shp")
		}
	case "migrate", "list":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Store.DatabaseURL == "" {
		add("store.database_url is required")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
