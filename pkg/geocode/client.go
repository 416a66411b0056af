// Package geocode resolves free-text addresses into coordinates via Google
// Geocoding (primary) and the Census one-line geocoder (fallback).
//
// A miss is reported as Result{Matched: false}, never as a sentinel coordinate
// and never as an error. Errors are reserved for transport failures.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/resilience"
)

// Client geocodes addresses.
type Client interface {
	// Geocode geocodes a single address.
	Geocode(ctx context.Context, address string) (*Result, error)

	// BatchGeocode geocodes addresses; results align with the input by index.
	// Individual failures become unmatched results.
	BatchGeocode(ctx context.Context, addresses []string) ([]Result, error)
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Source           string  `json:"source"`  // "google", "census", or "cache"
	Quality          string  `json:"quality"` // "rooftop", "range", "centroid", "approximate"
	FormattedAddress string  `json:"formatted_address,omitempty"`
	Matched          bool    `json:"matched"`
}

// Point returns the matched location. ok is false for a miss or for a
// provider answer outside the valid coordinate range.
func (r *Result) Point() (p geo.Point, ok bool) {
	if r == nil || !r.Matched {
		return geo.Point{}, false
	}
	p, err := geo.NewPoint(r.Latitude, r.Longitude)
	if err != nil {
		return geo.Point{}, false
	}
	return p, true
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithGoogleAPIKey enables the Google Geocoding API.
func WithGoogleAPIKey(key string) Option {
	return func(g *geocoder) {
		g.googleKey = key
	}
}

// WithCensusFallback enables or disables the Census one-line geocoder.
func WithCensusFallback(enabled bool) Option {
	return func(g *geocoder) {
		g.census = enabled
	}
}

// WithHTTPClient sets a custom HTTP client for both providers.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit shared by both providers.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBatchConcurrency sets the max parallel lookups in BatchGeocode.
func WithBatchConcurrency(n int) Option {
	return func(g *geocoder) {
		if n > 0 {
			g.batchConcurrency = n
		}
	}
}

// WithRetry sets the retry policy for transient provider failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(g *geocoder) {
		g.retry = cfg
	}
}

type geocoder struct {
	httpClient       *http.Client
	googleKey        string
	census           bool
	limiter          *rate.Limiter
	batchConcurrency int
	retry            resilience.RetryConfig
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient:       &http.Client{Timeout: 30 * time.Second},
		census:           true,
		limiter:          rate.NewLimiter(25, 25),
		batchConcurrency: 5,
		retry:            resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode tries Google first when a key is configured, then Census if enabled.
func (g *geocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return &Result{Matched: false}, nil
	}

	var lastErr error
	if g.googleKey != "" {
		result, err := resilience.DoVal(ctx, g.retryConfig("geocode_google"), func(ctx context.Context) (*Result, error) {
			return g.geocodeGoogle(ctx, address)
		})
		if err == nil && result.Matched {
			return result, nil
		}
		lastErr = err
	}

	if g.census {
		result, err := resilience.DoVal(ctx, g.retryConfig("geocode_census"), func(ctx context.Context) (*Result, error) {
			return g.geocodeCensus(ctx, address)
		})
		if err == nil && result.Matched {
			return result, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = nil
		}
	}

	// Every provider failed at the transport level: surface the error so the
	// caller can tell an outage from a miss.
	if lastErr != nil {
		return nil, lastErr
	}
	return &Result{Matched: false}, nil
}

// BatchGeocode geocodes addresses in parallel. Failed lookups become misses.
func (g *geocoder) BatchGeocode(ctx context.Context, addresses []string) ([]Result, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	results := make([]Result, len(addresses))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.batchConcurrency)

	for i, addr := range addresses {
		eg.Go(func() error {
			r, err := g.Geocode(gCtx, addr)
			if err != nil || r == nil {
				zap.L().Debug("geocode: batch lookup failed",
					zap.Int("index", i),
					zap.Error(err),
				)
				results[i] = Result{Matched: false}
				return nil //nolint:nilerr // individual geocode failures don't fail the batch
			}
			results[i] = *r
			return nil
		})
	}

	_ = eg.Wait()
	return results, ctx.Err()
}

func (g *geocoder) retryConfig(operation string) resilience.RetryConfig {
	cfg := g.retry
	cfg.OnRetry = resilience.RetryLogger("geocode", operation)
	return cfg
}
