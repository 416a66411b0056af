// Package directions computes transit routes with the Google Directions API.
package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/resilience"
	"github.com/sells-group/disruption-cli/internal/route"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// Router computes a transit route between two points. Every failure wraps
// model.ErrRoutingFailure; a Router never returns an empty route without one.
type Router interface {
	Route(ctx context.Context, origin, destination geo.Point, departure time.Time) (route.Route, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry sets the retry policy for transient upstream failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithCircuitBreaker routes every call through cb.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *httpClient) {
		c.breaker = cb
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewClient creates a Google Directions client.
func NewClient(apiKey string, opts ...Option) Router {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		retry:   resilience.DefaultRetryConfig(),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	}
	for _, o := range opts {
		o(c)
	}
	c.retry.OnRetry = resilience.RetryLogger("google_directions", "route")
	return c
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Steps []step `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

type step struct {
	TravelMode     string          `json:"travel_mode"`
	TransitDetails *transitDetails `json:"transit_details,omitempty"`
}

type transitDetails struct {
	DepartureStop transitStop `json:"departure_stop"`
	ArrivalStop   transitStop `json:"arrival_stop"`
	Line          struct {
		Name      string `json:"name"`
		ShortName string `json:"short_name"`
	} `json:"line"`
}

type transitStop struct {
	Name     string `json:"name"`
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

// Route requests a transit route. A zero departure lets the API use "now".
func (c *httpClient) Route(ctx context.Context, origin, destination geo.Point, departure time.Time) (route.Route, error) {
	if err := origin.Validate(); err != nil {
		return route.Route{}, eris.Wrap(err, "directions: origin")
	}
	if err := destination.Validate(); err != nil {
		return route.Route{}, eris.Wrap(err, "directions: destination")
	}

	resp, err := resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) (*directionsResponse, error) {
		return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*directionsResponse, error) {
			return c.fetch(ctx, origin, destination, departure)
		})
	})
	if err != nil {
		return route.Route{}, eris.Wrapf(model.ErrRoutingFailure, "directions: %v", err)
	}

	if resp.Status != "OK" {
		detail := resp.Status
		if resp.ErrorMessage != "" {
			detail += ": " + resp.ErrorMessage
		}
		return route.Route{}, eris.Wrapf(model.ErrRoutingFailure, "directions: status %s", detail)
	}
	if len(resp.Routes) == 0 {
		return route.Route{}, eris.Wrap(model.ErrRoutingFailure, "directions: no routes returned")
	}

	best := resp.Routes[0]
	var stops []route.Stop
	for _, leg := range best.Legs {
		for _, s := range leg.Steps {
			stops = append(stops, transitStops(s)...)
		}
	}

	r, err := route.FromPolyline(best.OverviewPolyline.Points, stops...)
	if err != nil {
		return route.Route{}, eris.Wrapf(model.ErrRoutingFailure, "directions: %v", err)
	}
	return r, nil
}

func (c *httpClient) fetch(ctx context.Context, origin, destination geo.Point, departure time.Time) (*directionsResponse, error) {
	params := url.Values{
		"origin":      {latLng(origin)},
		"destination": {latLng(destination)},
		"mode":        {"transit"},
		"key":         {c.apiKey},
	}
	if !departure.IsZero() {
		params.Set("departure_time", strconv.FormatInt(departure.Unix(), 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/directions/json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "directions: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "directions: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "directions: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("directions: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var out directionsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "directions: unmarshal response")
	}
	if out.Status == "OVER_QUERY_LIMIT" || out.Status == "UNKNOWN_ERROR" {
		return nil, resilience.NewTransientError(
			eris.Errorf("directions: status %s", out.Status), http.StatusTooManyRequests)
	}
	return &out, nil
}

// transitStops returns the boarding and alighting stops of a transit step.
// Stops with out-of-range coordinates are dropped.
func transitStops(s step) []route.Stop {
	if s.TravelMode != "TRANSIT" || s.TransitDetails == nil {
		return nil
	}
	line := s.TransitDetails.Line.ShortName
	if line == "" {
		line = s.TransitDetails.Line.Name
	}

	var out []route.Stop
	for _, ts := range []transitStop{s.TransitDetails.DepartureStop, s.TransitDetails.ArrivalStop} {
		p, err := geo.NewPoint(ts.Location.Lat, ts.Location.Lng)
		if err != nil {
			continue
		}
		out = append(out, route.Stop{Name: ts.Name, Location: p, Line: line})
	}
	return out
}

func latLng(p geo.Point) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}
