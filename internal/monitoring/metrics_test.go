package monitoring

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/resilience"
)

var errBoom = errors.New("boom")

func TestMetrics_CheckCompleted(t *testing.T) {
	m := NewMetrics()

	m.CheckCompleted("", 300*time.Millisecond)
	m.CheckCompleted("", time.Second)
	m.CheckCompleted(model.KindRoutingFailure, 2*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checksTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checksTotal.WithLabelValues("routing_failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.checkDuration))
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.GeocodeMiss("event")
	m.GeocodeMiss("event")
	m.GeocodeMiss("endpoint")
	m.UpstreamFailure("google_directions")
	m.DisruptionsFound(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.geocodeMisses.WithLabelValues("event")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.geocodeMisses.WithLabelValues("endpoint")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamFailures.WithLabelValues("google_directions")))
}

func TestMetrics_BreakerHook(t *testing.T) {
	m := NewMetrics()
	sb := resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour}, m.BreakerStateChanged)

	cb := sb.Get("google_directions")
	_ = cb.Execute(t.Context(), func(ctx context.Context) error { return errBoom })

	assert.Equal(t, float64(resilience.CircuitOpen), testutil.ToFloat64(m.circuitState.WithLabelValues("google_directions")))
}

func TestMetrics_EventSnapshot(t *testing.T) {
	m := NewMetrics()
	scraped := time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)

	m.SetEventSnapshot(&Snapshot{UpcomingEvents: 42, LastScrapedAt: scraped})
	assert.Equal(t, 42.0, testutil.ToFloat64(m.upcomingEvents))
	assert.Equal(t, float64(scraped.Unix()), testutil.ToFloat64(m.lastScrape))

	m.SetEventSnapshot(&Snapshot{UpcomingEvents: 0})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.upcomingEvents))
	assert.Equal(t, float64(scraped.Unix()), testutil.ToFloat64(m.lastScrape), "zero time leaves the gauge alone")
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveHTTP(http.MethodPost, "/v1/disruptions", http.StatusOK, 40*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `disruption_http_requests_total{method="POST",route="/v1/disruptions",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
