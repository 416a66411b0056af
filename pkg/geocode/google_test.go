package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/disruption-cli/internal/resilience"
)

func newGoogleOnly(srvURL string) *geocoder {
	return &geocoder{
		httpClient: newRewriteClient(map[string]string{googleGeocodeURL: srvURL}),
		googleKey:  "test-key",
		limiter:    newTestLimiter(),
	}
}

func TestGoogleGeocode_Rooftop(t *testing.T) {
	var gotAddress, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"geometry": {
					"location": {"lat": 41.8827, "lng": -87.6233},
					"location_type": "ROOFTOP"
				},
				"formatted_address": "201 E Randolph St, Chicago, IL 60602, USA"
			}]
		}`))
	}))
	defer srv.Close()

	result, err := newGoogleOnly(srv.URL).geocodeGoogle(context.Background(), "201 E Randolph St, Chicago, IL")
	require.NoError(t, err)
	assert.Equal(t, "201 E Randolph St, Chicago, IL", gotAddress)
	assert.Equal(t, "test-key", gotKey)
	assert.True(t, result.Matched)
	assert.InDelta(t, 41.8827, result.Latitude, 0.0001)
	assert.InDelta(t, -87.6233, result.Longitude, 0.0001)
	assert.Equal(t, "google", result.Source)
	assert.Equal(t, "rooftop", result.Quality)
	assert.Equal(t, "201 E Randolph St, Chicago, IL 60602, USA", result.FormattedAddress)
}

func TestGoogleGeocode_ZeroResults(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"status": "ZERO_RESULTS", "results": []}`)

	result, err := newGoogleOnly(srv.URL).geocodeGoogle(context.Background(), "000 Nowhere")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestGoogleGeocode_OverQueryLimitIsTransient(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"status": "OVER_QUERY_LIMIT", "results": []}`)

	_, err := newGoogleOnly(srv.URL).geocodeGoogle(context.Background(), "Navy Pier, Chicago")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestGoogleGeocode_RequestDenied(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"status": "REQUEST_DENIED", "error_message": "bad key", "results": []}`)

	_, err := newGoogleOnly(srv.URL).geocodeGoogle(context.Background(), "Navy Pier, Chicago")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
	assert.False(t, resilience.IsTransient(err))
}

func TestGoogleGeocode_HTTPStatus(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusForbidden, false},
		{http.StatusServiceUnavailable, true},
		{http.StatusTooManyRequests, true},
	}
	for _, tt := range tests {
		srv := jsonServer(t, tt.status, `{}`)
		_, err := newGoogleOnly(srv.URL).geocodeGoogle(context.Background(), "Navy Pier")
		require.Error(t, err, "status=%d", tt.status)
		assert.Equal(t, tt.transient, resilience.IsTransient(err), "status=%d", tt.status)
	}
}

func TestGoogleGeocode_NoKey(t *testing.T) {
	g := &geocoder{httpClient: http.DefaultClient, limiter: newTestLimiter()}

	_, err := g.geocodeGoogle(context.Background(), "Navy Pier")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestGoogleLocationTypeToQuality(t *testing.T) {
	tests := []struct {
		locType  string
		expected string
	}{
		{"ROOFTOP", "rooftop"},
		{"RANGE_INTERPOLATED", "range"},
		{"GEOMETRIC_CENTER", "centroid"},
		{"APPROXIMATE", "approximate"},
		{"", "approximate"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, googleLocationTypeToQuality(tt.locType), "location_type=%s", tt.locType)
	}
}
