package geocode

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCensusOnly(srvURL string) *geocoder {
	return &geocoder{
		httpClient: newRewriteClient(map[string]string{censusOneLineURL: srvURL}),
		census:     true,
		limiter:    newTestLimiter(),
	}
}

func TestCensusGeocode_Match(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{
		"result": {
			"addressMatches": [{
				"coordinates": {"x": -87.6298, "y": 41.8781},
				"matchedAddress": "121 N LASALLE ST, CHICAGO, IL, 60602"
			}]
		}
	}`)

	result, err := newCensusOnly(srv.URL).geocodeCensus(context.Background(), "121 N LaSalle St, Chicago, IL")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 41.8781, result.Latitude, 1e-6)
	assert.InDelta(t, -87.6298, result.Longitude, 1e-6)
	assert.Equal(t, "census", result.Source)
	assert.Equal(t, "121 N LASALLE ST, CHICAGO, IL, 60602", result.FormattedAddress)
}

func TestCensusGeocode_NoMatch(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"result": {"addressMatches": []}}`)

	result, err := newCensusOnly(srv.URL).geocodeCensus(context.Background(), "Somewhere else")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, "census", result.Source)
}

func TestCensusGeocode_BadJSON(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `not json`)

	_, err := newCensusOnly(srv.URL).geocodeCensus(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "census parse response")
}
