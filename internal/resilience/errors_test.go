package resilience

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("invalid request"), false},
		{"explicit", NewTransientError(errors.New("overloaded"), 503), true},
		{"fmt wrapped", fmt.Errorf("geocode: %w", NewTransientError(errors.New("quota"), 429)), true},
		{"eris wrapped", eris.Wrap(NewTransientError(errors.New("quota"), 429), "directions"), true},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"dns timeout", &net.DNSError{IsTimeout: true, Err: "timeout"}, true},
		{"text i/o timeout", errors.New("read tcp 10.0.0.1: i/o timeout"), true},
		{"text no such host", errors.New("dial tcp: lookup maps.googleapis.com: no such host"), true},
		{"text broken pipe", errors.New("write: Broken Pipe"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	assert.True(t, IsTransientHTTPStatus(http.StatusServiceUnavailable))
}

func TestTransientError_UnwrapAndMessage(t *testing.T) {
	inner := errors.New("census down")
	te := NewTransientError(inner, 502)

	assert.Equal(t, "census down", te.Error())
	assert.ErrorIs(t, te, inner)
	assert.Equal(t, 502, te.StatusCode)
}
