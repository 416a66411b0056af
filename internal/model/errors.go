package model

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/disruption-cli/internal/geo"
)

var (
	// ErrGeocodeMiss means an address could not be resolved. For events it
	// only excludes the event; for route endpoints it fails the request.
	ErrGeocodeMiss = eris.New("address could not be geocoded")

	// ErrRoutingFailure means the router returned no usable path.
	ErrRoutingFailure = eris.New("could not compute a route")

	// ErrInvalidRequest means a request is missing required input.
	ErrInvalidRequest = eris.New("invalid request")

	// ErrDatasetUnavailable means the event source or a stop inventory could not be loaded.
	ErrDatasetUnavailable = eris.New("dataset unavailable")
)

// ErrorKind is a stable, user-facing classification of a failed request.
type ErrorKind string

const (
	KindInvalidRequest     ErrorKind = "invalid_request"
	KindInvalidCoordinate  ErrorKind = "invalid_coordinate"
	KindInvalidRadius      ErrorKind = "invalid_radius"
	KindGeocodeMiss        ErrorKind = "geocode_miss"
	KindRoutingFailure     ErrorKind = "routing_failure"
	KindDatasetUnavailable ErrorKind = "dataset_unavailable"
	KindInternal           ErrorKind = "internal"
)

// Classify maps err onto the error taxonomy.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case eris.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case eris.Is(err, geo.ErrInvalidCoordinate):
		return KindInvalidCoordinate
	case eris.Is(err, geo.ErrInvalidRadius):
		return KindInvalidRadius
	case eris.Is(err, ErrGeocodeMiss):
		return KindGeocodeMiss
	case eris.Is(err, ErrRoutingFailure):
		return KindRoutingFailure
	case eris.Is(err, ErrDatasetUnavailable):
		return KindDatasetUnavailable
	default:
		return KindInternal
	}
}

// UserMessage returns a short message suitable for display.
func UserMessage(err error) string {
	switch Classify(err) {
	case KindInvalidRequest:
		return "invalid request"
	case KindInvalidCoordinate:
		return "invalid coordinate"
	case KindInvalidRadius:
		return "radius must be zero or greater"
	case KindGeocodeMiss:
		return "address not found"
	case KindRoutingFailure:
		return "could not compute a route"
	case KindDatasetUnavailable:
		return "event or stop data unavailable"
	case KindInternal:
		return "internal error"
	default:
		return ""
	}
}
