package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/disruption-cli/internal/geo"
	"github.com/sells-group/disruption-cli/internal/model"
	"github.com/sells-group/disruption-cli/internal/planner"
)

const maxBodyBytes = 64 << 10

type checkRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Date  string `json:"date"`
}

type checkResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	*planner.Plan
	Route             *geojson.Geometry `json:"route,omitempty"`
	Polyline          string            `json:"polyline"`
	RouteLengthMeters float64           `json:"route_length_meters"`
}

type stopsResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	*planner.StopsResult
}

type errorResponse struct {
	Status    string          `json:"status"`
	RequestID string          `json:"request_id,omitempty"`
	Error     string          `json:"error"`
	Kind      model.ErrorKind `json:"kind"`
	Detail    string          `json:"detail,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var body checkRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, r, eris.Wrapf(model.ErrInvalidRequest, "decode body: %v", err))
		return
	}
	day, err := model.ParseDate(body.Date)
	if err != nil {
		s.writeError(w, r, eris.Wrapf(model.ErrInvalidRequest, "date must be YYYY-MM-DD: %q", body.Date))
		return
	}

	plan, err := s.svc.Check(r.Context(), planner.Request{Start: body.Start, End: body.End, Date: day})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := checkResponse{
		Status:            "ok",
		RequestID:         RequestIDFrom(r.Context()),
		Plan:              plan,
		Polyline:          plan.Route.Encode(),
		RouteLengthMeters: plan.Route.LengthMeters(),
	}
	if ls := plan.Route.LineString(); ls != nil {
		g, err := geojson.Encode(ls)
		if err != nil {
			s.writeError(w, r, eris.Wrap(err, "api: encode route geometry"))
			return
		}
		resp.Route = g
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStops(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseStopsQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.NearbyStops(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stopsResponse{
		Status:      "ok",
		RequestID:   RequestIDFrom(r.Context()),
		StopsResult: res,
	})
}

// parseStopsQuery reads ?lat=&lng= or ?address= plus an optional radius.
func (s *Server) parseStopsQuery(r *http.Request) (planner.StopsRequest, error) {
	q := r.URL.Query()
	req := planner.StopsRequest{
		Address:      strings.TrimSpace(q.Get("address")),
		RadiusMeters: s.defaultRadius,
	}

	if raw := q.Get("radius"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, eris.Wrapf(model.ErrInvalidRequest, "radius %q is not a number", raw)
		}
		req.RadiusMeters = v
	}

	lat, lng := q.Get("lat"), q.Get("lng")
	if lat == "" && lng == "" {
		return req, nil
	}
	if lat == "" || lng == "" {
		return req, eris.Wrap(model.ErrInvalidRequest, "lat and lng must be given together")
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return req, eris.Wrapf(model.ErrInvalidRequest, "lat %q is not a number", lat)
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return req, eris.Wrapf(model.ErrInvalidRequest, "lng %q is not a number", lng)
	}
	req.Center = &geo.Point{Lat: la, Lng: ln}
	return req, nil
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindInvalidRequest, model.KindInvalidCoordinate, model.KindInvalidRadius:
		return http.StatusBadRequest
	case model.KindGeocodeMiss:
		return http.StatusUnprocessableEntity
	case model.KindRoutingFailure:
		return http.StatusBadGateway
	case model.KindDatasetUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := model.Classify(err)
	status := statusFor(kind)
	id := RequestIDFrom(r.Context())

	zap.L().Error("api: request failed",
		zap.String("request_id", id),
		zap.String("path", r.URL.Path),
		zap.String("kind", string(kind)),
		zap.Int("status", status),
		zap.Error(err),
	)

	resp := errorResponse{
		Status:    "error",
		RequestID: id,
		Error:     model.UserMessage(err),
		Kind:      kind,
	}
	if kind != model.KindInternal {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: write response", zap.Error(err))
	}
}
