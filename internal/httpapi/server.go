// Package httpapi serves the browser-facing HTTP surface: GeoJSON marker
// layers, PNG history charts, health and Prometheus metrics.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/internal/observability"
	"github.com/signalsfoundry/hazardscope/internal/snapshot"
	"github.com/signalsfoundry/hazardscope/internal/viz"
)

const requestIDHeader = "X-Request-Id"

var errBadQuery = errors.New("bad query parameter")

// Server routes HTTP requests onto the visualizer service.
type Server struct {
	svc       *viz.Service
	store     *snapshot.Store
	collector *observability.VizCollector
	log       logging.Logger
	mux       *http.ServeMux
}

// Option customises Server construction.
type Option func(*Server)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCollector enables /metrics and per-handler request counters.
func WithCollector(c *observability.VizCollector) Option {
	return func(s *Server) {
		s.collector = c
	}
}

// New returns a Server answering from store through svc.
func New(store *snapshot.Store, svc *viz.Service, opts ...Option) *Server {
	s := &Server{
		svc:   svc,
		store: store,
		log:   logging.Noop(),
		mux:   http.NewServeMux(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.handle("GET /healthz", "healthz", s.handleHealth)
	s.handle("GET /v1/markers.geojson", "markers", s.handleMarkers)
	s.handle("GET /v1/charts/safe.png", "chart_safe", s.handleSafeChart)
	s.handle("GET /v1/charts/nodes/{id}/{kind}", "chart_node", s.handleNodeChart)
	if s.collector != nil {
		s.mux.Handle("GET /metrics", s.collector.Handler())
	}
	return s
}

func (s *Server) handle(pattern, name string, h http.HandlerFunc) {
	var handler http.Handler = s.withRequestLogger(h)
	if s.collector != nil {
		handler = s.collector.InstrumentHandler(name, handler)
	}
	s.mux.Handle(pattern, handler)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get(requestIDHeader); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, reqLog := logging.WithRequestLogger(ctx, s.log.With(logging.String("path", r.URL.Path)))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		w.Header().Set(requestIDHeader, logging.RequestIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type healthResponse struct {
	Status    string             `json:"status"`
	Snapshots []snapshot.Summary `json:"snapshots"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sums := s.store.Summaries()
	resp := healthResponse{Status: "ok", Snapshots: sums}
	code := http.StatusOK
	if len(sums) == 0 {
		resp.Status = "empty"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto an HTTP status through the gRPC code table.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, errBadQuery) {
		code = http.StatusBadRequest
	} else {
		switch status.Code(viz.ToStatusError(err)) {
		case codes.InvalidArgument:
			code = http.StatusBadRequest
		case codes.NotFound:
			code = http.StatusNotFound
		case codes.FailedPrecondition:
			code = http.StatusConflict
		case codes.DeadlineExceeded:
			code = http.StatusGatewayTimeout
		case codes.Canceled:
			code = http.StatusServiceUnavailable
		}
	}
	if code >= http.StatusInternalServerError {
		s.requestLogger(r).Error(r.Context(), "request failed", logging.Err(err))
	} else {
		s.requestLogger(r).Warn(r.Context(), "request rejected", logging.Int("status", code), logging.Err(err))
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func (s *Server) requestLogger(r *http.Request) logging.Logger {
	if l := logging.LoggerFromContext(r.Context()); l != nil {
		return l
	}
	return s.log
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadQuery, name, raw)
	}
	return v, nil
}

func optionalParam(r *http.Request, name string) *string {
	q := r.URL.Query()
	if !q.Has(name) {
		return nil
	}
	v := q.Get(name)
	return &v
}
