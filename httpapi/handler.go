package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/go-plantnet/analyzer"
	"github.com/arloliu/go-plantnet/logger"
	"github.com/arloliu/go-plantnet/process"
)

const maxCommandBody = 64 << 10

// Monitor is the part of analyzer.Client served by the API.
type Monitor interface {
	State() analyzer.ConnState
	Snapshot() analyzer.Snapshot
	LatestSample() process.Sample
	History() analyzer.HistorySnapshot
	Metrics() analyzer.MetricsSnapshot
	SendCommand(cmd process.Command) error
	Connect(ctx context.Context) error
	Disconnect() error
}

var _ Monitor = (*analyzer.Client)(nil)

type options struct {
	logger    logger.Logger
	gatherer  prometheus.Gatherer
	accessLog io.Writer
	origins   []string
}

// Option configures the handler returned by NewHandler.
type Option func(*options)

// WithLogger sets the logger for request errors and, unless WithAccessLog is given, access logs.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithGatherer sets the source of the /metrics route. Defaults to prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) { o.gatherer = g }
}

// WithAccessLog writes access logs in Apache combined format to w.
func WithAccessLog(w io.Writer) Option {
	return func(o *options) { o.accessLog = w }
}

// WithAllowedOrigins enables CORS for origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) { o.origins = append(o.origins, origins...) }
}

const apiPrefix = "/api/v1"

type api struct {
	monitor Monitor
	logger  logger.Logger
}

// NewRouter returns the bare API routes.
func NewRouter(m Monitor, opts ...Option) *mux.Router {
	o := newOptions(opts)
	a := &api{monitor: m, logger: o.logger}

	r := mux.NewRouter()
	r.HandleFunc("/health", a.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	// root router routes, so a method mismatch answers 405
	v1 := func(path string) string { return apiPrefix + path }
	r.HandleFunc(v1("/state"), a.state).Methods(http.MethodGet)
	r.HandleFunc(v1("/sample"), a.sample).Methods(http.MethodGet)
	r.HandleFunc(v1("/history"), a.history).Methods(http.MethodGet)
	r.HandleFunc(v1("/metrics"), a.metrics).Methods(http.MethodGet)
	r.HandleFunc(v1("/snapshot"), a.snapshot).Methods(http.MethodGet)
	r.HandleFunc(v1("/commands"), a.command).Methods(http.MethodPost)
	r.HandleFunc(v1("/connect"), a.connect).Methods(http.MethodPost)
	r.HandleFunc(v1("/disconnect"), a.disconnect).Methods(http.MethodPost)

	return r
}

// NewHandler returns the API routes wrapped with panic recovery, access logging and, when origins
// are configured, CORS.
func NewHandler(m Monitor, opts ...Option) http.Handler {
	o := newOptions(opts)

	var h http.Handler = NewRouter(m, opts...)
	if len(o.origins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(o.origins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(h)
	}

	accessLog := o.accessLog
	if accessLog == nil {
		accessLog = &logWriter{logger: o.logger}
	}
	h = handlers.CombinedLoggingHandler(accessLog, h)

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(&recoveryLogger{logger: o.logger}),
	)(h)
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:   logger.GetLogger(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

type stateResponse struct {
	State   analyzer.ConnState `json:"state"`
	Address string             `json:"address"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) state(w http.ResponseWriter, _ *http.Request) {
	snap := a.monitor.Snapshot()
	writeJSON(w, http.StatusOK, stateResponse{State: snap.State, Address: snap.Address})
}

func (a *api) sample(w http.ResponseWriter, _ *http.Request) {
	sample := a.monitor.LatestSample()
	if sample == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no complete sample received yet"})
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (a *api) history(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.monitor.History())
}

func (a *api) metrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.monitor.Metrics())
}

func (a *api) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.monitor.Snapshot())
}

func (a *api) command(w http.ResponseWriter, r *http.Request) {
	var cmd process.Command
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody))
	if err := dec.Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := a.monitor.SendCommand(cmd); err != nil {
		a.logger.Warn("failed to send command", "method", "command", "command", cmd.String(), "error", err)
		writeJSON(w, statusOf(err), errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"command": cmd.String()})
}

func (a *api) connect(w http.ResponseWriter, r *http.Request) {
	if err := a.monitor.Connect(r.Context()); err != nil {
		writeJSON(w, statusOf(err), errorResponse{Error: err.Error()})
		return
	}
	a.state(w, r)
}

func (a *api) disconnect(w http.ResponseWriter, r *http.Request) {
	if err := a.monitor.Disconnect(); err != nil {
		a.logger.Warn("disconnect error", "method", "disconnect", "error", err)
	}
	a.state(w, r)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, analyzer.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, analyzer.ErrConnection):
		return http.StatusBadGateway
	case errors.Is(err, process.ErrInvalidCommand), errors.Is(err, process.ErrUnknownTarget):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
