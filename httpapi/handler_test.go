package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-plantnet/analyzer"
	"github.com/arloliu/go-plantnet/process"
)

type fakeMonitor struct {
	mu         sync.Mutex
	state      analyzer.ConnState
	latest     process.Sample
	history    analyzer.HistorySnapshot
	metrics    analyzer.MetricsSnapshot
	sendErr    error
	connectErr error
	sent       []process.Command
	panicOn    bool
}

var _ Monitor = (*fakeMonitor)(nil)

func (m *fakeMonitor) State() analyzer.ConnState { return m.state }

func (m *fakeMonitor) Snapshot() analyzer.Snapshot {
	if m.panicOn {
		panic("snapshot failure")
	}
	return analyzer.Snapshot{
		State:   m.state,
		Address: "127.0.0.1:5000",
		Latest:  m.latest,
		History: m.history,
		Metrics: m.metrics,
	}
}

func (m *fakeMonitor) LatestSample() process.Sample      { return m.latest }
func (m *fakeMonitor) History() analyzer.HistorySnapshot { return m.history }
func (m *fakeMonitor) Metrics() analyzer.MetricsSnapshot { return m.metrics }

func (m *fakeMonitor) SendCommand(cmd process.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, cmd)
	return nil
}

func (m *fakeMonitor) Connect(context.Context) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.state = analyzer.ConnectedState
	return nil
}

func (m *fakeMonitor) Disconnect() error {
	m.state = analyzer.DisconnectedState
	return nil
}

func newTestHandler(m Monitor, opts ...Option) http.Handler {
	return NewHandler(m, append([]Option{WithAccessLog(io.Discard)}, opts...)...)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}

	return rec, out
}

func TestHandler_ReadRoutes(t *testing.T) {
	require := require.New(t)

	h := analyzer.NewHistory(10)
	h.Append(time.Second, process.Values{1, 2, 3, 4, 5, 6})
	w := analyzer.NewMetricsWindow(10)
	w.RecordFrame(10 * time.Millisecond)

	m := &fakeMonitor{
		state:   analyzer.ConnectedState,
		latest:  process.Sample{process.TempReactor: {Value: process.Float(30), Unit: "°C", Status: process.StatusOK}},
		history: h.Snapshot(),
		metrics: w.Snapshot(),
	}
	handler := newTestHandler(m)

	rec, body := do(t, handler, http.MethodGet, "/health", "")
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("ok", body["status"])

	rec, body = do(t, handler, http.MethodGet, "/api/v1/state", "")
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("connected", body["state"])
	require.Equal("127.0.0.1:5000", body["address"])

	rec, body = do(t, handler, http.MethodGet, "/api/v1/sample", "")
	require.Equal(http.StatusOK, rec.Code)
	require.Equal(map[string]any{"valor": 30.0, "unidad": "°C", "estado": "OK"}, body["temp_reactor"])

	rec, body = do(t, handler, http.MethodGet, "/api/v1/history", "")
	require.Equal(http.StatusOK, rec.Code)
	require.Equal([]any{1.0}, body["time"])
	require.Equal([]any{3.0}, body["series"].(map[string]any)["nivel_tanque"])

	rec, body = do(t, handler, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(http.StatusOK, rec.Code)
	require.Equal(1.0, body["frames"])
	require.Equal(10.0, body["mean_latency_ms"])

	rec, body = do(t, handler, http.MethodGet, "/api/v1/snapshot", "")
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("connected", body["state"])
	require.Contains(body, "history")
	require.Contains(body, "metrics")
	require.Contains(body, "latest")
}

func TestHandler_SampleNotFoundBeforeFirstSample(t *testing.T) {
	rec, body := do(t, newTestHandler(&fakeMonitor{}), http.MethodGet, "/api/v1/sample", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotEmpty(t, body["error"])
}

func TestHandler_Commands(t *testing.T) {
	tests := []struct {
		description string
		body        string
		sendErr     error
		wantStatus  int
		wantCommand *process.Command
	}{
		{
			description: "actuator",
			body:        `{"actuador":"calentador","valor":true}`,
			wantStatus:  http.StatusAccepted,
			wantCommand: &process.Command{Kind: process.CommandActuator, Actuator: process.Heater, On: true},
		},
		{
			description: "fault by tag id",
			body:        `{"simular_fallo":true,"sensor":"TR1"}`,
			wantStatus:  http.StatusAccepted,
			wantCommand: &process.Command{Kind: process.CommandInjectFault, Variable: process.TempReactor},
		},
		{description: "invalid json", body: `{"actuador":`, wantStatus: http.StatusBadRequest},
		{description: "two command keys", body: `{"reparar":true,"simular_fallo":true,"sensor":"TR1"}`, wantStatus: http.StatusBadRequest},
		{description: "unknown actuator", body: `{"actuador":"bomba","valor":true}`, wantStatus: http.StatusBadRequest},
		{
			description: "not connected",
			body:        `{"reparar":true,"sensor":"temp_reactor"}`,
			sendErr:     analyzer.ErrNotConnected,
			wantStatus:  http.StatusConflict,
		},
		{
			description: "connection lost",
			body:        `{"reparar":true,"sensor":"temp_reactor"}`,
			sendErr:     fmt.Errorf("%w: write: broken pipe", analyzer.ErrConnection),
			wantStatus:  http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			m := &fakeMonitor{state: analyzer.ConnectedState, sendErr: tt.sendErr}
			rec, _ := do(t, newTestHandler(m), http.MethodPost, "/api/v1/commands", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantCommand != nil {
				require.Equal(t, []process.Command{*tt.wantCommand}, m.sent)
			} else {
				require.Empty(t, m.sent)
			}
		})
	}
}

func TestHandler_ConnectAndDisconnect(t *testing.T) {
	require := require.New(t)

	m := &fakeMonitor{}
	handler := newTestHandler(m)

	rec, body := do(t, handler, http.MethodPost, "/api/v1/connect", "")
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("connected", body["state"])

	rec, body = do(t, handler, http.MethodPost, "/api/v1/disconnect", "")
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("disconnected", body["state"])

	m.connectErr = fmt.Errorf("%w: dial: refused", analyzer.ErrConnection)
	rec, body = do(t, handler, http.MethodPost, "/api/v1/connect", "")
	require.Equal(http.StatusBadGateway, rec.Code)
	require.Contains(body["error"], "refused")
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	rec, _ := do(t, newTestHandler(&fakeMonitor{}), http.MethodPost, "/api/v1/state", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, _ = do(t, newTestHandler(&fakeMonitor{}), http.MethodGet, "/api/v1/commands", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec, _ = do(t, newTestHandler(&fakeMonitor{}), http.MethodGet, "/api/v1/unknown", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_PrometheusMetrics(t *testing.T) {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "plantnet_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	rec, _ := do(t, newTestHandler(&fakeMonitor{}, WithGatherer(reg)), http.MethodGet, "/metrics", "")
	require.Equal(http.StatusOK, rec.Code)
	require.Contains(rec.Body.String(), "plantnet_test_total 3")
}

func TestHandler_RecoversFromPanics(t *testing.T) {
	rec, _ := do(t, newTestHandler(&fakeMonitor{panicOn: true}), http.MethodGet, "/api/v1/snapshot", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_CORSAndAccessLog(t *testing.T) {
	require := require.New(t)

	var accessLog bytes.Buffer
	handler := NewHandler(&fakeMonitor{}, WithAccessLog(&accessLog), WithAllowedOrigins("http://dashboard.local"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
	require.Equal("http://dashboard.local", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(accessLog.String(), "GET /api/v1/state")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	require := require.New(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, newTestHandler(&fakeMonitor{}), time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(err)
	_ = resp.Body.Close()
	require.Equal(http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(err)
	case <-time.After(2 * time.Second):
		require.Fail("server did not shut down")
	}
}

func TestStatusOf(t *testing.T) {
	require := require.New(t)

	require.Equal(http.StatusConflict, statusOf(analyzer.ErrNotConnected))
	require.Equal(http.StatusBadGateway, statusOf(analyzer.ErrConnection))
	require.Equal(http.StatusBadRequest, statusOf(process.ErrUnknownTarget))
	require.Equal(http.StatusInternalServerError, statusOf(errors.New("boom")))
}
