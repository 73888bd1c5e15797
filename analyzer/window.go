package analyzer

import (
	"encoding/json"
	"time"

	"github.com/arloliu/go-plantnet/internal/ring"
	"github.com/arloliu/go-plantnet/internal/util"
)

// MetricsWindow holds the communication-quality metrics of a Client: bounded windows of latency and
// jitter samples and monotonically increasing counters.
//
// MetricsWindow is not goroutine-safe. The Client's monitor loop is its only writer.
type MetricsWindow struct {
	latencies  *ring.Ring[time.Duration]
	jitters    *ring.Ring[time.Duration]
	frames     uint64
	errors     uint64
	incomplete uint64
	bytes      uint64
	lastCycle  time.Duration
}

// NewMetricsWindow creates a window keeping the last size latency and jitter samples.
func NewMetricsWindow(size int) *MetricsWindow {
	return &MetricsWindow{
		latencies: ring.New[time.Duration](size),
		jitters:   ring.New[time.Duration](size),
	}
}

// RecordFrame records the latency of a complete sample. The jitter against the previous latency is
// recorded and returned once a previous latency exists.
func (w *MetricsWindow) RecordFrame(latency time.Duration) (time.Duration, bool) {
	prev, hasPrev := w.latencies.Last()
	w.latencies.Push(latency)
	w.frames++
	w.lastCycle = latency

	if !hasPrev {
		return 0, false
	}

	jitter := latency - prev
	if jitter < 0 {
		jitter = -jitter
	}
	w.jitters.Push(jitter)

	return jitter, true
}

// RecordError counts a frame that could not be decoded.
func (w *MetricsWindow) RecordError() { w.errors++ }

// RecordIncomplete counts a decoded sample with a missing or absent variable.
func (w *MetricsWindow) RecordIncomplete() { w.incomplete++ }

// AddBytes counts n received bytes.
func (w *MetricsWindow) AddBytes(n int) {
	if n > 0 {
		w.bytes += uint64(n)
	}
}

// Snapshot returns a copy of the window.
func (w *MetricsWindow) Snapshot() MetricsSnapshot {
	latencies := w.latencies.Items()
	jitters := w.jitters.Items()

	s := MetricsSnapshot{
		Frames:      w.frames,
		Errors:      w.errors,
		Incomplete:  w.incomplete,
		Bytes:       w.bytes,
		MeanLatency: util.Mean(latencies),
		MeanJitter:  util.Mean(jitters),
		LastCycle:   w.lastCycle,
		Latencies:   latencies,
		Jitters:     jitters,
	}
	if w.frames > 0 {
		s.ErrorRate = float64(w.errors) / float64(w.frames) * 100
	}

	return s
}

// MetricsSnapshot is a point-in-time copy of a MetricsWindow.
type MetricsSnapshot struct {
	// Frames is the number of complete samples received.
	Frames uint64
	// Errors is the number of frames that could not be decoded.
	Errors uint64
	// Incomplete is the number of decoded samples discarded as incomplete.
	Incomplete uint64
	// Bytes is the number of frame bytes received.
	Bytes uint64
	// ErrorRate is Errors relative to Frames, in percent.
	ErrorRate float64
	// MeanLatency is the mean of the latency window.
	MeanLatency time.Duration
	// MeanJitter is the mean of the jitter window.
	MeanJitter time.Duration
	// LastCycle is the latency of the last complete sample.
	LastCycle time.Duration
	// Latencies is the latency window, oldest first.
	Latencies []time.Duration
	// Jitters is the jitter window, oldest first.
	Jitters []time.Duration
}

type metricsSnapshotJSON struct {
	Frames        uint64    `json:"frames"`
	Errors        uint64    `json:"errors"`
	Incomplete    uint64    `json:"incomplete"`
	Bytes         uint64    `json:"bytes"`
	ErrorRate     float64   `json:"error_rate"`
	MeanLatencyMs float64   `json:"mean_latency_ms"`
	MeanJitterMs  float64   `json:"mean_jitter_ms"`
	LastCycleMs   float64   `json:"last_cycle_ms"`
	LatenciesMs   []float64 `json:"latencies_ms"`
	JittersMs     []float64 `json:"jitters_ms"`
}

// MarshalJSON encodes durations as milliseconds.
func (s MetricsSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricsSnapshotJSON{
		Frames:        s.Frames,
		Errors:        s.Errors,
		Incomplete:    s.Incomplete,
		Bytes:         s.Bytes,
		ErrorRate:     s.ErrorRate,
		MeanLatencyMs: millis(s.MeanLatency),
		MeanJitterMs:  millis(s.MeanJitter),
		LastCycleMs:   millis(s.LastCycle),
		LatenciesMs:   millisSlice(s.Latencies),
		JittersMs:     millisSlice(s.Jitters),
	})
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func millisSlice(ds []time.Duration) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = millis(d)
	}

	return out
}
