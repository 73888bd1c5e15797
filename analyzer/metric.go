package analyzer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterMetrics exposes the metrics window and connection state on reg under the
// "plantnet_analyzer" prefix, labeled with the process name.
func (c *Client) RegisterMetrics(reg prometheus.Registerer) error {
	labels := prometheus.Labels{"process": c.cfg.Name()}

	read := func(f func(w *MetricsWindow) float64) func() float64 {
		return func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return f(c.window)
		}
	}
	counter := func(name, help string, f func() float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "plantnet",
			Subsystem:   "analyzer",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, f)
	}
	gauge := func(name, help string, f func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "plantnet",
			Subsystem:   "analyzer",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, f)
	}

	collectors := []prometheus.Collector{
		counter("frames_total", "Number of complete samples received.",
			read(func(w *MetricsWindow) float64 { return float64(w.frames) })),
		counter("frame_errors_total", "Number of frames that could not be decoded.",
			read(func(w *MetricsWindow) float64 { return float64(w.errors) })),
		counter("incomplete_samples_total", "Number of incomplete samples discarded.",
			read(func(w *MetricsWindow) float64 { return float64(w.incomplete) })),
		counter("bytes_received_total", "Number of frame bytes received.",
			read(func(w *MetricsWindow) float64 { return float64(w.bytes) })),
		gauge("latency_mean_seconds", "Mean receive latency over the window.",
			read(func(w *MetricsWindow) float64 { return w.Snapshot().MeanLatency.Seconds() })),
		gauge("jitter_mean_seconds", "Mean jitter over the window.",
			read(func(w *MetricsWindow) float64 { return w.Snapshot().MeanJitter.Seconds() })),
		gauge("last_cycle_seconds", "Receive latency of the last complete sample.",
			read(func(w *MetricsWindow) float64 { return w.lastCycle.Seconds() })),
		gauge("connected", "1 when connected to the plant.", func() float64 {
			if c.State().IsConnected() {
				return 1
			}
			return 0
		}),
	}

	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return err
		}
	}

	return nil
}
