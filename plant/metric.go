package plant

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains atomic metrics for a plant server.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// FrameSendCount indicates the number of sample frames sent.
	FrameSendCount atomic.Uint64
	// ByteSendCount indicates the number of bytes sent.
	ByteSendCount atomic.Uint64
	// CommandAppliedCount indicates the number of commands applied to the engine.
	CommandAppliedCount atomic.Uint64
	// CommandRejectedCount indicates the number of commands that could not be decoded or applied.
	CommandRejectedCount atomic.Uint64
	// ConnErrCount indicates the number of connection errors.
	ConnErrCount atomic.Uint64
	// SessionCount indicates the number of accepted client sessions.
	SessionCount atomic.Uint64

	// ConnRetryGauge indicates the current number of consecutive connection errors.
	ConnRetryGauge atomic.Uint32
}

func (m *Metrics) incFrameSendCount()       { m.FrameSendCount.Add(1) }
func (m *Metrics) addByteSendCount(n int)   { m.ByteSendCount.Add(uint64(n)) } //nolint:gosec
func (m *Metrics) incCommandAppliedCount()  { m.CommandAppliedCount.Add(1) }
func (m *Metrics) incCommandRejectedCount() { m.CommandRejectedCount.Add(1) }
func (m *Metrics) incConnErrCount()         { m.ConnErrCount.Add(1) }
func (m *Metrics) incSessionCount()         { m.SessionCount.Add(1) }
func (m *Metrics) incConnRetryGauge()       { m.ConnRetryGauge.Add(1) }
func (m *Metrics) resetConnRetryGauge()     { m.ConnRetryGauge.Store(0) }

// RegisterMetrics exposes the server metrics and state on reg under the "plantnet_plant" prefix,
// labeled with the process name.
func (s *Server) RegisterMetrics(reg prometheus.Registerer) error {
	labels := prometheus.Labels{"process": s.cfg.Name()}
	m := &s.metrics

	counter := func(name, help string, v *atomic.Uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "plantnet",
			Subsystem:   "plant",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(v.Load()) })
	}
	gauge := func(name, help string, f func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "plantnet",
			Subsystem:   "plant",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, f)
	}

	collectors := []prometheus.Collector{
		counter("frames_sent_total", "Number of sample frames sent.", &m.FrameSendCount),
		counter("bytes_sent_total", "Number of bytes sent.", &m.ByteSendCount),
		counter("commands_applied_total", "Number of commands applied.", &m.CommandAppliedCount),
		counter("commands_rejected_total", "Number of commands rejected.", &m.CommandRejectedCount),
		counter("connection_errors_total", "Number of connection errors.", &m.ConnErrCount),
		counter("sessions_total", "Number of accepted client sessions.", &m.SessionCount),
		gauge("connection_retries", "Current number of consecutive connection errors.",
			func() float64 { return float64(m.ConnRetryGauge.Load()) }),
		gauge("state", "Current server state.",
			func() float64 { return float64(s.State()) }),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}
