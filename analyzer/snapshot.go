package analyzer

import (
	"github.com/arloliu/go-plantnet/process"
)

// Snapshot is a read-only copy of the client's state for presentation layers.
type Snapshot struct {
	// State is the connection state.
	State ConnState `json:"state"`
	// Address is the plant address.
	Address string `json:"address"`
	// Latest is the latest complete sample, nil before the first one.
	Latest process.Sample `json:"latest"`
	// Last is the last decoded sample, complete or not.
	Last process.Sample `json:"last"`
	// History is the columnar history copy.
	History HistorySnapshot `json:"history"`
	// Metrics is the metrics window copy.
	Metrics MetricsSnapshot `json:"metrics"`
}

// Snapshot returns a deep copy of the client's state.
func (c *Client) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		State:   c.State(),
		Address: c.cfg.Address(),
		Latest:  c.latest.Clone(),
		Last:    c.last.Clone(),
		History: c.history.Snapshot(),
		Metrics: c.window.Snapshot(),
	}
}

// LatestSample returns a copy of the latest complete sample, or nil.
func (c *Client) LatestSample() process.Sample {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.latest.Clone()
}

// History returns the columnar history copy.
func (c *Client) History() HistorySnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.history.Snapshot()
}

// Metrics returns the metrics window copy.
func (c *Client) Metrics() MetricsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.window.Snapshot()
}

// Subscribe returns a refresh channel that receives a signal after each complete sample, and a
// function that cancels the subscription.
//
// The channel has a capacity of one and signals are sent without blocking, so a burst of samples may
// coalesce into one signal. Consumers re-read the latest state with Snapshot. The channel is never
// closed; consumers stop on their own context.
func (c *Client) Subscribe() (<-chan struct{}, func()) {
	id := c.subID.Add(1)
	ch := make(chan struct{}, 1)
	c.subscribers.Store(id, ch)

	return ch, func() { c.subscribers.Delete(id) }
}

func (c *Client) notify() {
	c.subscribers.Range(func(_ uint64, ch chan struct{}) bool {
		select {
		case ch <- struct{}{}:
		default:
		}
		return true
	})
}
