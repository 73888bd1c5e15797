// Package sink forwards complete samples received by the analyzer to external stores.
//
// A Sink failure never stops the analyzer: publish errors are logged by the caller and the sample
// stays in the in-memory history.
package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arloliu/go-plantnet/process"
)

// Record is one complete sample as published to a sink.
type Record struct {
	// ID is a unique record id.
	ID string `json:"id"`
	// Plant is the name of the monitored process.
	Plant string `json:"plant"`
	// Time is the wall-clock receive time.
	Time time.Time `json:"time"`
	// Elapsed is the time since the analyzer connected, in seconds.
	Elapsed float64 `json:"elapsed"`
	// LatencyMs is the receive latency of the frame in milliseconds.
	LatencyMs float64 `json:"latency_ms"`
	// Sample is the decoded sample.
	Sample process.Sample `json:"sample"`
}

// Marshal returns the JSON encoding of r.
func (r Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Sink consumes complete samples.
type Sink interface {
	// Name returns a short name for logs.
	Name() string
	// Publish stores or forwards rec. It must honor ctx cancellation.
	Publish(ctx context.Context, rec Record) error
	// Close releases the resources of the sink.
	Close() error
}
