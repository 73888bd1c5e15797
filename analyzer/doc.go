// Package analyzer implements the monitoring client of a plant.
//
// A Client connects to a plant server, decodes the sample frames it receives and derives
// communication-quality metrics from them. Its Run loop is the only writer of the client's
// MetricsWindow and History; other goroutines read them through Snapshot, which returns deep copies,
// and learn about new data through the coalescing refresh channels returned by Subscribe.
//
// Per received frame:
//   - a frame that cannot be decoded increments the error counter and is discarded;
//   - a sample with a missing or absent variable increments the incomplete counter and is discarded;
//   - a complete sample records latency and jitter, increments the frame counter, is appended to the
//     History as one entry, raises the refresh signal and is published to the configured sinks.
//
// Latency is the wall-clock duration of the blocking frame read, not a round-trip time.
//
// Any socket error other than a read timeout disconnects the client. It stays disconnected until
// Connect is called again.
package analyzer
