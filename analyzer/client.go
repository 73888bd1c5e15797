package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-plantnet/frame"
	"github.com/arloliu/go-plantnet/internal/pool"
	"github.com/arloliu/go-plantnet/logger"
	"github.com/arloliu/go-plantnet/process"
	"github.com/arloliu/go-plantnet/sink"
)

// Client monitors one plant server.
type Client struct {
	cfg    *Config
	logger logger.Logger

	connMutex   sync.Mutex
	conn        net.Conn
	reader      *frame.Reader
	connectedAt time.Time
	state       atomic.Uint32

	writeMutex sync.Mutex

	// mu guards the fields written by the monitor loop.
	mu      sync.RWMutex
	window  *MetricsWindow
	history *History
	latest  process.Sample
	last    process.Sample

	subscribers *xsync.MapOf[uint64, chan struct{}]
	subID       atomic.Uint64
}

// NewClient creates a disconnected client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, ErrConnConfigNil
	}

	cfg.mu.RLock()
	l := cfg.logger
	windowSize := cfg.windowSize
	historySize := cfg.historySize
	cfg.mu.RUnlock()

	return &Client{
		cfg:         cfg,
		logger:      l.With("process", cfg.Name()),
		window:      NewMetricsWindow(windowSize),
		history:     NewHistory(historySize),
		subscribers: xsync.NewMapOf[uint64, chan struct{}](),
	}, nil
}

// Connect dials the plant and resets the elapsed-time origin of the History. It is a no-op when
// already connected.
func (c *Client) Connect(ctx context.Context) error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.conn != nil {
		return nil
	}

	dialer := net.Dialer{Timeout: c.cfg.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Address())
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrConnection, c.cfg.Address(), err)
	}

	c.conn = conn
	c.reader = frame.NewReader(conn)
	c.connectedAt = time.Now()
	c.state.Store(uint32(ConnectedState))
	c.logger.Info("connected to plant", "address", conn.RemoteAddr().String())

	return nil
}

// Disconnect closes the connection. It is a no-op when already disconnected.
func (c *Client) Disconnect() error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.conn == nil {
		return nil
	}

	return c.closeConnLocked()
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

// Run is the monitor loop. It polls for frames while connected and idles while disconnected, until
// ctx is done. It closes the connection on return.
func (c *Client) Run(ctx context.Context) error {
	defer func() { _ = c.Disconnect() }()

	for ctx.Err() == nil {
		conn, reader, origin := c.current()
		if conn == nil {
			if pool.Sleep(ctx, c.cfg.idleInterval) != nil {
				break
			}

			continue
		}

		if err := c.pollOnce(ctx, conn, reader, origin); err != nil {
			c.logger.Warn("communication error, disconnected", "method", "Run", "error", err)
		}

		if pool.Sleep(ctx, c.cfg.idleInterval) != nil {
			break
		}
	}

	return nil
}

func (c *Client) current() (net.Conn, *frame.Reader, time.Time) {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	return c.conn, c.reader, c.connectedAt
}

// pollOnce handles at most one frame. Only connection errors are returned; the connection is closed
// before returning them.
func (c *Client) pollOnce(ctx context.Context, conn net.Conn, reader *frame.Reader, origin time.Time) error {
	start := time.Now()
	raw, err := reader.ReadFrame(c.cfg.recvTimeout)
	latency := time.Since(start)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}

		var syncErr *frame.SyncError
		if errors.As(err, &syncErr) {
			c.mu.Lock()
			c.window.AddBytes(syncErr.Discarded)
			c.window.RecordError()
			c.mu.Unlock()
			c.logger.Warn("dropped bytes to resynchronize on frame header", "method", "pollOnce", "error", err)

			return nil
		}

		// a read interrupted by Disconnect is not a communication error
		if !c.dropConn(conn) {
			return nil
		}

		return fmt.Errorf("%w: read: %w", ErrConnection, err)
	}

	sample, err := frame.DecodeSample(raw)
	if err != nil {
		c.mu.Lock()
		c.window.AddBytes(len(raw))
		c.window.RecordError()
		c.mu.Unlock()
		c.logger.Warn("failed to decode frame", "method", "pollOnce", "error", err)

		return nil
	}

	values, err := sample.Values()
	if err != nil {
		c.mu.Lock()
		c.window.AddBytes(len(raw))
		c.window.RecordIncomplete()
		c.last = sample
		c.mu.Unlock()
		c.logger.Debug("incomplete sample discarded", "method", "pollOnce", "error", err)

		return nil
	}

	elapsed := start.Sub(origin)

	c.mu.Lock()
	c.window.AddBytes(len(raw))
	c.window.RecordFrame(latency)
	c.history.Append(elapsed, values)
	c.latest = sample
	c.last = sample
	c.mu.Unlock()

	c.notify()
	c.publish(ctx, sink.Record{
		ID:        uuid.NewString(),
		Plant:     c.cfg.Name(),
		Time:      start,
		Elapsed:   elapsed.Seconds(),
		LatencyMs: millis(latency),
		Sample:    sample,
	})

	return nil
}

// dropConn closes conn if it is still the current connection, and reports whether it was.
func (c *Client) dropConn(conn net.Conn) bool {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.conn != conn {
		return false
	}
	_ = c.closeConnLocked()

	return true
}

func (c *Client) closeConnLocked() error {
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	c.state.Store(uint32(DisconnectedState))
	c.logger.Info("disconnected from plant")

	return err
}

func (c *Client) publish(ctx context.Context, rec sink.Record) {
	c.cfg.mu.RLock()
	sinks := c.cfg.sinks
	timeout := c.cfg.sinkTimeout
	c.cfg.mu.RUnlock()

	for _, s := range sinks {
		pubCtx, cancel := context.WithTimeout(ctx, timeout)
		err := s.Publish(pubCtx, rec)
		cancel()
		if err != nil {
			c.logger.Warn("failed to publish sample", "method", "publish", "sink", s.Name(), "error", err)
		}
	}
}

// Close disconnects the client and closes its sinks.
func (c *Client) Close() error {
	errs := []error{c.Disconnect()}

	c.cfg.mu.RLock()
	sinks := c.cfg.sinks
	c.cfg.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sink %s: %w", s.Name(), err))
		}
	}

	c.subscribers.Clear()

	return errors.Join(errs...)
}
