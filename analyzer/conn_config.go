package analyzer

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/arloliu/go-plantnet/logger"
	"github.com/arloliu/go-plantnet/sink"
)

// Default plant address.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 5000
)

// Default window and history capacity.
const DefaultHistorySize = 100

// Config holds the parameters of a Client.
type Config struct {
	mu sync.RWMutex

	// name is the monitored process name, used in logs, metric labels and sink records.
	// Defaults to "reactor".
	name string

	host string
	port int

	// dialTimeout bounds Connect.
	// Defaults to 1 second.
	dialTimeout time.Duration

	// recvTimeout is the read timeout of one poll.
	// Defaults to 100 milliseconds.
	recvTimeout time.Duration

	// idleInterval is the pause between polls, and the idle period while disconnected.
	// Defaults to 10 milliseconds.
	idleInterval time.Duration

	// writeTimeout bounds the write of one command frame.
	// Defaults to 1 second.
	writeTimeout time.Duration

	// historySize is the capacity of the History.
	// Defaults to 100.
	historySize int

	// windowSize is the capacity of the latency and jitter windows.
	// Defaults to 100.
	windowSize int

	// sinks receive every complete sample.
	sinks []sink.Sink

	// sinkTimeout bounds the publication of one record to one sink.
	// Defaults to 500 milliseconds.
	sinkTimeout time.Duration

	logger logger.Logger
}

// NewConfig creates an analyzer configuration targeting host and port, applying opts on top of the
// defaults.
func NewConfig(host string, port int, opts ...ConnOption) (*Config, error) {
	cfg := &Config{
		name:         "reactor",
		dialTimeout:  time.Second,
		recvTimeout:  100 * time.Millisecond,
		idleInterval: 10 * time.Millisecond,
		writeTimeout: time.Second,
		historySize:  DefaultHistorySize,
		windowSize:   DefaultHistorySize,
		sinkTimeout:  500 * time.Millisecond,
		logger:       logger.GetLogger(),
	}

	if err := withAddress(host, port).apply(cfg); err != nil {
		return cfg, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// Address returns the host:port of the plant.
func (cfg *Config) Address() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port))
}

func (cfg *Config) Name() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.name
}

func (cfg *Config) HistorySize() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.historySize
}

// ConnOption represents a functional option for configuring a Config.
type ConnOption interface {
	apply(*Config) error
}

type connOptFunc struct {
	name      string
	applyFunc func(*Config) error
}

func (c *connOptFunc) apply(cfg *Config) error {
	if cfg == nil {
		return ErrConnConfigNil
	}

	cfg.mu.Lock()
	defer cfg.mu.Unlock()

	if err := c.applyFunc(cfg); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}

	return nil
}

func newConnOptFunc(name string, f func(*Config) error) *connOptFunc {
	return &connOptFunc{name: name, applyFunc: f}
}

func withAddress(host string, port int) ConnOption {
	return newConnOptFunc("withAddress", func(cfg *Config) error {
		if host == "" {
			return errors.New("empty host")
		}
		if port < 1 || port > 65535 {
			return errors.New("port is out of range [1, 65535]")
		}
		cfg.host = host
		cfg.port = port

		return nil
	})
}

// WithName sets the monitored process name.
func WithName(name string) ConnOption {
	return newConnOptFunc("WithName", func(cfg *Config) error {
		if name == "" {
			return errors.New("empty name")
		}
		cfg.name = name

		return nil
	})
}

// WithDialTimeout sets the connect timeout, between 10 milliseconds and 30 seconds.
func WithDialTimeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithDialTimeout", func(cfg *Config) error {
		if d < 10*time.Millisecond || d > 30*time.Second {
			return errors.New("dial timeout out of range [10ms, 30s]")
		}
		cfg.dialTimeout = d

		return nil
	})
}

// WithRecvTimeout sets the read timeout of one poll, between 1 millisecond and 1 second.
func WithRecvTimeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithRecvTimeout", func(cfg *Config) error {
		if d < time.Millisecond || d > time.Second {
			return errors.New("receive timeout out of range [1ms, 1s]")
		}
		cfg.recvTimeout = d

		return nil
	})
}

// WithIdleInterval sets the pause between polls, between 1 millisecond and 1 second.
func WithIdleInterval(d time.Duration) ConnOption {
	return newConnOptFunc("WithIdleInterval", func(cfg *Config) error {
		if d < time.Millisecond || d > time.Second {
			return errors.New("idle interval out of range [1ms, 1s]")
		}
		cfg.idleInterval = d

		return nil
	})
}

// WithWriteTimeout sets the command write timeout, between 10 milliseconds and 30 seconds.
func WithWriteTimeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithWriteTimeout", func(cfg *Config) error {
		if d < 10*time.Millisecond || d > 30*time.Second {
			return errors.New("write timeout out of range [10ms, 30s]")
		}
		cfg.writeTimeout = d

		return nil
	})
}

// WithHistorySize sets the History capacity, between 1 and 100000.
func WithHistorySize(n int) ConnOption {
	return newConnOptFunc("WithHistorySize", func(cfg *Config) error {
		if n < 1 || n > 100000 {
			return errors.New("history size out of range [1, 100000]")
		}
		cfg.historySize = n

		return nil
	})
}

// WithWindowSize sets the latency and jitter window capacity, between 2 and 100000.
func WithWindowSize(n int) ConnOption {
	return newConnOptFunc("WithWindowSize", func(cfg *Config) error {
		if n < 2 || n > 100000 {
			return errors.New("window size out of range [2, 100000]")
		}
		cfg.windowSize = n

		return nil
	})
}

// WithSinks adds sinks receiving every complete sample.
func WithSinks(sinks ...sink.Sink) ConnOption {
	return newConnOptFunc("WithSinks", func(cfg *Config) error {
		for _, s := range sinks {
			if s == nil {
				return errors.New("sink is nil")
			}
		}
		cfg.sinks = append(cfg.sinks, sinks...)

		return nil
	})
}

// WithSinkTimeout sets the timeout of one sink publication, between 1 millisecond and 30 seconds.
func WithSinkTimeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithSinkTimeout", func(cfg *Config) error {
		if d < time.Millisecond || d > 30*time.Second {
			return errors.New("sink timeout out of range [1ms, 30s]")
		}
		cfg.sinkTimeout = d

		return nil
	})
}

// WithLogger sets the logger of the client.
func WithLogger(l logger.Logger) ConnOption {
	return newConnOptFunc("WithLogger", func(cfg *Config) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		cfg.logger = l

		return nil
	})
}
