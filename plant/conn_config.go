package plant

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arloliu/go-plantnet/logger"
)

// Default listen address of the plant.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 5000
)

// Config holds the parameters of a plant Server.
type Config struct {
	mu sync.RWMutex

	// name identifies the simulated process in logs and metrics.
	// Defaults to "reactor".
	name string

	// host is the address to listen on.
	host string

	// port is the TCP port to listen on. Zero picks an ephemeral port.
	port int

	// cyclePeriod is the target duration of one serve cycle and the simulation step.
	// Defaults to 100 milliseconds.
	cyclePeriod time.Duration

	// commandTimeout bounds the per-cycle poll for an incoming command frame.
	// Defaults to 10 milliseconds.
	commandTimeout time.Duration

	// writeTimeout bounds the write of one sample frame.
	// Defaults to 1 second.
	writeTimeout time.Duration

	// acceptTimeout is the deadline of each accept attempt, it bounds how long cancellation can
	// go unnoticed while awaiting a client.
	// Defaults to 1 second.
	acceptTimeout time.Duration

	// maxRetries is the number of consecutive connection errors tolerated before the session is
	// dropped.
	// Defaults to 3.
	maxRetries int

	// retryBackoff is the pause after a tolerated connection error.
	// Defaults to 500 milliseconds.
	retryBackoff time.Duration

	// acceptErrorBackoff is the pause after an unexpected accept failure.
	// Defaults to 1 second.
	acceptErrorBackoff time.Duration

	logger logger.Logger
}

// NewConfig creates a plant configuration for host and port, applying opts on top of the defaults.
func NewConfig(host string, port int, opts ...ConnOption) (*Config, error) {
	cfg := &Config{
		name:               "reactor",
		cyclePeriod:        100 * time.Millisecond,
		commandTimeout:     10 * time.Millisecond,
		writeTimeout:       time.Second,
		acceptTimeout:      time.Second,
		maxRetries:         3,
		retryBackoff:       500 * time.Millisecond,
		acceptErrorBackoff: time.Second,
		logger:             logger.GetLogger(),
	}

	if err := withHost(host).apply(cfg); err != nil {
		return cfg, err
	}

	if err := withPort(port).apply(cfg); err != nil {
		return cfg, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// Address returns the host:port listen address.
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

func (cfg *Config) CyclePeriod() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.cyclePeriod
}

func (cfg *Config) MaxRetries() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.maxRetries
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

func withHost(host string) ConnOption {
	return newConnOptFunc("withHost", func(cfg *Config) error {
		if ip := net.ParseIP(host); ip != nil {
			cfg.host = host
			return nil
		}

		host = strings.TrimSuffix(strings.TrimPrefix(host, "."), ".")
		if host == "" {
			return errors.New("empty host")
		}
		if _, err := net.LookupHost(host); err != nil {
			return fmt.Errorf("invalid host: %w", err)
		}
		cfg.host = host

		return nil
	})
}

func withPort(port int) ConnOption {
	return newConnOptFunc("withPort", func(cfg *Config) error {
		if port < 0 || port > 65535 {
			return errors.New("port is out of range [0, 65535]")
		}
		cfg.port = port

		return nil
	})
}

// WithName sets the process name used in logs and metric labels.
func WithName(name string) ConnOption {
	return newConnOptFunc("WithName", func(cfg *Config) error {
		if name == "" {
			return errors.New("empty name")
		}
		cfg.name = name

		return nil
	})
}

// WithCyclePeriod sets the cycle period, between 10 milliseconds and 10 seconds.
func WithCyclePeriod(d time.Duration) ConnOption {
	return newConnOptFunc("WithCyclePeriod", func(cfg *Config) error {
		if d < 10*time.Millisecond || d > 10*time.Second {
			return errors.New("cycle period out of range [10ms, 10s]")
		}
		cfg.cyclePeriod = d

		return nil
	})
}

// WithCommandTimeout sets the per-cycle command poll timeout, between 1 millisecond and 1 second.
func WithCommandTimeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithCommandTimeout", func(cfg *Config) error {
		if d < time.Millisecond || d > time.Second {
			return errors.New("command timeout out of range [1ms, 1s]")
		}
		cfg.commandTimeout = d

		return nil
	})
}

// WithWriteTimeout sets the frame write timeout, between 10 milliseconds and 30 seconds.
func WithWriteTimeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithWriteTimeout", func(cfg *Config) error {
		if d < 10*time.Millisecond || d > 30*time.Second {
			return errors.New("write timeout out of range [10ms, 30s]")
		}
		cfg.writeTimeout = d

		return nil
	})
}

// WithAcceptTimeout sets the deadline of each accept attempt, between 10 milliseconds and 2 seconds.
func WithAcceptTimeout(d time.Duration) ConnOption {
	return newConnOptFunc("WithAcceptTimeout", func(cfg *Config) error {
		if d < 10*time.Millisecond || d > 2*time.Second {
			return errors.New("accept timeout out of range [10ms, 2s]")
		}
		cfg.acceptTimeout = d

		return nil
	})
}

// WithMaxRetries sets the number of consecutive connection errors tolerated per session.
func WithMaxRetries(n int) ConnOption {
	return newConnOptFunc("WithMaxRetries", func(cfg *Config) error {
		if n < 0 || n > 100 {
			return errors.New("max retries out of range [0, 100]")
		}
		cfg.maxRetries = n

		return nil
	})
}

// WithRetryBackoff sets the pause after a tolerated connection error, at most 30 seconds.
func WithRetryBackoff(d time.Duration) ConnOption {
	return newConnOptFunc("WithRetryBackoff", func(cfg *Config) error {
		if d < 0 || d > 30*time.Second {
			return errors.New("retry backoff out of range [0, 30s]")
		}
		cfg.retryBackoff = d

		return nil
	})
}

// WithLogger sets the logger of the server.
func WithLogger(l logger.Logger) ConnOption {
	return newConnOptFunc("WithLogger", func(cfg *Config) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		cfg.logger = l

		return nil
	})
}
