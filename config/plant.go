package config

import (
	"time"

	"github.com/arloliu/go-plantnet/logger"
	"github.com/arloliu/go-plantnet/plant"
	"github.com/arloliu/go-plantnet/process"
)

// Plant configures the plant binary.
type Plant struct {
	Name           string   `toml:"name"`
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	CyclePeriod    Duration `toml:"cycle_period"`
	CommandTimeout Duration `toml:"command_timeout"`
	WriteTimeout   Duration `toml:"write_timeout"`
	AcceptTimeout  Duration `toml:"accept_timeout"`
	MaxRetries     int      `toml:"max_retries"`
	RetryBackoff   Duration `toml:"retry_backoff"`

	// MetricsAddr is the optional listen address of the Prometheus endpoint.
	MetricsAddr string `toml:"metrics_addr"`

	Process Process `toml:"process"`
	Log     Log     `toml:"log"`
}

// Process holds the initial conditions of the simulated process.
type Process struct {
	// Ambient is the ambient temperature in °C.
	Ambient float64 `toml:"ambient"`
	// Initial maps variable names or tag ids to initial values.
	Initial map[string]float64 `toml:"initial"`
	// Actuators maps actuator names to their initial state.
	Actuators map[string]bool `toml:"actuators"`
}

// DefaultPlant returns the default plant configuration.
func DefaultPlant() Plant {
	return Plant{
		Name:           "reactor",
		Host:           plant.DefaultHost,
		Port:           plant.DefaultPort,
		CyclePeriod:    Duration{100 * time.Millisecond},
		CommandTimeout: Duration{10 * time.Millisecond},
		WriteTimeout:   Duration{time.Second},
		AcceptTimeout:  Duration{time.Second},
		MaxRetries:     3,
		RetryBackoff:   Duration{500 * time.Millisecond},
		Process:        Process{Ambient: process.AmbientTemp},
		Log:            Log{Level: "info"},
	}
}

// LoadPlant reads the plant configuration at path on top of the defaults. An empty path returns the
// defaults.
func LoadPlant(path string) (Plant, error) {
	cfg := DefaultPlant()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Plant{}, err
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks the values that the plant options do not check themselves.
func (p Plant) Validate() error {
	if p.Host == "" {
		return invalid("host is empty")
	}
	if p.Port < 0 || p.Port > 65535 {
		return invalid("port %d out of range", p.Port)
	}
	if _, err := p.Log.LogLevel(); err != nil {
		return invalid("log level: %v", err)
	}
	if _, err := p.EngineOptions(); err != nil {
		return err
	}

	return nil
}

// ConnOptions converts p to plant server options.
func (p Plant) ConnOptions(l logger.Logger) []plant.ConnOption {
	return []plant.ConnOption{
		plant.WithName(p.Name),
		plant.WithCyclePeriod(p.CyclePeriod.Duration),
		plant.WithCommandTimeout(p.CommandTimeout.Duration),
		plant.WithWriteTimeout(p.WriteTimeout.Duration),
		plant.WithAcceptTimeout(p.AcceptTimeout.Duration),
		plant.WithMaxRetries(p.MaxRetries),
		plant.WithRetryBackoff(p.RetryBackoff.Duration),
		plant.WithLogger(l),
	}
}

// EngineOptions converts the process section to engine options.
func (p Plant) EngineOptions() ([]process.EngineOption, error) {
	opts := []process.EngineOption{process.WithAmbient(p.Process.Ambient)}

	for name, value := range p.Process.Initial {
		v, err := process.ParseVariable(name)
		if err != nil {
			return nil, invalid("process.initial: %v", err)
		}
		opts = append(opts, process.WithInitialValue(v, value))
	}

	for name, on := range p.Process.Actuators {
		a, err := process.ParseActuator(name)
		if err != nil {
			return nil, invalid("process.actuators: %v", err)
		}
		opts = append(opts, process.WithActuator(a, on))
	}

	return opts, nil
}
