// Package config loads the TOML configuration files of the plant and analyzer binaries.
//
// Every key is optional: a missing file section keeps its default. Unknown keys are rejected so a
// misspelled key never silently falls back to a default.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/arloliu/go-plantnet/logger"
)

// Duration is a time.Duration written as a Go duration string, e.g. "100ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Log holds logging settings.
type Log struct {
	Level     string `toml:"level"`
	AddSource bool   `toml:"add_source"`
}

// LogLevel parses Level.
func (l Log) LogLevel() (logger.Level, error) {
	return logger.ParseLevel(l.Level)
}

func decodeFile(path string, v any) error {
	meta, err := toml.DecodeFile(path, v)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	return nil
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
