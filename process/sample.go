package process

import (
	"fmt"

	"github.com/arloliu/go-plantnet/internal/util"
)

// Status is the health flag attached to a reading.
type Status uint8

const (
	StatusOK Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusError {
		return "ERROR"
	}
	return "OK"
}

func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusOK, StatusError:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "OK":
		*s = StatusOK
	case "ERROR":
		*s = StatusError
	default:
		return fmt.Errorf("invalid status %q", string(text))
	}

	return nil
}

// Reading is one variable's value in a Sample. A nil Value means the sensor produced no reading.
type Reading struct {
	Value  *float64 `json:"valor"`
	Unit   string   `json:"unidad"`
	Status Status   `json:"estado"`
}

// Sample is one cycle's full reading set.
type Sample map[Variable]Reading

// Float returns a pointer to v, for building readings.
func Float(v float64) *float64 { return &v }

// Value returns the value of variable v and whether it is present.
func (s Sample) Value(v Variable) (float64, bool) {
	r, ok := s[v]
	if !ok || r.Value == nil {
		return 0, false
	}

	return *r.Value, true
}

// Validate returns ErrIncompleteSample naming the first variable that is missing or absent.
func (s Sample) Validate() error {
	for _, v := range Variables() {
		r, ok := s[v]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrIncompleteSample, v)
		}
		if r.Value == nil {
			return fmt.Errorf("%w: no value for %s", ErrIncompleteSample, v)
		}
	}

	return nil
}

// Complete reports whether every variable is present with a value.
func (s Sample) Complete() bool {
	return s.Validate() == nil
}

// Values returns the six values of a complete sample.
func (s Sample) Values() (Values, error) {
	var vals Values
	if err := s.Validate(); err != nil {
		return vals, err
	}
	for _, v := range Variables() {
		vals[v] = *s[v].Value
	}

	return vals, nil
}

// Clone returns a deep copy of the sample.
func (s Sample) Clone() Sample {
	out := util.CloneMap(s)
	for k, r := range out {
		if r.Value != nil {
			r.Value = Float(*r.Value)
			out[k] = r
		}
	}

	return out
}
