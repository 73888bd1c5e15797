package process

import "math"

// Rand is the random source used for sensor noise. *math/rand.Rand satisfies it.
type Rand interface {
	// Float64 returns a number in [0.0, 1.0).
	Float64() float64
}

// Sensor models a single instrumented variable with a bounded range, uniform noise and fault injection.
//
// Sensor is not goroutine-safe; the Engine owning it serializes access.
type Sensor struct {
	spec    SensorSpec
	value   float64
	faulted bool
	rand    Rand
}

// NewSensor creates a sensor at the middle of its range.
func NewSensor(spec SensorSpec, r Rand) *Sensor {
	return &Sensor{
		spec:  spec,
		value: (spec.Min + spec.Max) / 2,
		rand:  r,
	}
}

func (s *Sensor) ID() string       { return s.spec.ID }
func (s *Sensor) Kind() string     { return s.spec.Kind }
func (s *Sensor) Unit() string     { return s.spec.Unit }
func (s *Sensor) Min() float64     { return s.spec.Min }
func (s *Sensor) Max() float64     { return s.spec.Max }
func (s *Sensor) Noise() float64   { return s.spec.Noise }
func (s *Sensor) Faulted() bool    { return s.faulted }
func (s *Sensor) Spec() SensorSpec { return s.spec }

// Value returns the stored physical value, regardless of the fault flag.
func (s *Sensor) Value() float64 { return s.value }

// Set stores a physical value clamped to the sensor range.
func (s *Sensor) Set(v float64) {
	s.value = clamp(v, s.spec.Min, s.spec.Max)
}

// Read perturbs the stored value by a uniform delta in [-noise, noise], clamps and stores it,
// and returns it rounded to two decimals. A faulted sensor returns nil and leaves the value untouched.
func (s *Sensor) Read() *float64 {
	if s.faulted {
		return nil
	}

	if s.spec.Noise > 0 && s.rand != nil {
		delta := (2*s.rand.Float64() - 1) * s.spec.Noise
		s.Set(s.value + delta)
	}

	v := math.Round(s.value*100) / 100

	return &v
}

// InjectFault makes subsequent reads absent. The stored value is kept.
func (s *Sensor) InjectFault() { s.faulted = true }

// ClearFault resumes reads from the last stored value.
func (s *Sensor) ClearFault() { s.faulted = false }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
