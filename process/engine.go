package process

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Physical constants of the reactor model.
const (
	AmbientTemp     = 25.0  // °C
	MaxTemp         = 150.0 // °C
	HeaterPower     = 2.0   // °C/s while the heater is on
	CoolingCoeff    = 0.1   // 1/s, Newton cooling towards ambient
	InflowRate      = 5.0   // %/s level gain, also the reported inflow
	OutflowRate     = 3.0   // %/s level loss
	BasePH          = 7.0
	PHDriftAmp      = 0.5
	PHDriftPeriod   = 10 * time.Second // divisor of the wall-clock phase
	PHTempGain      = 0.2
	BaseConductance = 100.0 // mS/cm at ambient
	CondTempCoeff   = 0.02  // per °C
)

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithRand sets the random source used for sensor noise.
func WithRand(r Rand) EngineOption {
	return func(e *Engine) { e.rand = r }
}

// WithClock sets the wall clock used by the pH drift.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// WithAmbient overrides the ambient temperature.
func WithAmbient(temp float64) EngineOption {
	return func(e *Engine) { e.ambient = temp }
}

// WithInitialValue sets the starting physical value of a variable.
func WithInitialValue(v Variable, value float64) EngineOption {
	return func(e *Engine) {
		if v.IsValid() {
			e.initial[v] = &value
		}
	}
}

// WithActuator sets the starting state of an actuator.
func WithActuator(a Actuator, on bool) EngineOption {
	return func(e *Engine) { _ = e.actuators.Set(a, on) }
}

// Engine owns the sensors, actuators and setpoints of the plant and advances the simulation.
//
// Engine is not goroutine-safe: it is meant to be driven by a single cycle loop.
type Engine struct {
	sensors   [NumVariables]*Sensor
	actuators ActuatorState
	setpoints SetpointTable
	rand      Rand
	clock     func() time.Time
	ambient   float64
	initial   [NumVariables]*float64
}

// NewEngine creates an engine with every sensor at mid-range, all actuators off and
// default setpoints.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		setpoints: DefaultSetpoints(),
		clock:     time.Now,
		ambient:   AmbientTemp,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}

	for _, v := range Variables() {
		s := NewSensor(v.Spec(), e.rand)
		if e.initial[v] != nil {
			s.Set(*e.initial[v])
		}
		e.sensors[v] = s
	}

	return e
}

// Sensor returns the sensor attached to v, or nil for an unknown variable.
func (e *Engine) Sensor(v Variable) *Sensor {
	if !v.IsValid() {
		return nil
	}
	return e.sensors[v]
}

// Actuator reports whether actuator a is on.
func (e *Engine) Actuator(a Actuator) bool {
	return e.actuators.On(a)
}

// Actuators returns the actuator states keyed by wire name.
func (e *Engine) Actuators() map[string]bool {
	return e.actuators.Map()
}

// Setpoint returns the setpoint of v, if one is defined.
func (e *Engine) Setpoint(v Variable) (float64, bool) {
	sp, ok := e.setpoints[v]
	return sp, ok
}

// Advance moves the simulation forward by dt and reads every sensor.
//
// Temperature and level are integrated first; pressure, pH and conductivity are then derived
// from the values updated in this same cycle.
func (e *Engine) Advance(dt time.Duration) Sample {
	step := dt.Seconds()

	temp := e.sensors[TempReactor]
	power := 0.0
	if e.actuators.On(Heater) {
		power = HeaterPower
	}
	t := temp.Value() + (power-CoolingCoeff*(temp.Value()-e.ambient))*step
	temp.Set(clamp(t, e.ambient, MaxTemp))

	level := e.sensors[TankLevel]
	in, out := 0.0, 0.0
	if e.actuators.On(ValveIn) {
		in = InflowRate
	}
	if e.actuators.On(ValveOut) {
		out = OutflowRate
	}
	level.Set(clamp(level.Value()+(in-out)*step, 0, 100))

	e.sensors[Inflow].Set(in)

	curTemp := temp.Value()
	curLevel := level.Value()

	e.sensors[PressureReactor].Set(1.0 + 3.0*(curTemp/MaxTemp) + 2.0*(curLevel/100.0))

	phase := float64(e.clock().UnixNano()) / float64(PHDriftPeriod)
	ph := BasePH + PHDriftAmp*math.Sin(phase) + PHTempGain*(curTemp-e.ambient)/AmbientTemp
	e.sensors[PHReactor].Set(clamp(ph, 0, 14))

	e.sensors[Conductivity].Set(BaseConductance * (1.0 + CondTempCoeff*(curTemp-e.ambient)))

	return e.read()
}

func (e *Engine) read() Sample {
	sample := make(Sample, NumVariables)
	for _, v := range Variables() {
		s := e.sensors[v]
		status := StatusOK
		if s.Faulted() {
			status = StatusError
		}
		sample[v] = Reading{Value: s.Read(), Unit: s.Unit(), Status: status}
	}

	return sample
}

// InjectFault forces the sensor of v into the faulted state.
func (e *Engine) InjectFault(v Variable) error {
	s := e.Sensor(v)
	if s == nil {
		return fmt.Errorf("%w: variable %d", ErrUnknownTarget, uint8(v))
	}
	s.InjectFault()

	return nil
}

// ClearFault repairs the sensor of v.
func (e *Engine) ClearFault(v Variable) error {
	s := e.Sensor(v)
	if s == nil {
		return fmt.Errorf("%w: variable %d", ErrUnknownTarget, uint8(v))
	}
	s.ClearFault()

	return nil
}

// Apply executes a command against the plant state.
func (e *Engine) Apply(cmd Command) error {
	switch cmd.Kind {
	case CommandActuator:
		return e.actuators.Set(cmd.Actuator, cmd.On)
	case CommandSetpoint:
		if !cmd.Variable.IsValid() {
			return fmt.Errorf("%w: variable %d", ErrUnknownTarget, uint8(cmd.Variable))
		}
		e.setpoints[cmd.Variable] = cmd.Value
		return nil
	case CommandInjectFault:
		return e.InjectFault(cmd.Variable)
	case CommandRepair:
		return e.ClearFault(cmd.Variable)
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidCommand, uint8(cmd.Kind))
	}
}
