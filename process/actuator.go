package process

import "fmt"

// Actuator identifies one of the plant's on/off actuators.
type Actuator uint8

const (
	ValveIn Actuator = iota
	ValveOut
	Heater
	Stirrer

	// NumActuators is the number of actuators.
	NumActuators = 4
)

var actuatorNames = [NumActuators]string{
	"valvula_entrada",
	"valvula_salida",
	"calentador",
	"agitador",
}

// Actuators returns all actuators in wire order.
func Actuators() []Actuator {
	return []Actuator{ValveIn, ValveOut, Heater, Stirrer}
}

// ParseActuator resolves an actuator wire name.
func ParseActuator(name string) (Actuator, error) {
	for i, n := range actuatorNames {
		if n == name {
			return Actuator(i), nil
		}
	}

	return 0, fmt.Errorf("%w: actuator %q", ErrUnknownTarget, name)
}

func (a Actuator) IsValid() bool { return a < NumActuators }

func (a Actuator) String() string {
	if !a.IsValid() {
		return fmt.Sprintf("actuator(%d)", uint8(a))
	}
	return actuatorNames[a]
}

func (a Actuator) MarshalText() ([]byte, error) {
	if !a.IsValid() {
		return nil, fmt.Errorf("%w: actuator %d", ErrUnknownTarget, uint8(a))
	}
	return []byte(actuatorNames[a]), nil
}

func (a *Actuator) UnmarshalText(text []byte) error {
	parsed, err := ParseActuator(string(text))
	if err != nil {
		return err
	}
	*a = parsed

	return nil
}

// ActuatorState holds the on/off state of every actuator. The zero value has everything off.
type ActuatorState struct {
	on [NumActuators]bool
}

// On reports whether actuator a is switched on.
func (s *ActuatorState) On(a Actuator) bool {
	if !a.IsValid() {
		return false
	}
	return s.on[a]
}

// Set switches actuator a.
func (s *ActuatorState) Set(a Actuator, on bool) error {
	if !a.IsValid() {
		return fmt.Errorf("%w: actuator %d", ErrUnknownTarget, uint8(a))
	}
	s.on[a] = on

	return nil
}

// Map returns the state keyed by wire name.
func (s *ActuatorState) Map() map[string]bool {
	m := make(map[string]bool, NumActuators)
	for i, on := range s.on {
		m[actuatorNames[i]] = on
	}

	return m
}

// SetpointTable maps variables to target values. It is advisory: no simulation equation reads it.
type SetpointTable map[Variable]float64

// DefaultSetpoints returns the plant's initial setpoints.
func DefaultSetpoints() SetpointTable {
	return SetpointTable{
		TempReactor:     75.0,
		PressureReactor: 5.0,
		TankLevel:       80.0,
		Inflow:          25.0,
	}
}
