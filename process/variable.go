package process

import (
	"fmt"
)

// Variable identifies one of the instrumented process variables.
type Variable uint8

const (
	TempReactor Variable = iota
	PressureReactor
	TankLevel
	Inflow
	PHReactor
	Conductivity

	// NumVariables is the number of process variables.
	NumVariables = 6
)

// Values holds one value per process variable, indexed by Variable.
type Values [NumVariables]float64

// SensorSpec describes the instrument attached to a variable.
type SensorSpec struct {
	ID    string
	Kind  string
	Unit  string
	Min   float64
	Max   float64
	Noise float64
}

var variableNames = [NumVariables]string{
	"temp_reactor",
	"presion_reactor",
	"nivel_tanque",
	"flujo_entrada",
	"ph_reactor",
	"conductividad",
}

var sensorSpecs = [NumVariables]SensorSpec{
	{ID: "TR1", Kind: "temperatura", Unit: "°C", Min: 0, Max: 150, Noise: 0.5},
	{ID: "PR1", Kind: "presion", Unit: "bar", Min: 0, Max: 10, Noise: 0.1},
	{ID: "NT1", Kind: "nivel", Unit: "%", Min: 0, Max: 100, Noise: 0.2},
	{ID: "FE1", Kind: "flujo", Unit: "L/min", Min: 0, Max: 50, Noise: 0.3},
	{ID: "PH1", Kind: "ph", Unit: "pH", Min: 0, Max: 14, Noise: 0.05},
	{ID: "CD1", Kind: "conductividad", Unit: "mS/cm", Min: 0, Max: 200, Noise: 1},
}

// Variables returns all process variables in wire order.
func Variables() []Variable {
	return []Variable{TempReactor, PressureReactor, TankLevel, Inflow, PHReactor, Conductivity}
}

// ParseVariable resolves a wire name ("temp_reactor") or a sensor tag id ("TR1").
func ParseVariable(name string) (Variable, error) {
	for i := 0; i < NumVariables; i++ {
		if variableNames[i] == name || sensorSpecs[i].ID == name {
			return Variable(i), nil
		}
	}

	return 0, fmt.Errorf("%w: variable %q", ErrUnknownTarget, name)
}

// IsValid reports whether v is a known variable.
func (v Variable) IsValid() bool { return v < NumVariables }

// String returns the wire name of the variable.
func (v Variable) String() string {
	if !v.IsValid() {
		return fmt.Sprintf("variable(%d)", uint8(v))
	}
	return variableNames[v]
}

// Spec returns the sensor specification of the variable.
func (v Variable) Spec() SensorSpec {
	if !v.IsValid() {
		return SensorSpec{}
	}
	return sensorSpecs[v]
}

func (v Variable) MarshalText() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: variable %d", ErrUnknownTarget, uint8(v))
	}
	return []byte(variableNames[v]), nil
}

func (v *Variable) UnmarshalText(text []byte) error {
	parsed, err := ParseVariable(string(text))
	if err != nil {
		return err
	}
	*v = parsed

	return nil
}
