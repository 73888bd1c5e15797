package process

import (
	"encoding/json"
	"fmt"
)

// CommandKind discriminates the command variants.
type CommandKind uint8

const (
	CommandActuator CommandKind = iota + 1
	CommandSetpoint
	CommandInjectFault
	CommandRepair
)

func (k CommandKind) String() string {
	switch k {
	case CommandActuator:
		return "actuator"
	case CommandSetpoint:
		return "setpoint"
	case CommandInjectFault:
		return "inject-fault"
	case CommandRepair:
		return "repair"
	default:
		return "unknown"
	}
}

// wire discriminator keys
const (
	keyActuator = "actuador"
	keySetpoint = "setpoint"
	keyFault    = "simular_fallo"
	keyRepair   = "reparar"
)

// Command is an instruction sent from the analyzer to the plant.
//
// Only the fields relevant to Kind are meaningful: Actuator and On for CommandActuator,
// Variable and Value for CommandSetpoint, Variable for CommandInjectFault and CommandRepair.
type Command struct {
	Kind     CommandKind
	Actuator Actuator
	On       bool
	Variable Variable
	Value    float64
}

// ActuatorCommand switches an actuator.
func ActuatorCommand(a Actuator, on bool) Command {
	return Command{Kind: CommandActuator, Actuator: a, On: on}
}

// SetpointCommand changes a setpoint.
func SetpointCommand(v Variable, value float64) Command {
	return Command{Kind: CommandSetpoint, Variable: v, Value: value}
}

// InjectFaultCommand forces a sensor fault.
func InjectFaultCommand(v Variable) Command {
	return Command{Kind: CommandInjectFault, Variable: v}
}

// RepairCommand clears a sensor fault.
func RepairCommand(v Variable) Command {
	return Command{Kind: CommandRepair, Variable: v}
}

func (c Command) String() string {
	switch c.Kind {
	case CommandActuator:
		return fmt.Sprintf("actuator %s=%t", c.Actuator, c.On)
	case CommandSetpoint:
		return fmt.Sprintf("setpoint %s=%g", c.Variable, c.Value)
	case CommandInjectFault:
		return fmt.Sprintf("inject-fault %s", c.Variable)
	case CommandRepair:
		return fmt.Sprintf("repair %s", c.Variable)
	default:
		return "unknown command"
	}
}

type actuatorWire struct {
	Actuator Actuator `json:"actuador"`
	Value    bool     `json:"valor"`
}

type setpointWire struct {
	Setpoint bool     `json:"setpoint"`
	Variable Variable `json:"variable"`
	Value    float64  `json:"valor"`
}

type faultWire struct {
	Fault  bool     `json:"simular_fallo"`
	Sensor Variable `json:"sensor"`
}

type repairWire struct {
	Repair bool     `json:"reparar"`
	Sensor Variable `json:"sensor"`
}

// MarshalJSON encodes the command in its wire form, e.g. {"actuador":"calentador","valor":true}.
func (c Command) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CommandActuator:
		return json.Marshal(actuatorWire{Actuator: c.Actuator, Value: c.On})
	case CommandSetpoint:
		return json.Marshal(setpointWire{Setpoint: true, Variable: c.Variable, Value: c.Value})
	case CommandInjectFault:
		return json.Marshal(faultWire{Fault: true, Sensor: c.Variable})
	case CommandRepair:
		return json.Marshal(repairWire{Repair: true, Sensor: c.Variable})
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidCommand, uint8(c.Kind))
	}
}

// UnmarshalJSON decodes a wire command. The object must carry exactly one of the
// actuador, setpoint, simular_fallo or reparar keys.
func (c *Command) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var kind CommandKind
	found := 0
	for key, k := range map[string]CommandKind{
		keyActuator: CommandActuator,
		keySetpoint: CommandSetpoint,
		keyFault:    CommandInjectFault,
		keyRepair:   CommandRepair,
	} {
		if _, ok := fields[key]; ok {
			kind = k
			found++
		}
	}
	if found != 1 {
		return fmt.Errorf("%w: expected exactly one command key, found %d", ErrInvalidCommand, found)
	}

	cmd := Command{Kind: kind}
	switch kind {
	case CommandActuator:
		if err := decodeField(fields, keyActuator, &cmd.Actuator); err != nil {
			return err
		}
		if err := decodeField(fields, "valor", &cmd.On); err != nil {
			return err
		}
	case CommandSetpoint:
		if err := decodeField(fields, "variable", &cmd.Variable); err != nil {
			return err
		}
		if err := decodeField(fields, "valor", &cmd.Value); err != nil {
			return err
		}
	case CommandInjectFault, CommandRepair:
		if err := decodeField(fields, "sensor", &cmd.Variable); err != nil {
			return err
		}
	}
	*c = cmd

	return nil
}

func decodeField(fields map[string]json.RawMessage, key string, out any) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: missing %q", ErrInvalidCommand, key)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: field %q: %w", ErrInvalidCommand, key, err)
	}

	return nil
}
