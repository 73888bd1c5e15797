package process

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommand_WireFormat(t *testing.T) {
	tests := []struct {
		description string
		cmd         Command
		wire        string
	}{
		{
			description: "actuator",
			cmd:         ActuatorCommand(Heater, true),
			wire:        `{"actuador":"calentador","valor":true}`,
		},
		{
			description: "setpoint",
			cmd:         SetpointCommand(TankLevel, 60.5),
			wire:        `{"setpoint":true,"variable":"nivel_tanque","valor":60.5}`,
		},
		{
			description: "inject fault",
			cmd:         InjectFaultCommand(TempReactor),
			wire:        `{"simular_fallo":true,"sensor":"temp_reactor"}`,
		},
		{
			description: "repair",
			cmd:         RepairCommand(PHReactor),
			wire:        `{"reparar":true,"sensor":"ph_reactor"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			data, err := json.Marshal(tt.cmd)
			require.NoError(err)
			require.JSONEq(tt.wire, string(data))

			var decoded Command
			require.NoError(json.Unmarshal([]byte(tt.wire), &decoded))
			require.Equal(tt.cmd, decoded)
		})
	}
}

func TestCommand_UnmarshalAcceptsSensorTag(t *testing.T) {
	require := require.New(t)

	var cmd Command
	require.NoError(json.Unmarshal([]byte(`{"simular_fallo":true,"sensor":"TR1"}`), &cmd))
	require.Equal(InjectFaultCommand(TempReactor), cmd)
}

func TestCommand_UnmarshalInvalid(t *testing.T) {
	tests := []struct {
		description string
		wire        string
		target      error
	}{
		{description: "no command key", wire: `{"valor":true}`, target: ErrInvalidCommand},
		{description: "two command keys", wire: `{"reparar":true,"simular_fallo":true,"sensor":"TR1"}`, target: ErrInvalidCommand},
		{description: "missing value", wire: `{"actuador":"calentador"}`, target: ErrInvalidCommand},
		{description: "unknown actuator", wire: `{"actuador":"bomba","valor":true}`, target: ErrUnknownTarget},
		{description: "unknown sensor", wire: `{"reparar":true,"sensor":"XX1"}`, target: ErrUnknownTarget},
		{description: "mistyped value", wire: `{"setpoint":true,"variable":"temp_reactor","valor":"hot"}`, target: ErrInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			var cmd Command
			err := json.Unmarshal([]byte(tt.wire), &cmd)
			require.ErrorIs(t, err, tt.target)
		})
	}
}

func TestCommand_MarshalUnknownKind(t *testing.T) {
	_, err := json.Marshal(Command{})
	require.ErrorIs(t, err, ErrInvalidCommand)
}
