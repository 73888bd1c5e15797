package process

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const cycle = 100 * time.Millisecond

var epoch = time.Unix(0, 0)

func newTestEngine(opts ...EngineOption) *Engine {
	base := []EngineOption{WithRand(noNoise), WithClock(fixedClock(epoch))}
	return NewEngine(append(base, opts...)...)
}

func TestEngine_HeaterOffAtAmbientStaysAtAmbient(t *testing.T) {
	require := require.New(t)

	e := newTestEngine(WithInitialValue(TempReactor, 25))
	for i := 0; i < 10; i++ {
		sample := e.Advance(cycle)
		temp, ok := sample.Value(TempReactor)
		require.True(ok)
		require.InDelta(25.0, temp, 1e-9, "cycle %d", i)
	}
}

func TestEngine_HeaterRaisesTemperature(t *testing.T) {
	require := require.New(t)

	baseline := newTestEngine(WithInitialValue(TempReactor, 25))
	heated := newTestEngine(WithInitialValue(TempReactor, 25))
	require.NoError(heated.Apply(ActuatorCommand(Heater, true)))
	require.True(heated.Actuator(Heater))

	coldTemp, _ := baseline.Advance(cycle).Value(TempReactor)
	hotTemp, _ := heated.Advance(cycle).Value(TempReactor)

	require.Greater(hotTemp, coldTemp)
	// 25 + (2.0 - 0.1*0) * 0.1
	require.InDelta(25.2, hotTemp, 1e-9)
}

func TestEngine_CoolsTowardsAmbient(t *testing.T) {
	require := require.New(t)

	e := newTestEngine(WithInitialValue(TempReactor, 75))
	temp, _ := e.Advance(time.Second).Value(TempReactor)
	// 75 - 0.1*(75-25)*1
	require.InDelta(70.0, temp, 1e-9)
}

func TestEngine_TankMassBalance(t *testing.T) {
	tests := []struct {
		description string
		valveIn     bool
		valveOut    bool
		start       float64
		expected    float64
		inflow      float64
	}{
		{description: "closed", start: 50, expected: 50},
		{description: "filling", valveIn: true, start: 50, expected: 55, inflow: 5},
		{description: "draining", valveOut: true, start: 50, expected: 47},
		{description: "both open", valveIn: true, valveOut: true, start: 50, expected: 52, inflow: 5},
		{description: "clamped full", valveIn: true, start: 99, expected: 100, inflow: 5},
		{description: "clamped empty", valveOut: true, start: 1, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			require := require.New(t)

			e := newTestEngine(
				WithInitialValue(TankLevel, tt.start),
				WithActuator(ValveIn, tt.valveIn),
				WithActuator(ValveOut, tt.valveOut),
			)
			sample := e.Advance(time.Second)

			level, _ := sample.Value(TankLevel)
			require.InDelta(tt.expected, level, 1e-9)
			inflow, _ := sample.Value(Inflow)
			require.InDelta(tt.inflow, inflow, 1e-9)
		})
	}
}

func TestEngine_DerivedVariablesUseUpdatedState(t *testing.T) {
	require := require.New(t)

	e := newTestEngine(
		WithInitialValue(TempReactor, 25),
		WithInitialValue(TankLevel, 50),
		WithActuator(Heater, true),
		WithActuator(ValveIn, true),
	)
	sample := e.Advance(time.Second)

	// temperature 27, level 55 after one second
	temp, _ := sample.Value(TempReactor)
	require.InDelta(27.0, temp, 1e-9)

	pressure, _ := sample.Value(PressureReactor)
	require.InDelta(math.Round((1+3*27.0/150+2*55.0/100)*100)/100, pressure, 1e-9)

	cond, _ := sample.Value(Conductivity)
	require.InDelta(100*(1+0.02*2), cond, 1e-9)

	// clock at the epoch: sin(0) = 0
	ph, _ := sample.Value(PHReactor)
	require.InDelta(math.Round((7+0.2*2.0/25)*100)/100, ph, 1e-9)
}

func TestEngine_PHDriftFollowsClock(t *testing.T) {
	require := require.New(t)

	// phase of pi/2 gives the maximum drift
	phase := math.Pi / 2
	at := epoch.Add(time.Duration(phase * float64(PHDriftPeriod)))
	e := newTestEngine(WithInitialValue(TempReactor, 25), WithClock(fixedClock(at)))

	ph, _ := e.Advance(cycle).Value(PHReactor)
	require.InDelta(7.5, ph, 1e-9)
}

func TestEngine_CompensationFollowsAmbient(t *testing.T) {
	require := require.New(t)

	e := newTestEngine(WithAmbient(20), WithInitialValue(TempReactor, 20))
	sample := e.Advance(cycle)

	ph, _ := sample.Value(PHReactor)
	require.InDelta(BasePH, ph, 1e-9)

	cond, _ := sample.Value(Conductivity)
	require.InDelta(BaseConductance, cond, 1e-9)
}

func TestEngine_ConductivityClampedToSensorRange(t *testing.T) {
	require := require.New(t)

	e := newTestEngine(WithInitialValue(TempReactor, 150), WithActuator(Heater, true))
	cond, _ := e.Advance(cycle).Value(Conductivity)
	require.InDelta(200.0, cond, 1e-9)
}

func TestEngine_FaultMarksErrorUntilRepaired(t *testing.T) {
	require := require.New(t)

	e := newTestEngine()
	require.NoError(e.Apply(InjectFaultCommand(TempReactor)))

	sample := e.Advance(cycle)
	reading := sample[TempReactor]
	require.Nil(reading.Value)
	require.Equal(StatusError, reading.Status)
	require.Equal("°C", reading.Unit)
	require.False(sample.Complete())

	for _, v := range []Variable{PressureReactor, TankLevel, Inflow, PHReactor, Conductivity} {
		require.Equal(StatusOK, sample[v].Status)
		require.NotNil(sample[v].Value)
	}

	require.NoError(e.Apply(RepairCommand(TempReactor)))
	sample = e.Advance(cycle)
	require.Equal(StatusOK, sample[TempReactor].Status)
	require.NotNil(sample[TempReactor].Value)
	require.True(sample.Complete())
}

func TestEngine_ApplySetpoint(t *testing.T) {
	require := require.New(t)

	e := newTestEngine()
	sp, ok := e.Setpoint(TempReactor)
	require.True(ok)
	require.InDelta(75.0, sp, 0)

	_, ok = e.Setpoint(PHReactor)
	require.False(ok)

	require.NoError(e.Apply(SetpointCommand(PHReactor, 6.5)))
	sp, ok = e.Setpoint(PHReactor)
	require.True(ok)
	require.InDelta(6.5, sp, 0)
}

func TestEngine_ApplyRejectsUnknownTargets(t *testing.T) {
	require := require.New(t)

	e := newTestEngine()
	require.ErrorIs(e.Apply(ActuatorCommand(Actuator(9), true)), ErrUnknownTarget)
	require.ErrorIs(e.Apply(SetpointCommand(Variable(9), 1)), ErrUnknownTarget)
	require.ErrorIs(e.Apply(InjectFaultCommand(Variable(9))), ErrUnknownTarget)
	require.ErrorIs(e.Apply(Command{}), ErrInvalidCommand)
	require.Nil(e.Sensor(Variable(9)))
}

func TestEngine_SampleAlwaysWithinRange(t *testing.T) {
	require := require.New(t)

	e := NewEngine(WithActuator(Heater, true), WithActuator(ValveIn, true))
	for i := 0; i < 500; i++ {
		sample := e.Advance(cycle)
		for _, v := range Variables() {
			val, ok := sample.Value(v)
			require.True(ok)
			spec := v.Spec()
			require.GreaterOrEqual(val, spec.Min)
			require.LessOrEqual(val, spec.Max)
		}
	}
	require.Equal(map[string]bool{
		"valvula_entrada": true,
		"valvula_salida":  false,
		"calentador":      true,
		"agitador":        false,
	}, e.Actuators())
}
