package process

import "time"

// fixedRand returns a constant; 0.5 produces a zero noise delta.
type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

var noNoise = fixedRand(0.5)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
