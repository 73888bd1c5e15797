// Package process simulates a small chemical reactor: six instrumented variables, four on/off actuators
// and an advisory setpoint table.
//
// The Engine advances the physics one cycle at a time with first-order update equations and then reads
// every Sensor to build a Sample. Sensors add bounded uniform noise, clamp to their range, and report
// no value at all while a fault is injected.
//
// Variables and actuators are enumerated types, so a misspelled key is a compile error inside the
// module. Their wire names (temp_reactor, calentador, ...) only appear at the JSON boundary through
// the encoding.TextMarshaler implementations.
package process
