// Package emeter bridges energy meter telemetry to the vehicle bus.
//
// A Meter owns the line assembler, the latest Telemetry snapshot and the
// transmit Scheduler. It's driven by a framework.Loop: on every iteration
// available serial bytes are consumed, completed lines are decoded into
// the snapshot, and the scheduler decides whether a frame is due.
package emeter
