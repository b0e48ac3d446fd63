// Package line provides L0 telemetry line protocol support.
package line

// L0 line protocol is emitted by the energy meter over a serial port.
// It is plain ASCII: every logical line is terminated by a single CR or LF
// and carries five decimal readings separated by single tab characters:
//
//	charge \t voltage \t current \t speed \t distance
//
// Readings are decoded into milli-scaled int32 values without floating
// point arithmetic. There is no checksum and no framing beyond the line
// terminator; a malformed line is simply rejected and the next one is
// parsed from scratch.
//
// Producer: energy meter
// Consumer: bus bridge
