package emeter

import (
	"fmt"

	"github.com/robotalks/emeter.go/pkg/l0/line"
)

// Field identifies a reading, in wire order.
type Field int

// Fields in wire order.
const (
	FieldCharge Field = iota
	FieldVoltage
	FieldCurrent
	FieldSpeed
	FieldDistance
)

var fieldNames = [line.FieldCount]string{"charge", "voltage", "current", "speed", "distance"}

var fieldUnits = [line.FieldCount]string{"mAh", "mV", "mA", "mmph", "mm"}

// String implements fmt.Stringer.
func (f Field) String() string {
	if f.IsValid() {
		return fieldNames[f]
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Unit returns the unit of the milli-scaled value.
func (f Field) Unit() string {
	if f.IsValid() {
		return fieldUnits[f]
	}
	return ""
}

// IsValid checks if it's a known field.
func (f Field) IsValid() bool {
	return f >= 0 && int(f) < line.FieldCount
}

// Telemetry is the latest decoded snapshot. All values are milli-scaled.
type Telemetry struct {
	Charge   int32 `json:"charge"`   // mAh
	Voltage  int32 `json:"voltage"`  // mV
	Current  int32 `json:"current"`  // mA
	Speed    int32 `json:"speed"`    // milli-mph
	Distance int32 `json:"distance"` // mm
}

// Field gets a value by field.
func (t *Telemetry) Field(f Field) int32 {
	switch f {
	case FieldCharge:
		return t.Charge
	case FieldVoltage:
		return t.Voltage
	case FieldCurrent:
		return t.Current
	case FieldSpeed:
		return t.Speed
	case FieldDistance:
		return t.Distance
	}
	return 0
}

// SetField sets a value by field. Unknown fields are ignored.
func (t *Telemetry) SetField(f Field, v int32) {
	switch f {
	case FieldCharge:
		t.Charge = v
	case FieldVoltage:
		t.Voltage = v
	case FieldCurrent:
		t.Current = v
	case FieldSpeed:
		t.Speed = v
	case FieldDistance:
		t.Distance = v
	}
}

// String implements fmt.Stringer.
func (t Telemetry) String() string {
	return fmt.Sprintf("charge=%dmAh voltage=%dmV current=%dmA speed=%dmmph distance=%dmm",
		t.Charge, t.Voltage, t.Current, t.Speed, t.Distance)
}

// CommitPolicy decides how decoded fields are written into Telemetry
// when a later field of the same line fails to decode.
type CommitPolicy int

const (
	// CommitEager writes every field as soon as it decodes. Fields before a
	// failing one keep their new values.
	CommitEager CommitPolicy = iota
	// CommitAtomic writes all fields only when the whole line decodes.
	CommitAtomic
)

// String implements fmt.Stringer.
func (p CommitPolicy) String() string {
	switch p {
	case CommitEager:
		return "eager"
	case CommitAtomic:
		return "atomic"
	}
	return fmt.Sprintf("commit(%d)", int(p))
}

// ParseCommitPolicy parses the name of a CommitPolicy.
func ParseCommitPolicy(name string) (CommitPolicy, error) {
	switch name {
	case "eager", "":
		return CommitEager, nil
	case "atomic":
		return CommitAtomic, nil
	}
	return CommitEager, fmt.Errorf("unknown commit policy %q", name)
}

// ParseLine decodes a line into the snapshot.
// Structural errors (line.ErrTooShort, line.ErrFieldCountMismatch) never
// modify the snapshot. Decode failures are reported as *line.FieldError
// and leave the snapshot according to policy.
func (t *Telemetry) ParseLine(p []byte, policy CommitPolicy) error {
	fields, err := line.Split(p)
	if err != nil {
		return err
	}
	if policy == CommitAtomic {
		staged := *t
		if err := fields.Decode(func(i int, v int32) { staged.SetField(Field(i), v) }); err != nil {
			return err
		}
		*t = staged
		return nil
	}
	return fields.Decode(func(i int, v int32) { t.SetField(Field(i), v) })
}
