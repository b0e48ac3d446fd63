package emeter

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/robotalks/emeter.go/pkg/bus"
)

// Layout describes a frame carrying telemetry fields as little-endian
// int32 values.
type Layout struct {
	Name   string
	ID     uint32
	Fields []Field
}

// Predefined layouts.
var (
	// LayoutPower carries voltage and current.
	LayoutPower = Layout{Name: "power", ID: 0x700, Fields: []Field{FieldVoltage, FieldCurrent}}
	// LayoutMotion carries speed and distance.
	LayoutMotion = Layout{Name: "motion", ID: 0x701, Fields: []Field{FieldSpeed, FieldDistance}}
	// LayoutEnergy carries charge.
	LayoutEnergy = Layout{Name: "energy", ID: 0x702, Fields: []Field{FieldCharge}}
)

// Len returns the payload length.
func (l Layout) Len() int {
	return len(l.Fields) * 4
}

// Validate checks the layout fits in a frame.
func (l Layout) Validate() error {
	if l.ID > bus.MaxID {
		return fmt.Errorf("layout %s: %w", l.Name, bus.ErrInvalidID)
	}
	if l.Len() > bus.MaxDataLen {
		return fmt.Errorf("layout %s: %w", l.Name, bus.ErrInvalidLen)
	}
	for _, f := range l.Fields {
		if !f.IsValid() {
			return fmt.Errorf("layout %s: unknown %v", l.Name, f)
		}
	}
	return nil
}

// Encode builds the frame from a snapshot. A layout failing Validate
// returns the error and a frame with only ID set.
func (l Layout) Encode(t *Telemetry) (bus.Frame, error) {
	f := bus.Frame{ID: l.ID}
	if err := l.Validate(); err != nil {
		return f, err
	}
	f.Len = uint8(l.Len())
	for i, field := range l.Fields {
		binary.LittleEndian.PutUint32(f.Data[i*4:], uint32(t.Field(field)))
	}
	return f, nil
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.String()
	}
	return fmt.Sprintf("%s 0x%03X [%s]", l.Name, l.ID, strings.Join(names, "]["))
}

// Mapping decides which layout is sent in each slot of the transmit window.
type Mapping struct {
	// Full is sent when a window completes, starting the next one.
	Full Layout
	// Half is sent once at HalfFrameOffset within a window.
	Half Layout
}

// DefaultMapping sends power readings every window and energy in between.
var DefaultMapping = Mapping{Full: LayoutPower, Half: LayoutEnergy}

// Mappings are named mappings selectable by configuration.
var Mappings = map[string]Mapping{
	"default": DefaultMapping,
	"motion":  {Full: LayoutPower, Half: LayoutMotion},
}

// MappingByName looks up Mappings.
func MappingByName(name string) (Mapping, error) {
	if m, ok := Mappings[name]; ok {
		return m, nil
	}
	return Mapping{}, fmt.Errorf("unknown mapping %q, expect one of %s", name, strings.Join(MappingNames(), ", "))
}

// MappingNames returns the sorted names in Mappings.
func MappingNames() []string {
	names := make([]string, 0, len(Mappings))
	for n := range Mappings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate validates both layouts.
func (m Mapping) Validate() error {
	if err := m.Full.Validate(); err != nil {
		return err
	}
	return m.Half.Validate()
}
