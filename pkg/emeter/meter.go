package emeter

import (
	"io"

	"github.com/robotalks/emeter.go/pkg/bus"
	"github.com/robotalks/emeter.go/pkg/framework"
	"github.com/robotalks/emeter.go/pkg/l0/line"
)

// RxChunkSize is the max number of input bytes consumed per poll.
const RxChunkSize = 8

// Observer is notified when the snapshot changes.
// It's called on the loop goroutine and must not block.
type Observer interface {
	TelemetryUpdated(Telemetry)
}

// ObserverFunc is the func form of Observer.
type ObserverFunc func(Telemetry)

// TelemetryUpdated implements Observer.
func (f ObserverFunc) TelemetryUpdated(t Telemetry) {
	f(t)
}

// Meter owns all state of the bridge. Create one per input.
type Meter struct {
	// Input must not block: Read returns whatever is available, possibly
	// nothing.
	Input     io.Reader
	Policy    CommitPolicy
	Observers []Observer

	diag      Diagnostics
	assembler line.Assembler
	telemetry Telemetry
	scheduler *Scheduler
	rxBuf     [RxChunkSize]byte
}

// New creates a Meter. now is the current tick and starts the first
// transmit window.
func New(input io.Reader, sender bus.Sender, now uint32) *Meter {
	m := &Meter{
		Input:     input,
		scheduler: NewScheduler(sender, now),
	}
	return m.WithDiagnostics(LogDiagnostics{})
}

// WithDiagnostics replaces the diagnostics sink.
func (m *Meter) WithDiagnostics(d Diagnostics) *Meter {
	m.diag, m.scheduler.Diag = d, d
	return m
}

// WithPolicy sets the commit policy.
func (m *Meter) WithPolicy(p CommitPolicy) *Meter {
	m.Policy = p
	return m
}

// WithMapping sets the transmit mapping.
func (m *Meter) WithMapping(mapping Mapping) *Meter {
	m.scheduler.Mapping = mapping
	return m
}

// WithObservers adds observers.
func (m *Meter) WithObservers(observers ...Observer) *Meter {
	m.Observers = append(m.Observers, observers...)
	return m
}

// Telemetry returns a copy of the snapshot.
func (m *Meter) Telemetry() Telemetry {
	return m.telemetry
}

// Scheduler returns the transmit scheduler.
func (m *Meter) Scheduler() *Scheduler {
	return m.scheduler
}

// Feed consumes raw input bytes.
func (m *Meter) Feed(p []byte) {
	m.assembler.Feed(p, m)
}

// HandleLine implements line.Handler.
func (m *Meter) HandleLine(p []byte) {
	prev := m.telemetry
	if err := m.telemetry.ParseLine(p, m.Policy); err != nil {
		m.diag.LineRejected(err)
	}
	if m.telemetry != prev {
		for _, o := range m.Observers {
			o.TelemetryUpdated(m.telemetry)
		}
	}
}

// HandleError implements line.Handler.
func (m *Meter) HandleError(err error) {
	m.diag.LineRejected(err)
}

// Sense reads up to RxChunkSize available bytes and feeds them.
func (m *Meter) Sense() (int, error) {
	n, err := m.Input.Read(m.rxBuf[:])
	if n > 0 {
		m.Feed(m.rxBuf[:n])
	}
	return n, err
}

// Actuate lets the scheduler send the due frame.
func (m *Meter) Actuate(now uint32) Slot {
	return m.scheduler.Poll(now, &m.telemetry)
}

// Poll runs one main loop iteration.
func (m *Meter) Poll(now uint32) error {
	_, err := m.Sense()
	m.Actuate(now)
	return err
}

// AddToLoop implements framework.LoopAdder.
func (m *Meter) AddToLoop(loop *framework.Loop) {
	if runnable, ok := m.Input.(framework.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	loop.AddController(framework.PrLvSense, framework.ControlFunc(func(cc framework.ControlContext) error {
		n, err := m.Sense()
		// a full chunk means more may be pending, don't wait for the next tick
		if n == RxChunkSize {
			cc.TriggerNext()
		}
		return err
	}))
	loop.AddController(framework.PrLvActuate, framework.ControlFunc(func(cc framework.ControlContext) error {
		m.Actuate(cc.Ticks())
		return nil
	}))
}
