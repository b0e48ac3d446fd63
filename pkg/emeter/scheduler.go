package emeter

import (
	"github.com/robotalks/emeter.go/pkg/bus"
	"github.com/robotalks/emeter.go/pkg/framework"
)

const (
	// FullFrameInterval is the transmit window in ticks.
	FullFrameInterval uint32 = 1000
	// HalfFrameOffset is when the half slot frame is sent within a window.
	HalfFrameOffset uint32 = 500
)

// Slot identifies which frame a poll sent.
type Slot int

// Slots.
const (
	SlotNone Slot = iota
	SlotHalf
	SlotFull
)

// String implements fmt.Stringer.
func (s Slot) String() string {
	switch s {
	case SlotHalf:
		return "half"
	case SlotFull:
		return "full"
	}
	return "none"
}

// Scheduler sends at most one frame per poll: Mapping.Full when a window
// of FullFrameInterval ticks completes and Mapping.Half once at
// HalfFrameOffset within the window. A failed transmit is reported and
// never retried; the next slot simply tries again.
type Scheduler struct {
	Mapping Mapping
	Sender  bus.Sender
	Diag    Diagnostics

	baseline uint32
	halfSent bool
}

// NewScheduler creates a Scheduler with the window starting at now.
func NewScheduler(sender bus.Sender, now uint32) *Scheduler {
	return &Scheduler{
		Mapping:  DefaultMapping,
		Sender:   sender,
		baseline: now,
	}
}

// Baseline returns the tick the current window started at.
func (s *Scheduler) Baseline() uint32 {
	return s.baseline
}

// HalfSent indicates the half slot frame was sent in current window.
func (s *Scheduler) HalfSent() bool {
	return s.halfSent
}

// Poll checks the tick and sends the due frame built from t.
func (s *Scheduler) Poll(now uint32, t *Telemetry) Slot {
	elapsed := framework.Elapsed(now, s.baseline)
	switch {
	case elapsed >= FullFrameInterval:
		s.baseline, s.halfSent = now, false
		s.send(s.Mapping.Full, t)
		return SlotFull
	case elapsed >= HalfFrameOffset && !s.halfSent:
		s.halfSent = true
		s.send(s.Mapping.Half, t)
		return SlotHalf
	}
	return SlotNone
}

func (s *Scheduler) send(l Layout, t *Telemetry) {
	f, err := l.Encode(t)
	if err == nil {
		err = s.Sender.Send(f)
	}
	if s.Diag != nil {
		s.Diag.FrameSent(f, err)
	}
}
