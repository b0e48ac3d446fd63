package emeter

import (
	"errors"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/emeter.go/pkg/bus"
	"github.com/robotalks/emeter.go/pkg/l0/line"
)

// Diagnostics receives line-scoped parse errors and transmit results.
// Implementations must not block.
type Diagnostics interface {
	LineRejected(err error)
	FrameSent(f bus.Frame, err error)
}

// LogDiagnostics reports to glog.
type LogDiagnostics struct{}

// LineRejected implements Diagnostics.
func (LogDiagnostics) LineRejected(err error) {
	// a CRLF terminated stream produces an empty line after every line
	if errors.Is(err, line.ErrTooShort) {
		glog.V(3).Infof("line ignored: %v", err)
		return
	}
	glog.Warningf("parse error: %v", err)
}

// FrameSent implements Diagnostics.
func (LogDiagnostics) FrameSent(f bus.Frame, err error) {
	if err != nil {
		glog.Errorf("transmit %s error: %v", f, err)
		return
	}
	glog.V(2).Infof("TX %s", f)
}

// Counters counts diagnostics events.
type Counters struct {
	Rejected   atomic.Uint64
	Overflows  atomic.Uint64
	Frames     atomic.Uint64
	TxFailures atomic.Uint64
}

// LineRejected implements Diagnostics.
func (c *Counters) LineRejected(err error) {
	if errors.Is(err, line.ErrBufferOverflow) {
		c.Overflows.Add(1)
		return
	}
	c.Rejected.Add(1)
}

// FrameSent implements Diagnostics.
func (c *Counters) FrameSent(f bus.Frame, err error) {
	if err != nil {
		c.TxFailures.Add(1)
		return
	}
	c.Frames.Add(1)
}

// DiagnosticsMux dispatches to multiple Diagnostics.
type DiagnosticsMux []Diagnostics

// LineRejected implements Diagnostics.
func (m DiagnosticsMux) LineRejected(err error) {
	for _, d := range m {
		d.LineRejected(err)
	}
}

// FrameSent implements Diagnostics.
func (m DiagnosticsMux) FrameSent(f bus.Frame, err error) {
	for _, d := range m {
		d.FrameSent(f, err)
	}
}
