package bus

import (
	"sync"

	"github.com/golang/glog"
)

// Sender attempts to transmit a frame and reports the immediate status.
// It never waits for delivery and never retries.
type Sender interface {
	Send(Frame) error
}

// SendFunc is the func form of Sender.
type SendFunc func(Frame) error

// Send implements Sender.
func (f SendFunc) Send(frame Frame) error {
	return f(frame)
}

// Tee sends frames to Primary and copies them to Mirrors. Only the result
// of Primary is reported; mirror failures are logged.
type Tee struct {
	Primary Sender
	Mirrors []Sender
}

// Send implements Sender.
func (t *Tee) Send(frame Frame) error {
	err := t.Primary.Send(frame)
	for _, m := range t.Mirrors {
		if merr := m.Send(frame); merr != nil {
			glog.V(2).Infof("mirror %s error: %v", frame, merr)
		}
	}
	return err
}

// Recorder is a Sender keeping all frames sent. Err, when set, is
// returned from Send and the frame is not recorded.
type Recorder struct {
	Err error

	lock   sync.Mutex
	frames []Frame
}

// Send implements Sender.
func (r *Recorder) Send(frame Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.frames = append(r.frames, frame)
	return nil
}

// Frames returns a copy of recorded frames.
func (r *Recorder) Frames() []Frame {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Frame(nil), r.frames...)
}

// LogSender logs frames instead of sending, for bench use without a bus.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(frame Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	glog.Infof("TX %s", frame)
	return nil
}
