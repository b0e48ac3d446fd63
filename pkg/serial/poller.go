// Package serial provides non-blocking access to the meter's serial port.
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/robotalks/emeter.go/pkg/framework"
)

// DefaultBaudRate is the default baud rate of the meter.
const DefaultBaudRate = 115200

// QueueSize is the max number of chunks buffered between the background
// reader and the control loop.
const QueueSize = 64

// ChunkSize is the max size of a chunk read in the background.
const ChunkSize = 64

// ErrClosed is returned by Read after the background reader stopped.
var ErrClosed = errors.New("serial input closed")

// Config defines the port options.
type Config struct {
	Port     string
	BaudRate int
}

// Poller reads a blocking stream in the background and exposes it as a
// non-blocking io.Reader: Read returns whatever is available, possibly
// nothing, and never waits.
type Poller struct {
	Reader io.ReadCloser

	name    string
	chunkCh chan []byte
	pending []byte

	lock sync.Mutex
	err  error
}

// Open opens a serial port at 8N1.
func Open(conf Config) (*Poller, error) {
	baudRate := conf.BaudRate
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(conf.Port, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Port, err)
	}
	p := NewPoller(port)
	p.name = "serial:" + conf.Port
	return p, nil
}

// NewPoller creates a Poller on r.
func NewPoller(r io.ReadCloser) *Poller {
	return &Poller{
		Reader:  r,
		name:    "poller",
		chunkCh: make(chan []byte, QueueSize),
	}
}

// Name implements framework.Named.
func (p *Poller) Name() string {
	return p.name
}

// Read implements io.Reader.
func (p *Poller) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		select {
		case chunk, ok := <-p.chunkCh:
			if !ok {
				return 0, p.Err()
			}
			p.pending = chunk
		default:
			return 0, nil
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Err returns the error stopped the background reader.
func (p *Poller) Err() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.err
}

// Run implements framework.Runnable. The reader is closed when ctx
// is canceled.
func (p *Poller) Run(ctx context.Context) error {
	err := framework.RunWithContextCloser(ctx, p.Reader, func() error {
		for {
			buf := make([]byte, ChunkSize)
			n, err := p.Reader.Read(buf)
			if n > 0 {
				select {
				case p.chunkCh <- buf[:n]:
				default:
					glog.Warningf("%s: input queue full, %d bytes dropped", p.name, n)
				}
			}
			if err != nil {
				return err
			}
		}
	})
	p.lock.Lock()
	p.err = err
	if err == nil || err == io.EOF {
		p.err = ErrClosed
	}
	p.lock.Unlock()
	close(p.chunkCh)
	return err
}
