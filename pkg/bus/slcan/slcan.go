// Package slcan drives serial-line CAN adapters (LAWICEL protocol).
package slcan

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/robotalks/emeter.go/pkg/bus"
)

var bitRateCodes = map[int]byte{
	10000:   '0',
	20000:   '1',
	50000:   '2',
	100000:  '3',
	125000:  '4',
	250000:  '5',
	500000:  '6',
	800000:  '7',
	1000000: '8',
}

const hexDigits = "0123456789ABCDEF"

// Sender implements bus.Sender on an SLCAN adapter.
type Sender struct {
	w    io.WriteCloser
	lock sync.Mutex
}

// DefaultBaudRate is used when Open is given 0. USB adapters ignore it.
const DefaultBaudRate = 115200

// Open opens the adapter on a serial port and opens the channel at
// bus.BitRate.
func Open(portName string, baudRate int) (*Sender, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("slcan: open %s: %w", portName, err)
	}
	s, err := New(port, bus.BitRate)
	if err != nil {
		port.Close()
		return nil, err
	}
	return s, nil
}

// New initializes the adapter behind w and opens the channel.
func New(w io.WriteCloser, bitRate int) (*Sender, error) {
	code, ok := bitRateCodes[bitRate]
	if !ok {
		return nil, fmt.Errorf("slcan: unsupported bit rate %d", bitRate)
	}
	// close first in case the adapter was left open
	if _, err := w.Write([]byte{'C', '\r', 'S', code, '\r', 'O', '\r'}); err != nil {
		return nil, fmt.Errorf("slcan: init: %w", err)
	}
	return &Sender{w: w}, nil
}

// Encode encodes a frame as an SLCAN transmit command, e.g. t7002ABCD\r.
func Encode(f bus.Frame) []byte {
	b := make([]byte, 0, 5+int(f.Len)*2+1)
	b = append(b, 't',
		hexDigits[(f.ID>>8)&0xf], hexDigits[(f.ID>>4)&0xf], hexDigits[f.ID&0xf],
		'0'+f.Len)
	for _, d := range f.Payload() {
		b = append(b, hexDigits[d>>4], hexDigits[d&0xf])
	}
	return append(b, '\r')
}

// Send implements bus.Sender.
func (s *Sender) Send(f bus.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	_, err := s.w.Write(Encode(f))
	return err
}

// Close closes the channel and the underlying port.
func (s *Sender) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.w.Write([]byte{'C', '\r'})
	return s.w.Close()
}
