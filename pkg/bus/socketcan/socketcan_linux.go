// Package socketcan sends frames through Linux raw CAN sockets.
//
// The interface bit rate is configured outside the process,
// e.g. ip link set can0 type can bitrate 125000.
package socketcan

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/robotalks/emeter.go/pkg/bus"
)

// Sender implements bus.Sender on a raw CAN socket.
type Sender struct {
	fd    int
	iface string
}

// Dial opens a raw CAN socket bound to the network interface.
func Dial(iface string) (*Sender, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan: %w", err)
	}
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("socketcan: socket: %w", err)
	}
	// Nothing is consumed from the bus, an empty filter keeps the receive
	// queue from filling up.
	if err := unix.SetsockoptCanRawFilter(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, []unix.CanFilter{}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: filter: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: ifi.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("socketcan: bind %s: %w", iface, err)
	}
	return &Sender{fd: fd, iface: iface}, nil
}

// Send implements bus.Sender. A full transmit queue is reported as an
// error immediately instead of waiting.
func (s *Sender) Send(f bus.Frame) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	n, err := unix.Write(s.fd, b)
	if err != nil {
		return fmt.Errorf("socketcan: %s: %w", s.iface, err)
	}
	if n != len(b) {
		return fmt.Errorf("socketcan: %s: short write %d", s.iface, n)
	}
	return nil
}

// Close closes the socket.
func (s *Sender) Close() error {
	return unix.Close(s.fd)
}
