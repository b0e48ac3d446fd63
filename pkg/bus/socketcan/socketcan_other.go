//go:build !linux

// Package socketcan sends frames through Linux raw CAN sockets.
package socketcan

import (
	"errors"

	"github.com/robotalks/emeter.go/pkg/bus"
)

// ErrUnsupported indicates SocketCAN is not available on this platform.
var ErrUnsupported = errors.New("socketcan: only supported on linux")

// Sender implements bus.Sender on a raw CAN socket.
type Sender struct{}

// Dial always fails on this platform.
func Dial(iface string) (*Sender, error) {
	return nil, ErrUnsupported
}

// Send implements bus.Sender.
func (s *Sender) Send(f bus.Frame) error {
	return ErrUnsupported
}

// Close implements io.Closer.
func (s *Sender) Close() error {
	return nil
}
