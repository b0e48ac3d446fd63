// Package bus provides the CAN frame model and the transmit abstraction
// used to emit frames on the vehicle bus.
package bus

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// BitRate is the bus bit rate in bit/s.
const BitRate = 125000

// MaxDataLen is the max payload length of a classical CAN frame.
const MaxDataLen = 8

// MaxID is the largest 11-bit identifier.
const MaxID = 0x7ff

var (
	// ErrInvalidID indicates the identifier doesn't fit in 11 bits.
	ErrInvalidID = errors.New("invalid frame identifier")
	// ErrInvalidLen indicates the payload is longer than MaxDataLen.
	ErrInvalidLen = errors.New("invalid frame length")
)

// Frame is a classical CAN data frame with a standard identifier.
type Frame struct {
	ID   uint32
	Len  uint8
	Data [MaxDataLen]byte
}

// NewFrame creates a Frame and validates it.
func NewFrame(id uint32, data []byte) (f Frame, err error) {
	if len(data) > MaxDataLen {
		return f, ErrInvalidLen
	}
	f.ID, f.Len = id, uint8(len(data))
	copy(f.Data[:], data)
	return f, f.Validate()
}

// Validate returns an error if the frame is not valid.
func (f Frame) Validate() error {
	if f.ID > MaxID {
		return ErrInvalidID
	}
	if f.Len > MaxDataLen {
		return ErrInvalidLen
	}
	return nil
}

// Payload returns the data bytes in use.
func (f Frame) Payload() []byte {
	return f.Data[:f.Len]
}

// String formats the frame the way candump does, e.g. 700#0102.
func (f Frame) String() string {
	return fmt.Sprintf("%03X#%s", f.ID, strings.ToUpper(hex.EncodeToString(f.Payload())))
}

// MarshalBinary encodes the frame in Linux SocketCAN struct can_frame
// layout (16 bytes, little-endian identifier).
func (f Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], f.ID)
	buf[4] = f.Len
	copy(buf[8:], f.Data[:])
	return buf, nil
}
