package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/emeter.go/pkg/bus"
	"github.com/robotalks/emeter.go/pkg/emeter"
	"github.com/robotalks/emeter.go/pkg/l0/line"
)

func TestSummary(t *testing.T) {
	var c emeter.Counters
	c.LineRejected(line.ErrBufferOverflow)
	c.LineRejected(line.ErrBufferOverflow)
	c.LineRejected(line.ErrTooShort)
	c.FrameSent(bus.Frame{ID: 0x700}, nil)
	c.FrameSent(bus.Frame{ID: 0x702}, errors.New("bus off"))
	require.Equal(t, "1 lines rejected, 2 buffer overflows, 1 frames sent, 1 transmit failures", Summary(&c))
}
