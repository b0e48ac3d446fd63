package slcan

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/emeter.go/pkg/bus"
)

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Close() error {
	b.closed = true
	return nil
}

func TestEncode(t *testing.T) {
	f, err := bus.NewFrame(0x700, []byte{0xa8, 0xa4, 0, 0, 0x38, 0x27, 0, 0})
	require.NoError(t, err)
	require.Equal(t, "t7008A8A4000038270000\r", string(Encode(f)))

	f, err = bus.NewFrame(0x02, nil)
	require.NoError(t, err)
	require.Equal(t, "t0020\r", string(Encode(f)))
}

func TestSender(t *testing.T) {
	var out bufCloser
	s, err := New(&out, bus.BitRate)
	require.NoError(t, err)
	require.Equal(t, "C\rS4\rO\r", out.String())
	out.Reset()

	f, _ := bus.NewFrame(0x702, []byte{0x38, 0x0c, 0, 0})
	require.NoError(t, s.Send(f))
	require.Equal(t, "t7024380C0000\r", out.String())

	require.Equal(t, bus.ErrInvalidID, s.Send(bus.Frame{ID: 0x1000}))

	out.Reset()
	require.NoError(t, s.Close())
	require.Equal(t, "C\r", out.String())
	require.True(t, out.closed)
}

func TestUnsupportedBitRate(t *testing.T) {
	_, err := New(&bufCloser{}, 33333)
	require.Error(t, err)
}
