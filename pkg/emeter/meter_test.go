package emeter

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/emeter.go/pkg/bus"
	"github.com/robotalks/emeter.go/pkg/framework"
	"github.com/robotalks/emeter.go/pkg/l0/line"
)

// pollReader returns what's buffered and never blocks.
type pollReader struct {
	bytes.Buffer
}

func (r *pollReader) Read(p []byte) (int, error) {
	if r.Len() == 0 {
		return 0, nil
	}
	return r.Buffer.Read(p)
}

func TestMeterScenario(t *testing.T) {
	var in pollReader
	var rec bus.Recorder
	var diag recordingDiag
	m := New(&in, &rec, 0).WithDiagnostics(&diag)

	in.WriteString("3.128\t42.12\t10.04\t15.32\t8.9132\n")
	for tick := uint32(1); tick < 500; tick++ {
		require.NoError(t, m.Poll(tick))
	}
	require.Equal(t, sampleTelemetry, m.Telemetry())
	require.Empty(t, rec.Frames())

	require.NoError(t, m.Poll(500))
	require.Equal(t, []bus.Frame{encode(t, LayoutEnergy, &sampleTelemetry)}, rec.Frames())

	in.WriteString("1\t2\t3\t4\t5\n")
	in.WriteString("1.0\t2.0\t3.0\n")
	for tick := uint32(501); tick <= 1000; tick++ {
		require.NoError(t, m.Poll(tick))
	}
	require.Equal(t, sampleTelemetry, m.Telemetry())
	require.Len(t, diag.rejected, 2)
	require.ErrorIs(t, diag.rejected[0], line.ErrDecodeFailure)
	require.ErrorIs(t, diag.rejected[1], line.ErrFieldCountMismatch)
	require.Equal(t, []bus.Frame{
		encode(t, LayoutEnergy, &sampleTelemetry),
		encode(t, LayoutPower, &sampleTelemetry),
	}, rec.Frames())
	require.Len(t, diag.sent, 2)
}

func TestMeterOverflowRecovery(t *testing.T) {
	var rec bus.Recorder
	var diag recordingDiag
	m := New(&pollReader{}, &rec, 0).WithDiagnostics(&diag)
	m.Feed(bytes.Repeat([]byte{'9'}, line.LineBufferSize+1))
	m.Feed([]byte("\n3.128\t42.12\t10.04\t15.32\t8.9132\r\n"))
	require.Equal(t, sampleTelemetry, m.Telemetry())
	// overflow and the empty line after CR
	require.Len(t, diag.rejected, 2)
	require.ErrorIs(t, diag.rejected[0], line.ErrBufferOverflow)
	require.ErrorIs(t, diag.rejected[1], line.ErrTooShort)
}

func TestMeterObservers(t *testing.T) {
	var updates []Telemetry
	m := New(&pollReader{}, &bus.Recorder{}, 0).
		WithDiagnostics(&recordingDiag{}).
		WithPolicy(CommitAtomic).
		WithObservers(ObserverFunc(func(tm Telemetry) { updates = append(updates, tm) }))
	m.Feed([]byte("3.128\t42.12\t10.04\t15.32\t8.9132\n"))
	m.Feed([]byte("3.128\t42.12\t10.04\t15.32\t8.9132\n"))
	m.Feed([]byte("4.0\t42.12\t10.04\t15.32\tx\n"))
	require.Equal(t, []Telemetry{sampleTelemetry}, updates)
}

func TestMeterMapping(t *testing.T) {
	var in pollReader
	var rec bus.Recorder
	m := New(&in, &rec, 0).WithDiagnostics(&recordingDiag{}).WithMapping(Mappings["motion"])
	m.Feed([]byte("3.128\t42.12\t10.04\t15.32\t8.9132\n"))
	require.Equal(t, SlotHalf, m.Actuate(500))
	require.Equal(t, []bus.Frame{encode(t, LayoutMotion, &sampleTelemetry)}, rec.Frames())
}

func TestMeterInvalidMapping(t *testing.T) {
	var rec bus.Recorder
	var diag recordingDiag
	m := New(&pollReader{}, &rec, 0).
		WithDiagnostics(&diag).
		WithMapping(Mapping{Full: wideLayout, Half: LayoutEnergy})
	m.Feed([]byte("3.128\t42.12\t10.04\t15.32\t8.9132\n"))

	require.Equal(t, SlotHalf, m.Actuate(500))
	require.Equal(t, SlotFull, m.Actuate(1000))
	require.Equal(t, SlotHalf, m.Actuate(1500))
	require.Len(t, diag.failed, 3)
	require.NoError(t, diag.failed[0])
	require.ErrorIs(t, diag.failed[1], bus.ErrInvalidLen)
	require.Equal(t, uint32(0x703), diag.sent[1].ID)
	require.NoError(t, diag.failed[2])
	require.Equal(t, []bus.Frame{
		encode(t, LayoutEnergy, &sampleTelemetry),
		encode(t, LayoutEnergy, &sampleTelemetry),
	}, rec.Frames())
}

func TestMeterInLoop(t *testing.T) {
	var clock framework.TickCounter
	var in pollReader
	var rec bus.Recorder
	m := New(&in, &rec, clock.Ticks()).WithDiagnostics(&recordingDiag{})
	loop := framework.NewLoop(&clock).Add(m)

	// one chunk per iteration
	in.WriteString("3.128\t42.12\t10.04\t15.32\t8.9132\n")
	for i := 0; i < 3; i++ {
		loop.RunIteration(context.TODO())
		require.Equal(t, Telemetry{}, m.Telemetry())
	}
	loop.RunIteration(context.TODO())
	require.Equal(t, sampleTelemetry, m.Telemetry())
	require.Empty(t, rec.Frames())

	clock.Set(500)
	loop.RunIteration(context.TODO())
	clock.Set(1000)
	loop.RunIteration(context.TODO())
	require.Equal(t, uint32(1000), m.Scheduler().Baseline())
	require.Equal(t, []bus.Frame{
		encode(t, LayoutEnergy, &sampleTelemetry),
		encode(t, LayoutPower, &sampleTelemetry),
	}, rec.Frames())
}

func TestMeterDrainsInputBetweenTicks(t *testing.T) {
	var clock framework.TickCounter
	in := &pollReader{}
	in.WriteString("3.128\t42.12\t10.04\t15.32\t8.9132\n")
	updateCh := make(chan Telemetry, 1)
	m := New(in, &bus.Recorder{}, clock.Ticks()).
		WithDiagnostics(&recordingDiag{}).
		WithObservers(ObserverFunc(func(tm Telemetry) { updateCh <- tm }))
	loop := framework.NewLoop(&clock).Add(m)
	loop.Interval = time.Hour
	loop.TriggerNext()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	select {
	case tm := <-updateCh:
		require.Equal(t, sampleTelemetry, tm)
	case <-time.After(time.Second):
		t.Fatal("input not drained")
	}
}

func TestMeterInputError(t *testing.T) {
	m := New(&errReader{}, &bus.Recorder{}, 0).WithDiagnostics(&recordingDiag{})
	require.Equal(t, io.ErrClosedPipe, m.Poll(1))
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}
