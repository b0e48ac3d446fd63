package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopIterationOrder(t *testing.T) {
	var clock TickCounter
	clock.Set(42)
	loop := NewLoop(&clock)
	var order []int
	record := func(tag int) Controller {
		return ControlFunc(func(cc ControlContext) error {
			require.Equal(t, uint32(42), cc.Ticks())
			order = append(order, tag*100+cc.PriorityLevel())
			return nil
		})
	}
	loop.AddController(PrLvActuate, record(3)).
		AddController(PrLvSense, record(1)).
		AddController(PrLvControl, record(2), ControlFunc(func(ControlContext) error {
			return errors.New("ignored")
		}))
	loop.RunIteration(context.TODO())
	require.Equal(t, []int{100 + PrLvSense, 200 + PrLvControl, 300 + PrLvActuate}, order)
}

type failingRunnable struct {
	err error
}

func (r *failingRunnable) Run(ctx context.Context) error {
	return r.err
}

func TestLoopStopsOnRunnableFailure(t *testing.T) {
	var clock TickCounter
	loop := NewLoop(&clock)
	failure := errors.New("port closed")
	loop.AddRunnable(&failingRunnable{err: failure})
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(context.Background()) }()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, failure)
	case <-time.After(time.Second):
		t.Fatal("loop didn't stop")
	}
}

func TestLoopCancel(t *testing.T) {
	var clock TickCounter
	loop := NewLoop(&clock)
	iterations := make(chan struct{}, 1)
	loop.AddController(PrLvNormal, ControlFunc(func(ControlContext) error {
		select {
		case iterations <- struct{}{}:
		default:
		}
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	select {
	case <-iterations:
	case <-time.After(time.Second):
		t.Fatal("no iteration")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestLoopTriggerNext(t *testing.T) {
	var clock TickCounter
	loop := NewLoop(&clock)
	loop.Interval = time.Hour
	count := 0
	doneCh := make(chan int, 1)
	loop.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		count++
		if count < 3 {
			cc.TriggerNext()
		} else {
			doneCh <- count
		}
		return nil
	}))
	loop.TriggerNext()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	select {
	case n := <-doneCh:
		require.Equal(t, 3, n)
	case <-time.After(time.Second):
		t.Fatal("iterations not triggered")
	}
}
