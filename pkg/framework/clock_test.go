package framework

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestElapsedWrapAround(t *testing.T) {
	require.Equal(t, uint32(500), Elapsed(500, 0))
	require.Equal(t, uint32(1000), Elapsed(999, math.MaxUint32-0))
	require.Equal(t, uint32(10), Elapsed(4, math.MaxUint32-5))
}

func TestTicker(t *testing.T) {
	var counter TickCounter
	ticker := NewTicker(&counter)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- ticker.Run(ctx) }()
	require.Eventually(t, func() bool {
		return counter.Ticks() >= 10
	}, time.Second, time.Millisecond)
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}
