package fanout

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkers(t *testing.T) {
	assert.Equal(t, runtime.NumCPU(), Workers(0))
	assert.Equal(t, runtime.NumCPU(), Workers(-3))
	assert.Equal(t, 5, Workers(5))
}

func TestEach_WritesEverySlot(t *testing.T) {
	out := make([]int, 100)
	err := Each(context.Background(), len(out), 4, func(_ context.Context, i int) error {
		out[i] = i * i
		return nil
	})
	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestEach_RespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	err := Each(context.Background(), 50, 3, func(_ context.Context, _ int) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		runtime.Gosched()
		running.Add(-1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestEach_FirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	err := Each(context.Background(), 20, 1, func(_ context.Context, i int) error {
		if i == 5 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestEach_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := Each(ctx, 10, 2, func(_ context.Context, _ int) error {
		calls.Add(1)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestEach_Empty(t *testing.T) {
	err := Each(context.Background(), 0, 0, func(_ context.Context, _ int) error {
		t.Fatal("must not be called")
		return nil
	})
	assert.NoError(t, err)
}
