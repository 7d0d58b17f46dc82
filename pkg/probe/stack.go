package probe

import (
	"context"
	"fmt"

	"github.com/twinfer/streams-utils/internal/fanout"
	"github.com/twinfer/streams-utils/pkg/f64stream"
	"github.com/twinfer/streams-utils/pkg/ndarray"
)

// TimeSeries stacks decoded probe files along a leading file axis.
// Each array has shape (n, 4, nz) and slot i holds the i-th input.
type TimeSeries struct {
	Viscous    *ndarray.Array
	LogLaw     *ndarray.Array
	Freestream *ndarray.Array
}

func newTimeSeries(n, nz int) *TimeSeries {
	return &TimeSeries{
		Viscous:    ndarray.New(n, Channels, nz),
		LogLaw:     ndarray.New(n, Channels, nz),
		Freestream: ndarray.New(n, Channels, nz),
	}
}

// Len returns the number of stacked files.
func (ts *TimeSeries) Len() int {
	return ts.Viscous.Shape()[0]
}

// slots returns the disjoint destination for file i.
func (ts *TimeSeries) slots(i int) [Blocks][]float64 {
	return [Blocks][]float64{ts.Viscous.Slot(i), ts.LogLaw.Slot(i), ts.Freestream.Slot(i)}
}

// File returns a view of the i-th stacked file. The view shares storage.
func (ts *TimeSeries) File(i int) *File {
	return &File{
		Viscous:    ts.Viscous.Matrix(i),
		LogLaw:     ts.LogLaw.Matrix(i),
		Freestream: ts.Freestream.Matrix(i),
	}
}

// Arrays returns the named arrays a sink stores for this series.
func (ts *TimeSeries) Arrays() []ndarray.Named {
	return []ndarray.Named{
		{Name: BlockNames[0], Array: ts.Viscous},
		{Name: BlockNames[1], Array: ts.LogLaw},
		{Name: BlockNames[2], Array: ts.Freestream},
	}
}

// Stack decodes the probe files at paths concurrently and stacks them in
// input order. Any failure aborts the whole stack and no partial series is
// returned. workers <= 0 uses one worker per CPU.
func Stack(ctx context.Context, paths []string, nz, workers int) (*TimeSeries, error) {
	return stack(ctx, len(paths), nz, workers, func(i int) ([]float64, error) {
		return f64stream.ReadFile(paths[i])
	}, func(i int) string { return paths[i] })
}

// StackBytes is Stack over in-memory probe files.
func StackBytes(ctx context.Context, buffers [][]byte, nz, workers int) (*TimeSeries, error) {
	return stack(ctx, len(buffers), nz, workers, func(i int) ([]float64, error) {
		return f64stream.Decode(buffers[i])
	}, func(i int) string { return fmt.Sprintf("buffer %d", i) })
}

func stack(ctx context.Context, n, nz, workers int, load func(int) ([]float64, error), name func(int) string) (*TimeSeries, error) {
	if nz <= 0 {
		return nil, fmt.Errorf("z_divisions must be positive, got %d", nz)
	}

	ts := newTimeSeries(n, nz)
	err := fanout.Each(ctx, n, workers, func(_ context.Context, i int) error {
		samples, err := load(i)
		if err != nil {
			return err
		}
		if err := checkLength(len(samples), nz); err != nil {
			return fmt.Errorf("decoding probe %s: %w", name(i), err)
		}
		decodeInto(samples, nz, ts.slots(i))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ts, nil
}
