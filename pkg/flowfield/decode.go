// Package flowfield reconstructs span-averaged flowfields from solver binaries.
//
// The solver writes span averages rank by rank. Within a rank the records run
// over local x-planes, then y, and every record holds five values:
//
//	rho, u, v, w, energy
//
// For a 2x2 grid split over two ranks the file therefore reads
//
//	(0,0) rank 0, (0,1) rank 0, (1,0) rank 1, (1,1) rank 1
//
// and the global x index of a record is rank*(nx/ranks) + local x.
package flowfield

import (
	"fmt"

	"github.com/twinfer/streams-utils/pkg/ndarray"
	"github.com/twinfer/streams-utils/pkg/solver"
	"gonum.org/v1/gonum/mat"
)

// RecordSize is the number of values the solver writes per grid point.
const RecordSize = 5

// SpanAverage holds one span-averaged snapshot on the global x-y grid.
type SpanAverage struct {
	Rho      *mat.Dense     // nx × ny
	Velocity *ndarray.Array // 3 × nx × ny
	Energy   *mat.Dense     // nx × ny
}

// Decode scatters a rank-interleaved sample sequence onto the global grid.
func Decode(samples []float64, d solver.Decomposition) (*SpanAverage, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	nx, ny := d.XDivisions, d.YDivisions
	expected := nx * ny * RecordSize
	if len(samples) < expected {
		return nil, &ShortDataError{Expected: expected, Actual: len(samples)}
	}

	sa := &SpanAverage{
		Rho:      mat.NewDense(nx, ny, nil),
		Velocity: ndarray.New(3, nx, ny),
		Energy:   mat.NewDense(nx, ny, nil),
	}
	u, v, w := sa.Velocity.Matrix(0), sa.Velocity.Matrix(1), sa.Velocity.Matrix(2)

	localX := d.LocalX()
	pos := 0
	for rank := 0; rank < d.MPIXSplit; rank++ {
		for il := 0; il < localX; il++ {
			i := rank*localX + il
			for j := 0; j < ny; j++ {
				rec := samples[pos : pos+RecordSize]
				sa.Rho.Set(i, j, rec[0])
				u.Set(i, j, rec[1])
				v.Set(i, j, rec[2])
				w.Set(i, j, rec[3])
				sa.Energy.Set(i, j, rec[4])
				pos += RecordSize
			}
		}
	}

	if rest := len(samples) - pos; rest != 0 {
		return nil, &ExtraDataError{Remaining: rest}
	}

	return sa, nil
}

// Shape returns the global grid dimensions.
func (sa *SpanAverage) Shape() (nx, ny int) {
	return sa.Rho.Dims()
}

// Arrays returns the named arrays a sink stores for this snapshot.
func (sa *SpanAverage) Arrays() []ndarray.Named {
	return []ndarray.Named{
		{Name: "rho", Array: ndarray.FromDense(sa.Rho)},
		{Name: "velocity", Array: sa.Velocity},
		{Name: "energy", Array: ndarray.FromDense(sa.Energy)},
	}
}

// Encode lays a snapshot out the way the solver writes it.
func Encode(sa *SpanAverage, d solver.Decomposition) ([]float64, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	nx, ny := sa.Shape()
	switch {
	case nx != d.XDivisions:
		return nil, &solver.DecompositionError{
			Field:  "x_divisions",
			Value:  d.XDivisions,
			Reason: fmt.Sprintf("snapshot has %d x-planes", nx),
		}
	case ny != d.YDivisions:
		return nil, &solver.DecompositionError{
			Field:  "y_divisions",
			Value:  d.YDivisions,
			Reason: fmt.Sprintf("snapshot has %d y-points", ny),
		}
	}

	u, v, w := sa.Velocity.Matrix(0), sa.Velocity.Matrix(1), sa.Velocity.Matrix(2)
	out := make([]float64, 0, d.PlanePoints()*RecordSize)

	localX := d.LocalX()
	for rank := 0; rank < d.MPIXSplit; rank++ {
		for il := 0; il < localX; il++ {
			i := rank*localX + il
			for j := 0; j < d.YDivisions; j++ {
				out = append(out,
					sa.Rho.At(i, j),
					u.At(i, j),
					v.At(i, j),
					w.At(i, j),
					sa.Energy.At(i, j),
				)
			}
		}
	}

	return out, nil
}
