// Package solver describes the grid and MPI decomposition of a solver run.
package solver

import (
	"errors"
	"fmt"
)

// ErrInvalidDecomposition is matched by every DecompositionError.
var ErrInvalidDecomposition = errors.New("invalid decomposition")

// DecompositionError reports decomposition parameters that cannot describe a solver layout.
type DecompositionError struct {
	Field  string
	Value  int
	Reason string
}

func (e *DecompositionError) Error() string {
	return fmt.Sprintf("invalid decomposition: %s = %d: %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrInvalidDecomposition.
func (e *DecompositionError) Is(target error) bool {
	return target == ErrInvalidDecomposition
}

// Decomposition holds the grid resolution and the MPI split along x.
//
// Each of the MPIXSplit ranks owns a contiguous slab of XDivisions/MPIXSplit
// x-planes, and writes that slab without any header, directly after the
// previous rank's data.
type Decomposition struct {
	XDivisions int `json:"x_divisions" yaml:"x_divisions"`
	YDivisions int `json:"y_divisions" yaml:"y_divisions"`
	ZDivisions int `json:"z_divisions" yaml:"z_divisions"`
	MPIXSplit  int `json:"mpi_x_split" yaml:"mpi_x_split"`
}

// Validate checks that every division is positive and that x splits evenly across ranks.
func (d Decomposition) Validate() error {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"x_divisions", d.XDivisions},
		{"y_divisions", d.YDivisions},
		{"z_divisions", d.ZDivisions},
		{"mpi_x_split", d.MPIXSplit},
	} {
		if f.value <= 0 {
			return &DecompositionError{Field: f.name, Value: f.value, Reason: "must be positive"}
		}
	}

	if rem := d.XDivisions % d.MPIXSplit; rem != 0 {
		return &DecompositionError{
			Field:  "mpi_x_split",
			Value:  d.MPIXSplit,
			Reason: fmt.Sprintf("x_divisions %d is not divisible (remainder %d)", d.XDivisions, rem),
		}
	}

	return nil
}

// LocalX returns the number of x-planes owned by each rank.
func (d Decomposition) LocalX() int {
	return d.XDivisions / d.MPIXSplit
}

// PlanePoints returns the number of points in one x-y plane.
func (d Decomposition) PlanePoints() int {
	return d.XDivisions * d.YDivisions
}
