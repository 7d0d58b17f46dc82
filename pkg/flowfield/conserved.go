package flowfield

import (
	"fmt"

	"github.com/twinfer/streams-utils/pkg/ndarray"
)

// Conserved variable indices within a flowfield timestep.
const (
	conservedRho = iota
	conservedRhoU
	conservedRhoV
	conservedRhoW
	conservedEnergy
)

// Flowfield is one full 3-D snapshot in primitive variables.
type Flowfield struct {
	Rho      *ndarray.Array // nx × ny × nz
	Velocity *ndarray.Array // 3 × nx × ny × nz
	Energy   *ndarray.Array // nx × ny × nz
}

// FromConserved converts one timestep of conserved variables, laid out as
// (5, nx, ny, nz) = {rho, rho*u, rho*v, rho*w, rho*E}, into primitive fields.
// A zero density yields Inf or NaN in the affected cells.
func FromConserved(buf []float64, nx, ny, nz int) (*Flowfield, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("flowfield dimensions must be positive, got %dx%dx%d", nx, ny, nz)
	}

	cells := nx * ny * nz
	expected := RecordSize * cells
	switch {
	case len(buf) < expected:
		return nil, &ShortDataError{Expected: expected, Actual: len(buf)}
	case len(buf) > expected:
		return nil, &ExtraDataError{Remaining: len(buf) - expected}
	}

	ff := &Flowfield{
		Rho:      ndarray.New(nx, ny, nz),
		Velocity: ndarray.New(3, nx, ny, nz),
		Energy:   ndarray.New(nx, ny, nz),
	}

	plane := func(k int) []float64 { return buf[k*cells : (k+1)*cells] }
	rho := plane(conservedRho)
	copy(ff.Rho.Data(), rho)

	for c, k := range []int{conservedRhoU, conservedRhoV, conservedRhoW} {
		dst := ff.Velocity.Slot(c)
		for n, m := range plane(k) {
			dst[n] = m / rho[n]
		}
	}

	energy := ff.Energy.Data()
	for n, e := range plane(conservedEnergy) {
		energy[n] = e / rho[n]
	}

	return ff, nil
}

// Arrays returns the named arrays a sink stores for this snapshot.
func (ff *Flowfield) Arrays() []ndarray.Named {
	return []ndarray.Named{
		{Name: "rho", Array: ff.Rho},
		{Name: "velocity", Array: ff.Velocity},
		{Name: "energy", Array: ff.Energy},
	}
}
