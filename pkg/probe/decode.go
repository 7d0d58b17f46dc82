// Package probe decodes the solver's span probe files and groups them by
// probe location and timestep.
//
// A probe file holds three blocks, one per probe location, in the order
// viscous, log-law, freestream. Each block has one record per z-point and
// every record carries four channels, so within a block the value for
// channel c at z-point p sits at offset p*4+c. Decoded blocks are channel
// major: a 4 × nz matrix per location.
package probe

import (
	"errors"
	"fmt"

	"github.com/twinfer/streams-utils/pkg/f64stream"
	"gonum.org/v1/gonum/mat"
)

const (
	// Channels is the number of values recorded per z-point.
	Channels = 4
	// Blocks is the number of probe locations in a file.
	Blocks = 3
)

// BlockNames lists the probe locations in file order.
var BlockNames = [Blocks]string{"viscous", "log_law", "freestream"}

// ErrLengthMismatch is matched by every LengthMismatchError.
var ErrLengthMismatch = errors.New("probe length mismatch")

// LengthMismatchError reports a probe buffer whose length does not match
// 3 × 4 × nz.
type LengthMismatchError struct {
	Nz         int
	Expected   int
	Actual     int
	Difference int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("probe data length mismatch for nz=%d: expected %d values, got %d (difference %d)",
		e.Nz, e.Expected, e.Actual, e.Difference)
}

// Is reports whether target is ErrLengthMismatch.
func (e *LengthMismatchError) Is(target error) bool { return target == ErrLengthMismatch }

// File is one decoded probe file.
type File struct {
	Viscous    *mat.Dense // 4 × nz
	LogLaw     *mat.Dense // 4 × nz
	Freestream *mat.Dense // 4 × nz
}

// Expected returns the number of samples in a probe file with nz z-points.
func Expected(nz int) int {
	return Blocks * Channels * nz
}

func checkLength(n, nz int) error {
	if nz <= 0 {
		return fmt.Errorf("z_divisions must be positive, got %d", nz)
	}
	expected := Expected(nz)
	if n == expected {
		return nil
	}
	diff := n - expected
	if diff < 0 {
		diff = -diff
	}
	return &LengthMismatchError{Nz: nz, Expected: expected, Actual: n, Difference: diff}
}

// Decode splits a probe sample sequence into its three channel-major blocks.
func Decode(samples []float64, nz int) (*File, error) {
	if err := checkLength(len(samples), nz); err != nil {
		return nil, err
	}

	var dst [Blocks][]float64
	for b := range dst {
		dst[b] = make([]float64, Channels*nz)
	}
	decodeInto(samples, nz, dst)

	return &File{
		Viscous:    mat.NewDense(Channels, nz, dst[0]),
		LogLaw:     mat.NewDense(Channels, nz, dst[1]),
		Freestream: mat.NewDense(Channels, nz, dst[2]),
	}, nil
}

// decodeInto transposes each block of samples into dst, which must hold
// Blocks slices of Channels*nz values. The length of samples is checked by
// the caller.
func decodeInto(samples []float64, nz int, dst [Blocks][]float64) {
	block := Channels * nz
	for b := range Blocks {
		src := samples[b*block : (b+1)*block]
		out := dst[b]
		for p := range nz {
			for c := range Channels {
				out[c*nz+p] = src[p*Channels+c]
			}
		}
	}
}

// DecodeFile reads and decodes the probe file at path.
func DecodeFile(path string, nz int) (*File, error) {
	samples, err := f64stream.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(samples, nz)
	if err != nil {
		return nil, fmt.Errorf("decoding probe %s: %w", path, err)
	}
	return f, nil
}

// Locations returns the three location matrices in file order.
func (f *File) Locations() [Blocks]*mat.Dense {
	return [Blocks]*mat.Dense{f.Viscous, f.LogLaw, f.Freestream}
}

// Encode lays a decoded file back out in solver order.
func Encode(f *File) []float64 {
	_, nz := f.Viscous.Dims()
	out := make([]float64, 0, Expected(nz))
	for _, m := range f.Locations() {
		for p := range nz {
			for c := range Channels {
				out = append(out, m.At(c, p))
			}
		}
	}
	return out
}
