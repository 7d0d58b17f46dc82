// Package mesh reads the grid coordinate files the solver writes next to its
// results (x.dat, y.dat, z.dat).
package mesh

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/twinfer/streams-utils/pkg/ndarray"
	"github.com/twinfer/streams-utils/pkg/solver"
)

// GhostNodes is the number of halo points the solver writes before the first
// interior coordinate of every axis.
const GhostNodes = 3

// Info holds the interior coordinates of each axis.
type Info struct {
	X []float64
	Y []float64
	Z []float64
}

// Read returns n coordinates from path after skipping ghost leading values.
// The file holds one value per line; reading stops at the first line that is
// not a number.
func Read(path string, ghost, n int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh: %w", err)
	}
	defer f.Close()

	out := make([]float64, 0, n)
	seen := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() && len(out) < n {
		v, err := strconv.ParseFloat(strings.TrimSpace(sc.Text()), 64)
		if err != nil {
			break
		}
		if seen++; seen > ghost {
			out = append(out, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading mesh %s: %w", path, err)
	}
	if len(out) < n {
		return nil, fmt.Errorf("mesh %s has %d coordinates after %d ghost nodes, need %d", path, len(out), ghost, n)
	}

	return out, nil
}

// Load reads x.dat, y.dat and z.dat from dir for the given grid.
func Load(dir string, d solver.Decomposition) (*Info, error) {
	var info Info
	for _, axis := range []struct {
		file string
		n    int
		dst  *[]float64
	}{
		{"x.dat", d.XDivisions, &info.X},
		{"y.dat", d.YDivisions, &info.Y},
		{"z.dat", d.ZDivisions, &info.Z},
	} {
		v, err := Read(filepath.Join(dir, axis.file), GhostNodes, axis.n)
		if err != nil {
			return nil, err
		}
		*axis.dst = v
	}
	return &info, nil
}

// Arrays returns the coordinates as named 1-D arrays. When planar is set the
// z axis is left out, as span averages have no z extent.
func (m *Info) Arrays(planar bool) []ndarray.Named {
	out := []ndarray.Named{
		{Name: "x", Array: vector(m.X)},
		{Name: "y", Array: vector(m.Y)},
	}
	if !planar {
		out = append(out, ndarray.Named{Name: "z", Array: vector(m.Z)})
	}
	return out
}

func vector(v []float64) *ndarray.Array {
	a, err := ndarray.FromSlice(v, len(v))
	if err != nil {
		// a 1-D shape always matches its own length
		panic(err)
	}
	return a
}
