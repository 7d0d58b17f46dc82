package mesh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/streams-utils/pkg/solver"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func TestRead(t *testing.T) {
	dir := t.TempDir()

	t.Run("skips ghost nodes", func(t *testing.T) {
		path := filepath.Join(dir, "x.dat")
		writeLines(t, path, "-0.3", "-0.2", "-0.1", "0.0", " 0.1 ", "0.2", "0.3", "0.4", "0.5")
		got, err := Read(path, 3, 4)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0.1, 0.2, 0.3}, got)
	})

	t.Run("scientific notation", func(t *testing.T) {
		path := filepath.Join(dir, "y.dat")
		writeLines(t, path, "1E-3", "2.5e+00", "  -3.0000000000000000E+00")
		got, err := Read(path, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, []float64{2.5, -3}, got)
	})

	t.Run("stops at the first non number", func(t *testing.T) {
		path := filepath.Join(dir, "z.dat")
		writeLines(t, path, "0", "1", "", "2", "3")
		_, err := Read(path, 0, 3)
		assert.ErrorContains(t, err, "has 2 coordinates")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Read(filepath.Join(dir, "nope.dat"), 3, 1)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	ghosts := []string{"-3", "-2", "-1"}
	writeLines(t, filepath.Join(dir, "x.dat"), append(ghosts, "0", "1", "2", "3")...)
	writeLines(t, filepath.Join(dir, "y.dat"), append(ghosts, "10", "11", "12")...)
	writeLines(t, filepath.Join(dir, "z.dat"), append(ghosts, "20", "21")...)

	d := solver.Decomposition{XDivisions: 4, YDivisions: 2, ZDivisions: 2, MPIXSplit: 2}
	info, err := Load(dir, d)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, info.X)
	assert.Equal(t, []float64{10, 11}, info.Y)
	assert.Equal(t, []float64{20, 21}, info.Z)

	planar := info.Arrays(true)
	require.Len(t, planar, 2)
	assert.Equal(t, "x", planar[0].Name)
	assert.Equal(t, []int{4}, planar[0].Array.Shape())
	assert.Len(t, info.Arrays(false), 3)

	t.Run("short axis", func(t *testing.T) {
		d.ZDivisions = 5
		_, err := Load(dir, d)
		assert.ErrorContains(t, err, "z.dat")
	})
}
