package probe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/streams-utils/pkg/f64stream"
	"github.com/twinfer/streams-utils/testutil"
)

// sample is the value the solver would write for block b, z-point p, channel c.
func sample(b, p, c int) float64 {
	return float64(b*1000 + p*10 + c)
}

func solverOrder(nz int) []float64 {
	out := make([]float64, 0, Expected(nz))
	for b := range Blocks {
		for p := range nz {
			for c := range Channels {
				out = append(out, sample(b, p, c))
			}
		}
	}
	return out
}

func writeProbe(t *testing.T, dir, name string, samples []float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, f64stream.Encode(samples), 0o644))
	return path
}

func TestDecode(t *testing.T) {
	t.Run("channel major blocks", func(t *testing.T) {
		const nz = 5
		f, err := Decode(solverOrder(nz), nz)
		require.NoError(t, err)

		for b, m := range f.Locations() {
			r, c := m.Dims()
			require.Equal(t, Channels, r)
			require.Equal(t, nz, c)
			for ch := range Channels {
				for p := range nz {
					assert.Equal(t, sample(b, p, ch), m.At(ch, p), "block %s [%d][%d]", BlockNames[b], ch, p)
				}
			}
		}
	})

	t.Run("flat offset p*4+c within a block", func(t *testing.T) {
		const nz = 2
		flat := testutil.Seq(0, 1, Expected(nz))
		f, err := Decode(flat, nz)
		require.NoError(t, err)

		assert.Equal(t, [][]float64{{0, 4}, {1, 5}, {2, 6}, {3, 7}}, testutil.DenseRows(f.Viscous))
		assert.Equal(t, [][]float64{{8, 12}, {9, 13}, {10, 14}, {11, 15}}, testutil.DenseRows(f.LogLaw))
		assert.Equal(t, [][]float64{{16, 20}, {17, 21}, {18, 22}, {19, 23}}, testutil.DenseRows(f.Freestream))
	})

	tests := []struct {
		name     string
		length   int
		expected int
		diff     int
	}{
		{"short by one", 35, 36, 1},
		{"short by five", 31, 36, 5},
		{"long by two", 38, 36, 2},
		{"empty", 0, 36, 36},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(make([]float64, tt.length), 3)
			require.ErrorIs(t, err, ErrLengthMismatch)

			var mismatch *LengthMismatchError
			require.True(t, errors.As(err, &mismatch))
			assert.Equal(t, LengthMismatchError{Nz: 3, Expected: tt.expected, Actual: tt.length, Difference: tt.diff}, *mismatch)
		})
	}

	t.Run("non-positive nz", func(t *testing.T) {
		_, err := Decode(nil, 0)
		assert.Error(t, err)
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	const nz = 7
	flat := testutil.Seq(-3, 0.125, Expected(nz))
	f, err := Decode(flat, nz)
	require.NoError(t, err)
	assert.Equal(t, flat, Encode(f))

	again, err := Decode(Encode(f), nz)
	require.NoError(t, err)
	assert.Equal(t, testutil.DenseRows(f.Freestream), testutil.DenseRows(again.Freestream))
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := writeProbe(t, dir, "span_probe_2_00010.binary", solverOrder(4))
		f, err := DecodeFile(path, 4)
		require.NoError(t, err)
		assert.Equal(t, sample(2, 3, 1), f.Freestream.At(1, 3))
	})

	t.Run("wrong length names the file", func(t *testing.T) {
		path := writeProbe(t, dir, "span_probe_1_00001.binary", solverOrder(4))
		_, err := DecodeFile(path, 5)
		require.ErrorIs(t, err, ErrLengthMismatch)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("truncated bytes", func(t *testing.T) {
		path := filepath.Join(dir, "span_probe_1_00002.binary")
		require.NoError(t, os.WriteFile(path, make([]byte, 13), 0o644))
		_, err := DecodeFile(path, 1)
		assert.ErrorIs(t, err, f64stream.ErrTruncatedBuffer)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := DecodeFile(filepath.Join(dir, "nope.binary"), 1)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
