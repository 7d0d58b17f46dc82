package solver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompositionValidate(t *testing.T) {
	tests := []struct {
		name    string
		decomp  Decomposition
		field   string
		wantErr bool
	}{
		{"valid", Decomposition{800, 208, 150, 4}, "", false},
		{"single rank", Decomposition{7, 3, 1, 1}, "", false},
		{"zero x", Decomposition{0, 208, 150, 4}, "x_divisions", true},
		{"negative y", Decomposition{800, -1, 150, 4}, "y_divisions", true},
		{"zero z", Decomposition{800, 208, 0, 4}, "z_divisions", true},
		{"zero split", Decomposition{800, 208, 150, 0}, "mpi_x_split", true},
		{"uneven split", Decomposition{10, 2, 2, 3}, "mpi_x_split", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decomp.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidDecomposition)
			var de *DecompositionError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestDecompositionUnevenReportsRemainder(t *testing.T) {
	err := Decomposition{10, 2, 2, 3}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remainder 1")
}

func TestLocalX(t *testing.T) {
	d := Decomposition{XDivisions: 800, YDivisions: 208, ZDivisions: 150, MPIXSplit: 4}
	assert.Equal(t, 200, d.LocalX())
	assert.Equal(t, 800*208, d.PlanePoints())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "input.json")
		content := `{
  "flow_type": "ShockBoundaryLayer",
  "reynolds_number": 250.0,
  "mach_number": 2.28,
  "x_divisions": 800,
  "y_divisions": 208,
  "z_divisions": 150,
  "mpi_x_split": 4,
  "probe_io_steps": 10,
  "snapshots_3d": true
}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "ShockBoundaryLayer", cfg.FlowType)
		assert.Equal(t, 2.28, cfg.MachNumber)
		assert.Equal(t, 10, cfg.ProbeIOSteps)
		assert.True(t, cfg.Snapshots3D)
		assert.Equal(t, Decomposition{800, 208, 150, 4}, cfg.Decomposition)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "input.yaml")
		content := "x_divisions: 8\ny_divisions: 4\nz_divisions: 2\nmpi_x_split: 2\nsteps: 500\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 500, cfg.Steps)
		assert.Equal(t, 4, cfg.LocalX())
	})

	t.Run("uneven split rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yml")
		content := "x_divisions: 9\ny_divisions: 4\nz_divisions: 2\nmpi_x_split: 2\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidDecomposition)
	})

	t.Run("wrong extension", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "input.dat"))
		assert.ErrorContains(t, err, "must be .json")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"x_divisions": [`), 0644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "parsing config")
	})
}
