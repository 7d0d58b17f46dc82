package h5io

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/streams-utils/pkg/ndarray"
)

var signature = []byte("\x89HDF\r\n\x1a\n")

func TestSink(t *testing.T) {
	ctx := context.Background()

	t.Run("writes one file per object", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out", "nested")
		sink := NewSink(dir)

		rho := ndarray.New(2, 3)
		for i := range rho.Data() {
			rho.Data()[i] = float64(i)
		}
		velocity := ndarray.New(3, 2, 3)

		require.NoError(t, sink.Write(ctx, "span_average_00010", ndarray.Named{Name: "rho", Array: rho}, ndarray.Named{Name: "velocity", Array: velocity}))

		path := filepath.Join(dir, "span_average_00010.h5")
		assert.Equal(t, path, sink.Path("span_average_00010"))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Greater(t, len(data), len(signature))
		assert.True(t, bytes.HasPrefix(data, signature), "file should start with the HDF5 signature")
	})

	t.Run("no arrays", func(t *testing.T) {
		sink := NewSink(t.TempDir())
		err := sink.Write(ctx, "empty")
		require.Error(t, err)
		assert.True(t, Error.Has(err))
		assert.NoFileExists(t, sink.Path("empty"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		sink := NewSink(t.TempDir())
		err := sink.Write(cctx, "x", ndarray.Named{Name: "rho", Array: ndarray.New(1)})
		assert.ErrorIs(t, err, context.Canceled)
		assert.NoFileExists(t, sink.Path("x"))
	})

	t.Run("unwritable directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0o644))
		err := NewSink(filepath.Join(file, "sub")).Write(ctx, "x", ndarray.Named{Name: "rho", Array: ndarray.New(1)})
		assert.True(t, Error.Has(err))
	})
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sink := NewSink(dir)

	series := ndarray.New(3, 2, 2)
	for i := range series.Data() {
		series.Data()[i] = float64(i) + 0.5
	}
	rho := ndarray.New(2, 2)
	for i := range rho.Data() {
		rho.Data()[i] = -float64(i)
	}
	require.NoError(t, sink.Write(ctx, "span_averages",
		ndarray.Named{Name: "span_average", Array: series},
		ndarray.Named{Name: "rho", Array: rho},
	))

	src, err := Open(sink.Path("span_averages"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	t.Run("entries along the leading axis", func(t *testing.T) {
		ds, err := src.Dataset("span_average", 4)
		require.NoError(t, err)
		assert.Equal(t, "span_average", ds.Name())
		require.Equal(t, 3, ds.Len())
		for i := range 3 {
			got, err := ds.Read(i)
			require.NoError(t, err)
			assert.Equal(t, series.Slot(i), got, "entry %d", i)
		}
	})

	t.Run("second dataset", func(t *testing.T) {
		ds, err := src.Dataset("/rho", 2)
		require.NoError(t, err)
		require.Equal(t, 2, ds.Len())
		got, err := ds.Read(1)
		require.NoError(t, err)
		assert.Equal(t, []float64{-2, -3}, got)
	})

	t.Run("read copies", func(t *testing.T) {
		ds, err := src.Dataset("span_average", 4)
		require.NoError(t, err)
		got, err := ds.Read(0)
		require.NoError(t, err)
		got[0] = 99
		again, err := ds.Read(0)
		require.NoError(t, err)
		assert.Equal(t, 0.5, again[0])
	})

	t.Run("index out of range", func(t *testing.T) {
		ds, err := src.Dataset("span_average", 4)
		require.NoError(t, err)
		for _, i := range []int{-1, 3} {
			_, err := ds.Read(i)
			assert.True(t, Error.Has(err), "index %d", i)
		}
	})

	t.Run("entry size must divide the dataset", func(t *testing.T) {
		_, err := src.Dataset("span_average", 5)
		require.Error(t, err)
		assert.True(t, Error.Has(err))

		_, err = src.Dataset("span_average", 0)
		assert.True(t, Error.Has(err))
	})

	t.Run("missing dataset", func(t *testing.T) {
		_, err := src.Dataset("velocity", 4)
		require.Error(t, err)
		assert.ErrorContains(t, err, "velocity")
	})
}

func TestOpen(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "flowfields.h5"))
		require.Error(t, err)
		assert.True(t, Error.Has(err))
	})

	t.Run("not hdf5", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flowfields.h5")
		require.NoError(t, os.WriteFile(path, []byte("definitely not an hdf5 superblock"), 0o644))
		_, err := Open(path)
		assert.True(t, Error.Has(err))
	})

	t.Run("closed source", func(t *testing.T) {
		sink := NewSink(t.TempDir())
		require.NoError(t, sink.Write(context.Background(), "x", ndarray.Named{Name: "rho", Array: ndarray.New(2)}))
		src, err := Open(sink.Path("x"))
		require.NoError(t, err)
		require.NoError(t, src.Close())
		require.NoError(t, src.Close())

		_, err = src.Dataset("rho", 1)
		assert.ErrorContains(t, err, "closed")
	})
}
