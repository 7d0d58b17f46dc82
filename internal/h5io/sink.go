package h5io

import (
	"context"
	"os"
	"path/filepath"

	"github.com/scigolib/hdf5"
	"github.com/zeebo/errs"

	"github.com/twinfer/streams-utils/pkg/ndarray"
)

// Extension is appended to every object name the sink writes.
const Extension = ".h5"

// Sink writes each object as <dir>/<name>.h5 with one float64 dataset per
// named array.
type Sink struct {
	dir string
}

// NewSink returns a sink writing into dir. The directory is created on the
// first write.
func NewSink(dir string) *Sink {
	return &Sink{dir: dir}
}

// Path returns the file an object named name is written to.
func (s *Sink) Path(name string) string {
	return filepath.Join(s.dir, name+Extension)
}

// Write stores arrays as the object name. A failed write removes the file so
// no partial object is left behind.
func (s *Sink) Write(ctx context.Context, name string, arrays ...ndarray.Named) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(arrays) == 0 {
		return Error.New("%s: no arrays to write", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Error.Wrap(err)
	}

	path := s.Path(name)
	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	if err != nil {
		return Error.New("create %s: %v", path, err)
	}
	defer func() {
		err = errs.Combine(err, Error.Wrap(fw.Close()))
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	for _, a := range arrays {
		if err := ctx.Err(); err != nil {
			return err
		}

		shape := a.Array.Shape()
		dims := make([]uint64, len(shape))
		for i, d := range shape {
			dims[i] = uint64(d)
		}

		ds, err := fw.CreateDataset("/"+a.Name, hdf5.Float64, dims)
		if err != nil {
			return Error.New("%s: dataset %s: %v", path, a.Name, err)
		}
		if err := ds.Write(a.Array.Data()); err != nil {
			return Error.New("%s: writing %s: %v", path, a.Name, err)
		}
	}

	return nil
}
