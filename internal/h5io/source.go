// Package h5io reads solver HDF5 output and writes converted arrays as HDF5
// files.
package h5io

import (
	"strings"
	"sync"

	"github.com/scigolib/hdf5"
	"github.com/zeebo/errs"
)

// Error is the class of all h5io errors.
var Error = errs.Class("h5io")

// Source is an HDF5 file opened for reading. Lookups are serialised, so a
// Source may be shared between goroutines.
type Source struct {
	mu   sync.Mutex
	path string
	file *hdf5.File
}

// Open opens the HDF5 file at path.
func Open(path string) (*Source, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, Error.New("open %s: %v", path, err)
	}
	return &Source{path: path, file: f}, nil
}

// Close releases the file.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return Error.Wrap(err)
}

// Dataset is a float64 dataset of a Source viewed as a series of entries
// along its leading dimension.
type Dataset struct {
	name  string
	entry int
	data  []float64
}

// Dataset loads the dataset called name. entry is the number of values one
// index of the leading dimension holds, e.g. 5*nx*ny*nz for a flowfield
// write; the dataset must hold a whole number of entries.
func (s *Source) Dataset(name string, entry int) (*Dataset, error) {
	if entry <= 0 {
		return nil, Error.New("%s: entry size must be positive, got %d", name, entry)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil, Error.New("%s is closed", s.path)
	}

	var found *hdf5.Dataset
	want := strings.TrimPrefix(name, "/")
	s.file.Walk(func(path string, obj hdf5.Object) {
		if ds, ok := obj.(*hdf5.Dataset); ok && found == nil && strings.TrimPrefix(path, "/") == want {
			found = ds
		}
	})
	if found == nil {
		return nil, Error.New("dataset %q missing from %s", name, s.path)
	}

	data, err := found.Read()
	if err != nil {
		return nil, Error.New("%s: reading %s: %v", s.path, name, err)
	}
	if len(data)%entry != 0 {
		return nil, Error.New("%s: %d values are not a whole number of %d-value entries", name, len(data), entry)
	}
	return &Dataset{name: name, entry: entry, data: data}, nil
}

// Name returns the dataset name.
func (d *Dataset) Name() string { return d.name }

// Len returns the extent of the leading dimension, e.g. the number of
// writes in a time series.
func (d *Dataset) Len() int {
	return len(d.data) / d.entry
}

// Read returns a copy of entry i of the leading dimension in row-major order.
func (d *Dataset) Read(i int) ([]float64, error) {
	if i < 0 || i >= d.Len() {
		return nil, Error.New("%s: index %d out of range [0,%d)", d.name, i, d.Len())
	}
	return append([]float64(nil), d.data[i*d.entry:(i+1)*d.entry]...), nil
}
