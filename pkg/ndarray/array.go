// Package ndarray provides dense, row-major float64 arrays of any rank.
//
// Arrays are backed by a single flat slice. Slot hands out the disjoint
// sub-slice belonging to one index of the leading axis, which is what lets
// concurrent decoders fill a pre-allocated stack without synchronisation:
// each worker owns exactly one slot.
package ndarray

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Array is a dense row-major N-dimensional array.
type Array struct {
	shape   []int
	strides []int
	data    []float64
}

// Named pairs an array with the name a sink stores it under.
type Named struct {
	Name  string
	Array *Array
}

// New allocates a zeroed array with the given shape.
func New(shape ...int) *Array {
	n, err := volume(shape)
	if err != nil {
		panic(err)
	}
	return &Array{
		shape:   append([]int(nil), shape...),
		strides: strides(shape),
		data:    make([]float64, n),
	}
}

// FromSlice wraps data without copying. len(data) must equal the product of shape.
func FromSlice(data []float64, shape ...int) (*Array, error) {
	n, err := volume(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("ndarray: %d values cannot fill shape %v (needs %d)", len(data), shape, n)
	}
	return &Array{
		shape:   append([]int(nil), shape...),
		strides: strides(shape),
		data:    data,
	}, nil
}

// FromDense wraps the storage of a gonum matrix as a 2-D array.
func FromDense(m *mat.Dense) *Array {
	raw := m.RawMatrix()
	if raw.Stride == raw.Cols {
		return &Array{
			shape:   []int{raw.Rows, raw.Cols},
			strides: []int{raw.Cols, 1},
			data:    raw.Data[:raw.Rows*raw.Cols],
		}
	}

	// views with padding between rows are compacted
	a := New(raw.Rows, raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		copy(a.data[i*raw.Cols:(i+1)*raw.Cols], raw.Data[i*raw.Stride:i*raw.Stride+raw.Cols])
	}
	return a
}

func volume(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("ndarray: empty shape")
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("ndarray: negative dimension in shape %v", shape)
		}
		n *= d
	}
	return n, nil
}

func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// Shape returns a copy of the array's dimensions.
func (a *Array) Shape() []int {
	return append([]int(nil), a.shape...)
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.shape) }

// Len returns the total number of elements.
func (a *Array) Len() int { return len(a.data) }

// Data returns the flat row-major backing slice.
func (a *Array) Data() []float64 { return a.data }

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("ndarray: %d indices for rank %d array", len(idx), len(a.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			panic(fmt.Sprintf("ndarray: index %v out of range for shape %v", idx, a.shape))
		}
		off += v * a.strides[i]
	}
	return off
}

// At returns the element at idx.
func (a *Array) At(idx ...int) float64 {
	return a.data[a.offset(idx)]
}

// Set stores v at idx.
func (a *Array) Set(v float64, idx ...int) {
	a.data[a.offset(idx)] = v
}

// Slot returns the contiguous sub-slice for index i of the leading axis.
// Slots for different i never overlap.
func (a *Array) Slot(i int) []float64 {
	if i < 0 || i >= a.shape[0] {
		panic(fmt.Sprintf("ndarray: slot %d out of range for leading dimension %d", i, a.shape[0]))
	}
	n := a.strides[0]
	return a.data[i*n : (i+1)*n : (i+1)*n]
}

// Sub returns the rank-1-lower array for index i of the leading axis, sharing storage.
func (a *Array) Sub(i int) *Array {
	if len(a.shape) < 2 {
		panic("ndarray: Sub on a rank 1 array")
	}
	return &Array{
		shape:   append([]int(nil), a.shape[1:]...),
		strides: append([]int(nil), a.strides[1:]...),
		data:    a.Slot(i),
	}
}

// Matrix returns a gonum view over the last two axes at the given leading
// indices. The view shares storage with the array.
func (a *Array) Matrix(lead ...int) *mat.Dense {
	if len(lead) != len(a.shape)-2 {
		panic(fmt.Sprintf("ndarray: Matrix needs %d leading indices for shape %v", len(a.shape)-2, a.shape))
	}
	sub := a
	for _, i := range lead {
		sub = sub.Sub(i)
	}
	return mat.NewDense(sub.shape[0], sub.shape[1], sub.data)
}

// Nested converts the array into nested slices ([]float64, [][]float64, ...),
// the shape structured encoders such as JSON expect.
func (a *Array) Nested() any {
	return nest(a.shape, a.data)
}

func nest(shape []int, data []float64) any {
	if len(shape) == 1 {
		return append([]float64(nil), data...)
	}
	step := len(data)
	if shape[0] > 0 {
		step = len(data) / shape[0]
	}
	out := make([]any, shape[0])
	for i := range out {
		out[i] = nest(shape[1:], data[i*step:(i+1)*step])
	}
	return out
}
