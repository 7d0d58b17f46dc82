// Package f64stream converts raw solver output into little-endian float64 samples.
//
// The solver writes its binary snapshots as bare IEEE-754 doubles with no header,
// no framing and no padding, so the only structural check possible at this level
// is that the byte count is a whole number of 8-byte values.
package f64stream

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
)

// SampleSize is the number of bytes in one encoded sample.
const SampleSize = 8

// ErrTruncatedBuffer is matched by every TruncatedBufferError.
var ErrTruncatedBuffer = errors.New("truncated buffer")

// TruncatedBufferError reports a buffer whose length is not a multiple of SampleSize.
type TruncatedBufferError struct {
	Length   int // total bytes in the buffer
	Trailing int // bytes left over after the last whole sample
}

func (e *TruncatedBufferError) Error() string {
	return fmt.Sprintf("truncated buffer: %d bytes is not a multiple of %d (%d trailing bytes)",
		e.Length, SampleSize, e.Trailing)
}

// Is reports whether target is ErrTruncatedBuffer.
func (e *TruncatedBufferError) Is(target error) bool {
	return target == ErrTruncatedBuffer
}

// Decode interprets data as consecutive little-endian float64 values.
func Decode(data []byte) ([]float64, error) {
	if trailing := len(data) % SampleSize; trailing != 0 {
		return nil, &TruncatedBufferError{Length: len(data), Trailing: trailing}
	}

	n := len(data) / SampleSize
	samples := make([]float64, n)
	stream := kaitai.NewStream(bytes.NewReader(data))

	for i := range samples {
		v, err := stream.ReadF8le()
		if err != nil {
			return nil, fmt.Errorf("reading sample %d of %d: %w", i, n, err)
		}
		samples[i] = v
	}

	return samples, nil
}

// ReadFile reads the whole file at path and decodes it.
func ReadFile(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	samples, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return samples, nil
}

// Encode is the inverse of Decode.
func Encode(values []float64) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(values)*SampleSize))
	writer := kaitai.NewWriter(buf)

	for _, v := range values {
		// bytes.Buffer writes never fail
		_ = writer.WriteF8le(v)
	}

	return buf.Bytes()
}
