package flowfield

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraData is matched by every ExtraDataError.
	ErrExtraData = errors.New("extra data")
	// ErrShortData is matched by every ShortDataError.
	ErrShortData = errors.New("short data")
)

// ExtraDataError reports values left over after every grid cell was filled.
// It means the decomposition parameters do not describe the file.
type ExtraDataError struct {
	Remaining int
}

func (e *ExtraDataError) Error() string {
	return fmt.Sprintf("extra data present in the binary file (%d values)", e.Remaining)
}

// Is reports whether target is ErrExtraData.
func (e *ExtraDataError) Is(target error) bool { return target == ErrExtraData }

// ShortDataError reports a buffer too small to fill the grid.
type ShortDataError struct {
	Expected int
	Actual   int
}

func (e *ShortDataError) Error() string {
	return fmt.Sprintf("binary file too short: expected %d values, got %d (%d missing)",
		e.Expected, e.Actual, e.Expected-e.Actual)
}

// Is reports whether target is ErrShortData.
func (e *ShortDataError) Is(target error) bool { return target == ErrShortData }
