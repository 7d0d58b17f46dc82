// Package partition splits a 1-based index range into contiguous spans, one
// per worker, and runs a job per span.
//
// Every worker gets total/workers indices and the last worker also takes the
// remainder:
//
//	Partition(4, 18) = [1,4] [5,8] [9,12] [13,18]
package partition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidPartition is returned for a non-positive worker or index count.
var ErrInvalidPartition = errors.New("invalid partition")

// Span is a 1-based inclusive index range owned by one worker.
// An empty span has End == Start-1.
type Span struct {
	Worker int
	Start  int
	End    int
}

// Len returns the number of indices in the span.
func (s Span) Len() int { return s.End - s.Start + 1 }

// Empty reports whether the span holds no indices.
func (s Span) Empty() bool { return s.Len() <= 0 }

func (s Span) String() string {
	return fmt.Sprintf("worker %d [%d,%d]", s.Worker, s.Start, s.End)
}

// Partition splits [1, total] into exactly workers contiguous spans.
// When total < workers all but the last span are empty.
func Partition(workers, total int) ([]Span, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidPartition, workers)
	}
	if total < 1 {
		return nil, fmt.Errorf("%w: total must be at least 1, got %d", ErrInvalidPartition, total)
	}

	base := total / workers
	spans := make([]Span, workers)
	start := 1
	for k := range spans {
		n := base
		if k == workers-1 {
			n = total - start + 1
		}
		spans[k] = Span{Worker: k, Start: start, End: start + n - 1}
		start += n
	}

	return spans, nil
}

// Dispatch runs job once per non-empty span, each in its own goroutine.
// The goroutine for span k waits k*stagger before calling job so heavyweight
// jobs do not all start together. The first error cancels the context passed
// to the remaining jobs and is returned.
func Dispatch(ctx context.Context, spans []Span, stagger time.Duration, job func(ctx context.Context, s Span) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range spans {
		if s.Empty() {
			continue
		}
		g.Go(func() error {
			if delay := time.Duration(s.Worker) * stagger; delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-timer.C:
				}
			}
			if err := job(gctx, s); err != nil {
				return fmt.Errorf("%s: %w", s, err)
			}
			return nil
		})
	}
	return g.Wait()
}
