// Package fanout runs independent, index-addressed units of work in parallel.
package fanout

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers normalises a requested worker count: non-positive means one per CPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Each calls fn for every index in [0, n) using at most limit goroutines.
//
// fn must only write to locations owned by its index. The first error cancels
// the context passed to the remaining calls and is returned once every started
// call has finished; indices not yet started are skipped.
func Each(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(limit))

	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
