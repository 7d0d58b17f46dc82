package streams

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/twinfer/streams-utils/internal/fanout"
	"github.com/twinfer/streams-utils/internal/mesh"
	"github.com/twinfer/streams-utils/pkg/f64stream"
	"github.com/twinfer/streams-utils/pkg/flowfield"
	"github.com/twinfer/streams-utils/pkg/ndarray"
)

const (
	// SpansDir is the results subdirectory holding span-average binaries.
	SpansDir = "spans"
	// BinaryExt is the extension of solver binaries.
	BinaryExt = ".binary"
	// SpanSeriesName is the object StackSpans output is written as.
	SpanSeriesName = "span_averages"
	// SpanSeriesDataset is the dataset holding the stacked span averages.
	SpanSeriesDataset = "span_average"
)

// spanChannels are the fields StackSpans keeps per snapshot: rho, u, v, w.
const spanChannels = 4

// listBinaries returns the regular *.binary files in dir in name order.
func listBinaries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == BinaryExt {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// ConvertSpans decodes every span-average binary in resultsDir/spans and
// writes it, together with the x and y mesh coordinates, as an object named
// after the file stem. Files are converted one at a time and the first
// failure stops the run.
func (c *Converter) ConvertSpans(ctx context.Context, resultsDir, outDir string) error {
	coords, err := mesh.Load(resultsDir, c.decomp)
	if err != nil {
		return err
	}

	paths, err := listBinaries(filepath.Join(resultsDir, SpansDir))
	if err != nil {
		return err
	}

	sink := c.sinkFor(outDir)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		samples, err := f64stream.ReadFile(path)
		if err != nil {
			return err
		}
		sa, err := flowfield.Decode(samples, c.decomp)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}

		name := strings.TrimSuffix(filepath.Base(path), BinaryExt)
		arrays := append(sa.Arrays(), coords.Arrays(true)...)
		if err := sink.Write(ctx, name, arrays...); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		c.logger.Debug("converted span average", "path", path, "object", name)

		if c.options.removeBinary {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("removing converted binary: %w", err)
			}
		}
	}

	c.logger.Info("converted span averages", "files", len(paths), "dir", resultsDir)
	return nil
}

// StackSpans decodes several span-average binaries into one array of shape
// (n, 4, nx, ny) holding rho, u, v and w per file. Files are ordered by path
// and decoded concurrently; any failure fails the whole stack.
func (c *Converter) StackSpans(ctx context.Context, paths []string) (*ndarray.Array, error) {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)

	nx, ny := c.decomp.XDivisions, c.decomp.YDivisions
	plane := nx * ny
	out := ndarray.New(len(sorted), spanChannels, nx, ny)

	err := fanout.Each(ctx, len(sorted), c.options.workers, func(_ context.Context, i int) error {
		samples, err := f64stream.ReadFile(sorted[i])
		if err != nil {
			return err
		}
		sa, err := flowfield.Decode(samples, c.decomp)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", sorted[i], err)
		}

		slot := out.Slot(i)
		copy(slot[:plane], ndarray.FromDense(sa.Rho).Data())
		for v := range 3 {
			copy(slot[(v+1)*plane:(v+2)*plane], sa.Velocity.Slot(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// WriteSpanSeries stacks every span-average binary in resultsDir/spans and
// writes the result as the span_averages object, the input Animate reads.
func (c *Converter) WriteSpanSeries(ctx context.Context, resultsDir, outDir string) error {
	paths, err := listBinaries(filepath.Join(resultsDir, SpansDir))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no %s files in %s", BinaryExt, filepath.Join(resultsDir, SpansDir))
	}

	stacked, err := c.StackSpans(ctx, paths)
	if err != nil {
		return err
	}

	if err := c.sinkFor(outDir).Write(ctx, SpanSeriesName, ndarray.Named{Name: SpanSeriesDataset, Array: stacked}); err != nil {
		return fmt.Errorf("writing %s: %w", SpanSeriesName, err)
	}
	c.logger.Info("stacked span averages", "files", len(paths))
	return nil
}

// WriteMesh stores the x, y and z mesh coordinates of resultsDir as the mesh
// object.
func (c *Converter) WriteMesh(ctx context.Context, resultsDir, outDir string) error {
	coords, err := mesh.Load(resultsDir, c.decomp)
	if err != nil {
		return err
	}
	if err := c.sinkFor(outDir).Write(ctx, "mesh", coords.Arrays(false)...); err != nil {
		return fmt.Errorf("writing mesh: %w", err)
	}
	return nil
}
