package streams

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/zeebo/errs"

	"github.com/twinfer/streams-utils/pkg/partition"
)

const (
	// AnimationDir is the subdirectory of the data folder frames are rendered into.
	AnimationDir = "animation"
	// DefaultInterpreter runs the animation script.
	DefaultInterpreter = "julia"
	// DefaultAnimationWorkers is the number of renderer processes Animate starts.
	DefaultAnimationWorkers = 4
)

// AnimateRequest describes an animation render over a data folder holding
// span_averages.h5.
type AnimateRequest struct {
	DataFolder  string
	Script      string
	Interpreter string // defaults to DefaultInterpreter
	Decimate    int    // render every n-th write; 0 means 1
	Workers     int    // defaults to DefaultAnimationWorkers
}

// Animate renders the span-average series of req.DataFolder with an external
// script. The writes are split into one contiguous 1-based span per worker
// and each worker runs
//
//	<interpreter> <script> <start> <end> <decimate> <data folder>
//
// with starts staggered by the converter's stagger. The animation folder is
// recreated first. When frames are decimated they are renumbered
// anim_00000.png, anim_00001.png, ... in name order afterwards.
func (c *Converter) Animate(ctx context.Context, req AnimateRequest) error {
	if req.Script == "" {
		return fmt.Errorf("animate: no script given")
	}
	if req.Interpreter == "" {
		req.Interpreter = DefaultInterpreter
	}
	if req.Decimate <= 0 {
		req.Decimate = 1
	}
	if req.Workers <= 0 {
		req.Workers = DefaultAnimationWorkers
	}

	out := filepath.Join(req.DataFolder, AnimationDir)
	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("clearing animation folder: %w", err)
	}
	if err := os.Mkdir(out, 0o755); err != nil {
		return fmt.Errorf("creating animation folder: %w", err)
	}

	writes, err := c.countWrites(filepath.Join(req.DataFolder, SpanSeriesName+".h5"))
	if err != nil {
		return err
	}

	spans, err := partition.Partition(req.Workers, writes)
	if err != nil {
		return fmt.Errorf("partitioning %d writes: %w", writes, err)
	}

	c.logger.Info("starting animation", "writes", writes, "workers", req.Workers, "decimate", req.Decimate)
	err = partition.Dispatch(ctx, spans, c.options.stagger, func(ctx context.Context, s partition.Span) error {
		c.logger.Debug("rendering", "worker", s.Worker, "start", s.Start, "end", s.End)
		return c.options.runner.Run(ctx, req.Interpreter,
			req.Script,
			strconv.Itoa(s.Start),
			strconv.Itoa(s.End),
			strconv.Itoa(req.Decimate),
			req.DataFolder,
		)
	})
	if err != nil {
		return fmt.Errorf("animate: %w", err)
	}

	if req.Decimate != 1 {
		return renumberFrames(out)
	}
	return nil
}

func (c *Converter) countWrites(path string) (n int, err error) {
	entry := spanChannels * c.decomp.XDivisions * c.decomp.YDivisions
	ds, closeFn, err := c.openSeries(path, SpanSeriesDataset, entry)
	if err != nil {
		return 0, err
	}
	defer func() { err = errs.Combine(err, closeFn()) }()
	return ds.Len(), nil
}

// renumberFrames renames every file below dir, in path order, to
// anim_NNNNN.png directly in dir.
func renumberFrames(dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("listing frames: %w", err)
	}
	slices.Sort(files)

	for i, src := range files {
		dst := filepath.Join(dir, fmt.Sprintf("anim_%05d.png", i))
		if src == dst {
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("renumbering frame: %w", err)
		}
	}
	return nil
}
