package streams

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/twinfer/streams-utils/pkg/ndarray"
	"github.com/twinfer/streams-utils/pkg/probe"
)

// ProbeObjectName returns the object a probe group is written as.
func ProbeObjectName(group int) string {
	return fmt.Sprintf("probe_%d", group)
}

// ScanProbes lists the probe files in dir.
func ScanProbes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing probes in %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && probe.IsProbeFile(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// GroupProbes groups paths by probe location and applies the step filter.
func (c *Converter) GroupProbes(paths []string) (*probe.Grouping, error) {
	g, err := probe.Group(slices.Values(paths))
	if err != nil {
		return nil, err
	}
	if c.filter == nil {
		return g, nil
	}

	filtered, err := g.Filter(func(info probe.Info) (bool, error) {
		return c.filter(info.Step, info.Group)
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("filtered probe files", "before", g.Len(), "after", filtered.Len(), "filter", c.options.stepFilter)
	return filtered, nil
}

// ConvertProbes stacks the probe files of probeDir per group and writes each
// group as probe_<id>, with the viscous, log_law and freestream arrays of
// shape (files, 4, nz) and the step id of every file. Groups without files
// are skipped. Every group is stacked before the first write, so a bad file
// in any group leaves the sink untouched.
func (c *Converter) ConvertProbes(ctx context.Context, probeDir, outDir string) error {
	paths, err := ScanProbes(probeDir)
	if err != nil {
		return err
	}
	g, err := c.GroupProbes(paths)
	if err != nil {
		return err
	}

	type object struct {
		group  int
		files  int
		arrays []ndarray.Named
	}
	var objects []object
	for _, id := range probe.Groups {
		infos := g.Get(id)
		if len(infos) == 0 {
			c.logger.Warn("no probe files for group", "group", id, "dir", probeDir)
			continue
		}

		ts, err := probe.Stack(ctx, g.Paths(id), c.decomp.ZDivisions, c.options.workers)
		if err != nil {
			return fmt.Errorf("probe group %d: %w", id, err)
		}

		steps := ndarray.New(len(infos))
		for i, info := range infos {
			steps.Set(float64(info.Step), i)
		}
		objects = append(objects, object{
			group:  id,
			files:  len(infos),
			arrays: append(ts.Arrays(), ndarray.Named{Name: "steps", Array: steps}),
		})
	}

	sink := c.sinkFor(outDir)
	for _, o := range objects {
		name := ProbeObjectName(o.group)
		if err := sink.Write(ctx, name, o.arrays...); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		c.logger.Info("converted probe group", "group", o.group, "files", o.files)
	}

	return nil
}
