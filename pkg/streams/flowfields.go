package streams

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/zeebo/errs"

	"github.com/twinfer/streams-utils/internal/fanout"
	"github.com/twinfer/streams-utils/pkg/flowfield"
)

const (
	// FlowfieldsFile is the HDF5 file full flowfields are exported to.
	FlowfieldsFile = "flowfields.h5"
	// FlowfieldsDataset holds the conserved variables, shaped
	// (writes, 5, nx, ny, nz).
	FlowfieldsDataset = "velocity"
)

// FlowfieldObjectName returns the object flowfield write i is stored as.
func FlowfieldObjectName(i int) string {
	return fmt.Sprintf("flowfield_%05d", i)
}

// ConvertFlowfields converts every write of resultsDir/flowfields.h5 from
// conserved to primitive variables and stores each as flowfield_NNNNN.
// The dataset is loaded once; conversion and writes run in parallel.
func (c *Converter) ConvertFlowfields(ctx context.Context, resultsDir, outDir string) (err error) {
	path := filepath.Join(resultsDir, FlowfieldsFile)
	nx, ny, nz := c.decomp.XDivisions, c.decomp.YDivisions, c.decomp.ZDivisions
	ds, closeFn, err := c.openSeries(path, FlowfieldsDataset, flowfield.RecordSize*nx*ny*nz)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, closeFn()) }()

	n := ds.Len()
	sink := c.sinkFor(outDir)

	err = fanout.Each(ctx, n, c.options.workers, func(ctx context.Context, i int) error {
		buf, err := ds.Read(i)
		if err != nil {
			return err
		}
		ff, err := flowfield.FromConserved(buf, nx, ny, nz)
		if err != nil {
			return fmt.Errorf("flowfield write %d of %s: %w", i, path, err)
		}

		name := FlowfieldObjectName(i)
		if err := sink.Write(ctx, name, ff.Arrays()...); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		c.logger.Debug("wrote flowfield", "write", i, "of", n)
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("converted flowfields", "writes", n, "path", path)
	return nil
}
