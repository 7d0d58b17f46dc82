package streams

import (
	"context"
	"path/filepath"
)

// Layout of a results folder after a solver run.
const (
	ProbeDir  = "csv_data"
	MatlabDir = "matfiles"
)

// Postprocess runs the conversions a finished solver run needs: span
// averages are converted next to their binaries, and the probes and mesh go
// to the matfiles folder.
func (c *Converter) Postprocess(ctx context.Context, dataDir string) error {
	if err := c.ConvertSpans(ctx, dataDir, filepath.Join(dataDir, SpansDir)); err != nil {
		return err
	}
	matfiles := filepath.Join(dataDir, MatlabDir)
	if err := c.ConvertProbes(ctx, filepath.Join(dataDir, ProbeDir), matfiles); err != nil {
		return err
	}
	return c.WriteMesh(ctx, dataDir, matfiles)
}
