// Package streams converts the raw output of a STREAmS solver run into
// array files.
//
// # Overview
//
// A solver run leaves behind a results folder holding:
//
//   - spans/*.binary: span-averaged snapshots, written rank by rank
//   - csv_data/span_probe_G_SSSSS.binary: probe statistics per group and step
//   - flowfields.h5: full 3-D snapshots in conserved variables
//   - x.dat, y.dat, z.dat: mesh coordinates with three ghost nodes
//
// A Converter decodes these with the grid decomposition of the run and hands
// the resulting arrays to a Sink. The default sink writes one HDF5 file per
// object into the output directory.
//
// # Quick Start
//
//	conv, err := streams.NewConverterFromConfig("results/input.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := conv.Postprocess(ctx, "results"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration Options
//
//   - WithLogger(*slog.Logger): Custom logging
//   - WithWorkers(int): Files decoded in parallel (default: one per CPU)
//   - WithSink(Sink): Custom output instead of HDF5 files
//   - WithStepFilter(string): CEL expression selecting probe files by step and group
//   - WithStagger(time.Duration): Delay between animation workers
//   - WithRemoveBinary(bool): Delete span binaries after conversion
//   - WithRunner(Runner): Custom process runner for Animate
//   - WithDebugMode(bool): Enable debug output
//
// # Error Handling
//
// Every conversion is all or nothing per object: a malformed file aborts the
// call with an error naming the file, and no object is written from partially
// decoded data. Errors wrap the typed errors of the decoders, so callers can
// test for them with errors.Is:
//
//   - f64stream.ErrTruncatedBuffer
//   - flowfield.ErrExtraData, flowfield.ErrShortData
//   - probe.ErrLengthMismatch, probe.ErrUnknownGroup, probe.ErrFilename
//   - solver.ErrInvalidDecomposition
//
// # Thread Safety
//
// A Converter is safe for concurrent use once created. Parallel decodes write
// into disjoint slots of preallocated arrays, and custom sinks must accept
// concurrent writes of distinct objects.
package streams
