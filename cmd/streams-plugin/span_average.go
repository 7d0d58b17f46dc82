package main

import (
	"context"
	"fmt"

	"github.com/redpanda-data/benthos/v4/public/service"

	"github.com/twinfer/streams-utils/pkg/f64stream"
	"github.com/twinfer/streams-utils/pkg/flowfield"
	"github.com/twinfer/streams-utils/pkg/solver"
)

// SpanAverageProcessor decodes span-average binaries into structured
// rho, velocity and energy grids.
type SpanAverageProcessor struct {
	decomp   solver.Decomposition
	logger   *service.Logger
	mDecoded *service.MetricCounter
	mErrors  *service.MetricCounter
}

func spanAverageProcessorConfig() *service.ConfigSpec {
	return service.NewConfigSpec().
		Summary("Decodes STREAmS span-average binaries into structured grids.").
		Description("Each message must hold one span-average file: little-endian float64 records of rho, u, v, w and energy written rank by rank. The output is a structured object with rho (nx × ny), velocity (3 × nx × ny) and energy (nx × ny).").
		Field(configPathField()).
		Field(gridField("x_divisions", "Number of grid points along x.")).
		Field(gridField("y_divisions", "Number of grid points along y.")).
		Field(gridField("mpi_x_split", "Number of MPI ranks x is split across.")).
		Version("0.1.0")
}

func newSpanAverageProcessorFromConfig(conf *service.ParsedConfig, mgr *service.Resources) (*SpanAverageProcessor, error) {
	decomp, err := decompositionFromConfig(conf, "x_divisions", "y_divisions", "mpi_x_split")
	if err != nil {
		return nil, err
	}

	metrics := mgr.Metrics()
	return &SpanAverageProcessor{
		decomp:   decomp,
		logger:   mgr.Logger(),
		mDecoded: metrics.NewCounter("streams_span_average_decoded"),
		mErrors:  metrics.NewCounter("streams_span_average_errors"),
	}, nil
}

// Process decodes one span-average message.
func (p *SpanAverageProcessor) Process(ctx context.Context, msg *service.Message) (service.MessageBatch, error) {
	fail := func(err error) (service.MessageBatch, error) {
		p.logger.Errorf("Failed to decode span average: %v", err)
		p.mErrors.Incr(1)
		msg.SetError(err)
		return service.MessageBatch{msg}, nil
	}

	data, err := msg.AsBytes()
	if err != nil {
		return fail(fmt.Errorf("failed to get binary data from message: %w", err))
	}

	samples, err := f64stream.Decode(data)
	if err != nil {
		return fail(err)
	}
	sa, err := flowfield.Decode(samples, p.decomp)
	if err != nil {
		return fail(err)
	}

	result := make(map[string]any, 3)
	for _, a := range sa.Arrays() {
		result[a.Name] = a.Array.Nested()
	}

	p.logger.Debugf("Decoded span average of %d bytes", len(data))
	p.mDecoded.Incr(1)

	newMsg := service.NewMessage(nil)
	newMsg.SetStructured(result)
	copyMetadata(msg, newMsg)
	return service.MessageBatch{newMsg}, nil
}

// Close the processor resources
func (p *SpanAverageProcessor) Close(ctx context.Context) error {
	return nil
}
