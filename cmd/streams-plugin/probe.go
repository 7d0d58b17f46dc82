package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/redpanda-data/benthos/v4/public/service"

	"github.com/twinfer/streams-utils/internal/selector"
	"github.com/twinfer/streams-utils/pkg/probe"
)

// PathMetadata is the metadata key holding a message's source file path.
const PathMetadata = "path"

// ProbeProcessor stacks a batch of probe files into one structured message
// per probe group.
type ProbeProcessor struct {
	nz         int
	workers    int
	stepFilter string
	match      func(step, group int) (bool, error)
	logger     *service.Logger
	mFiles     *service.MetricCounter
	mGroups    *service.MetricCounter
	mErrors    *service.MetricCounter
}

func probeProcessorConfig() *service.ConfigSpec {
	return service.NewConfigSpec().
		Summary("Stacks a batch of STREAmS span probe files per probe group.").
		Description("Every message must carry the probe file name in its `path` metadata (span_probe_G_SSSSS.ext). The batch is grouped by G, ordered by step, optionally filtered, decoded in parallel and emitted as one structured message per non-empty group with viscous, log_law and freestream arrays shaped (files, 4, z_divisions). Any failure marks every message of the batch with the error and nothing new is emitted.").
		Field(configPathField()).
		Field(gridField("z_divisions", "Number of grid points along z.")).
		Field(service.NewStringField("step_filter").
			Description("CEL expression over `step` and `group` selecting which files to keep.").
			Example("step >= 1000 && step % 10 == 0").
			Default("")).
		Field(service.NewIntField("workers").
			Description("Files decoded in parallel. Zero means one per CPU.").
			Default(0)).
		Version("0.1.0")
}

func newProbeProcessorFromConfig(conf *service.ParsedConfig, mgr *service.Resources) (*ProbeProcessor, error) {
	decomp, err := decompositionFromConfig(conf, "z_divisions")
	if err != nil {
		return nil, err
	}

	stepFilter, err := conf.FieldString("step_filter")
	if err != nil {
		return nil, err
	}
	workers, err := conf.FieldInt("workers")
	if err != nil {
		return nil, err
	}

	p := &ProbeProcessor{
		nz:         decomp.ZDivisions,
		workers:    workers,
		stepFilter: stepFilter,
		logger:     mgr.Logger(),
		mFiles:     mgr.Metrics().NewCounter("streams_probe_files"),
		mGroups:    mgr.Metrics().NewCounter("streams_probe_groups"),
		mErrors:    mgr.Metrics().NewCounter("streams_probe_errors"),
	}

	if stepFilter != "" {
		pool, err := selector.NewPool()
		if err != nil {
			return nil, err
		}
		if p.match, err = pool.Predicate(stepFilter); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// ProcessBatch groups and stacks the probe files of a batch.
func (p *ProbeProcessor) ProcessBatch(ctx context.Context, batch service.MessageBatch) ([]service.MessageBatch, error) {
	out, files, err := p.stack(ctx, batch)
	if err != nil {
		p.logger.Errorf("Failed to stack probe batch of %d messages: %v", len(batch), err)
		p.mErrors.Incr(1)
		for _, msg := range batch {
			msg.SetError(err)
		}
		return []service.MessageBatch{batch}, nil
	}
	if len(out) == 0 {
		p.logger.Debugf("No probe files left in batch of %d messages after filtering", len(batch))
		return nil, nil
	}
	p.mFiles.Incr(int64(files))
	p.mGroups.Incr(int64(len(out)))
	return []service.MessageBatch{out}, nil
}

// stack returns one message per non-empty group and the number of files
// stacked into them.
func (p *ProbeProcessor) stack(ctx context.Context, batch service.MessageBatch) (out service.MessageBatch, files int, err error) {
	index := make(map[string]int, len(batch))
	paths := make([]string, len(batch))
	for i, msg := range batch {
		path, ok := msg.MetaGet(PathMetadata)
		if !ok {
			return nil, 0, fmt.Errorf("message %d has no %s metadata", i, PathMetadata)
		}
		if _, dup := index[path]; dup {
			return nil, 0, fmt.Errorf("probe file %s appears twice in the batch", path)
		}
		index[path] = i
		paths[i] = path
	}

	g, err := probe.Group(slices.Values(paths))
	if err != nil {
		return nil, 0, err
	}
	if p.match != nil {
		if g, err = g.Filter(func(info probe.Info) (bool, error) { return p.match(info.Step, info.Group) }); err != nil {
			return nil, 0, err
		}
	}

	for _, id := range probe.Groups {
		infos := g.Get(id)
		if len(infos) == 0 {
			continue
		}

		buffers := make([][]byte, len(infos))
		steps := make([]any, len(infos))
		for i, info := range infos {
			src := batch[index[info.Path]]
			if buffers[i], err = src.AsBytes(); err != nil {
				return nil, 0, fmt.Errorf("failed to get binary data of %s: %w", info.Path, err)
			}
			steps[i] = info.Step
		}

		ts, err := probe.StackBytes(ctx, buffers, p.nz, p.workers)
		if err != nil {
			return nil, 0, fmt.Errorf("probe group %d: %w", id, err)
		}

		result := map[string]any{
			"group": id,
			"steps": steps,
		}
		for _, a := range ts.Arrays() {
			result[a.Name] = a.Array.Nested()
		}

		msg := service.NewMessage(nil)
		msg.SetStructured(result)
		msg.MetaSet("probe_group", strconv.Itoa(id))
		out = append(out, msg)

		p.logger.Debugf("Stacked %d probe files of group %d", len(infos), id)
		files += len(infos)
	}

	return out, files, nil
}

// Close the processor resources
func (p *ProbeProcessor) Close(ctx context.Context) error {
	return nil
}
