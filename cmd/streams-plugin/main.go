package main

import (
	"context"
	"fmt"

	"github.com/redpanda-data/benthos/v4/public/service"

	"github.com/twinfer/streams-utils/pkg/solver"
)

func init() {
	err := service.RegisterProcessor(
		"streams_span_average",
		spanAverageProcessorConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (service.Processor, error) {
			return newSpanAverageProcessorFromConfig(conf, mgr)
		},
	)
	if err != nil {
		panic(err)
	}

	err = service.RegisterBatchProcessor(
		"streams_probe",
		probeProcessorConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (service.BatchProcessor, error) {
			return newProbeProcessorFromConfig(conf, mgr)
		},
	)
	if err != nil {
		panic(err)
	}
}

func main() {
	service.RunCLI(context.Background())
}

// configPathField is shared by every processor that needs the grid of a run.
func configPathField() *service.ConfigField {
	return service.NewStringField("config_path").
		Description("Path to the solver input file (.json or .yaml). When set, the grid fields below are ignored.").
		Example("./results/input.json").
		Default("")
}

func gridField(name, description string) *service.ConfigField {
	return service.NewIntField(name).Description(description).Default(0)
}

// decompositionFromConfig reads the grid either from the solver config file
// or from the individual fields, filling fields the processor does not
// declare with 1.
func decompositionFromConfig(conf *service.ParsedConfig, fields ...string) (solver.Decomposition, error) {
	configPath, err := conf.FieldString("config_path")
	if err != nil {
		return solver.Decomposition{}, err
	}
	if configPath != "" {
		cfg, err := solver.Load(configPath)
		if err != nil {
			return solver.Decomposition{}, fmt.Errorf("failed to load solver config: %w", err)
		}
		return cfg.Decomposition, nil
	}

	d := solver.Decomposition{XDivisions: 1, YDivisions: 1, ZDivisions: 1, MPIXSplit: 1}
	targets := map[string]*int{
		"x_divisions": &d.XDivisions,
		"y_divisions": &d.YDivisions,
		"z_divisions": &d.ZDivisions,
		"mpi_x_split": &d.MPIXSplit,
	}
	for _, name := range fields {
		v, err := conf.FieldInt(name)
		if err != nil {
			return solver.Decomposition{}, err
		}
		*targets[name] = v
	}

	if err := d.Validate(); err != nil {
		return solver.Decomposition{}, err
	}
	return d, nil
}

func copyMetadata(from, to *service.Message) {
	_ = from.MetaWalk(func(key, value string) error {
		to.MetaSet(key, value)
		return nil
	})
}
