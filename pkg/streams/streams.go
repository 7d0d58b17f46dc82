package streams

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zeebo/errs"

	"github.com/twinfer/streams-utils/internal/fanout"
	"github.com/twinfer/streams-utils/internal/h5io"
	"github.com/twinfer/streams-utils/internal/selector"
	"github.com/twinfer/streams-utils/pkg/ndarray"
	"github.com/twinfer/streams-utils/pkg/solver"
)

// Sink stores named arrays as one object. Implementations must be safe for
// concurrent calls with distinct names.
type Sink interface {
	Write(ctx context.Context, name string, arrays ...ndarray.Named) error
}

// Runner starts an external program and waits for it to finish.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// series is a leading-axis indexed dataset such as the flowfield writes in an
// HDF5 file.
type series interface {
	Len() int
	Read(i int) ([]float64, error)
}

// Converter turns solver output into array files.
type Converter struct {
	decomp  solver.Decomposition
	logger  *slog.Logger
	options options
	filter  func(step, group int) (bool, error)

	// openSeries opens dataset of the HDF5 file at path as entries of
	// entry values each.
	openSeries func(path, dataset string, entry int) (series, func() error, error)
}

type options struct {
	logger       *slog.Logger
	workers      int
	sink         Sink
	stepFilter   string
	stagger      time.Duration
	removeBinary bool
	runner       Runner
	debugMode    bool
}

// Option is a function that configures converter options
type Option func(*options)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWorkers limits how many files are decoded at once. Zero or less means
// one per CPU.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSink replaces the default HDF5 output. The output directories passed to
// the conversion methods are then ignored.
func WithSink(s Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithStepFilter keeps only probe files matching a CEL expression over the
// variables step and group, e.g. "step >= 1000 && step % 10 == 0".
func WithStepFilter(expr string) Option {
	return func(o *options) {
		o.stepFilter = expr
	}
}

// WithStagger sets the start delay between consecutive animation workers.
func WithStagger(d time.Duration) Option {
	return func(o *options) {
		o.stagger = d
	}
}

// WithRemoveBinary deletes span-average binaries once they are converted.
func WithRemoveBinary(enabled bool) Option {
	return func(o *options) {
		o.removeBinary = enabled
	}
}

// WithRunner replaces the process runner used by Animate.
func WithRunner(r Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithDebugMode enables debug logging
func WithDebugMode(enabled bool) Option {
	return func(o *options) {
		o.debugMode = enabled
	}
}

// DefaultStagger gives each animation worker time to compile its renderer
// before the next one starts.
const DefaultStagger = 30 * time.Second

func defaultOptions() options {
	return options{
		logger:  slog.Default(),
		stagger: DefaultStagger,
		runner:  execRunner{},
	}
}

// NewConverter creates a converter for output of a solver run with the given
// decomposition.
func NewConverter(decomp solver.Decomposition, opts ...Option) (*Converter, error) {
	if err := decomp.Validate(); err != nil {
		return nil, err
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	options.workers = fanout.Workers(options.workers)

	if options.debugMode {
		options.logger = options.logger.With("debug", true)
	}

	c := &Converter{
		decomp:     decomp,
		logger:     options.logger,
		options:    options,
		openSeries: openHDF5Series,
	}

	if options.stepFilter != "" {
		pool, err := selector.NewPool()
		if err != nil {
			return nil, err
		}
		match, err := pool.Predicate(options.stepFilter)
		if err != nil {
			return nil, err
		}
		c.filter = match
	}

	return c, nil
}

// NewConverterFromConfig loads the solver configuration at path and creates
// a converter for its decomposition.
func NewConverterFromConfig(path string, opts ...Option) (*Converter, error) {
	cfg, err := solver.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading solver config: %w", err)
	}
	return NewConverter(cfg.Decomposition, opts...)
}

// Decomposition returns the grid the converter decodes for.
func (c *Converter) Decomposition() solver.Decomposition {
	return c.decomp
}

func (c *Converter) sinkFor(dir string) Sink {
	if c.options.sink != nil {
		return c.options.sink
	}
	return h5io.NewSink(dir)
}

func openHDF5Series(path, dataset string, entry int) (series, func() error, error) {
	src, err := h5io.Open(path)
	if err != nil {
		return nil, nil, err
	}
	ds, err := src.Dataset(dataset, entry)
	if err != nil {
		return nil, nil, errs.Combine(err, src.Close())
	}
	return ds, src.Close, nil
}
