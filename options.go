package routine

import "log/slog"

// Weight is the scheduling weight of a root [Task] in an [Executor].
// Heavier tasks are updated first.
type Weight int

// An Option configures a [Routine] at creation.
type Option func(*config)

type config struct {
	name    string
	logger  *slog.Logger
	sink    ErrorSink
	sinkSet bool
	weight  Weight
}

// WithName names a [Routine]. The name appears in log records.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the logger a [Routine] logs its lifecycle to.
//
// Without this option, [slog.Default] is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithErrorSink sets where a [Routine] reports its failure, if it fails.
//
// Without this option, failures are logged (see [LogSink]).
func WithErrorSink(sink ErrorSink) Option {
	return func(c *config) {
		c.sink = sink
		c.sinkSet = sink != nil
	}
}

// WithWeight sets the [Weight] of a [Routine].
func WithWeight(w Weight) Option {
	return func(c *config) {
		c.weight = w
	}
}

func newConfig(opts []Option) *config {
	return (&config{}).with(opts)
}

// inherit returns a copy of c for a child routine. Names are not inherited,
// and neither is a default error sink, which logs to the child's own logger.
func (c *config) inherit(opts []Option) *config {
	child := *c
	child.name = ""
	if !child.sinkSet {
		child.sink = nil
	}
	return child.with(opts)
}

func (c *config) with(opts []Option) *config {
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.sink == nil {
		c.sink = LogSink{Logger: c.logger}
	}
	return c
}
