package framegraph

import "log/slog"

// Option configures a Graph during creation.
//
// Example:
//
//	g := framegraph.New(dev,
//	    framegraph.WithLogger(slog.Default()),
//	    framegraph.WithValidation(true))
type Option func(*graphOptions)

type graphOptions struct {
	logger   *slog.Logger
	validate bool
}

func defaultOptions() graphOptions {
	return graphOptions{}
}

// WithLogger sets a graph-specific logger. Without it the graph logs through
// the package logger (see SetLogger) as it is at the time of each call.
func WithLogger(l *slog.Logger) Option {
	return func(o *graphOptions) {
		o.logger = l
	}
}

// WithValidation makes Compile run Validate and log every problem it finds
// at warn level. Validation never changes what Compile or Execute do.
func WithValidation(enabled bool) Option {
	return func(o *graphOptions) {
		o.validate = enabled
	}
}
