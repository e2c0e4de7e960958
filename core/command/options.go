package command

import (
	"log/slog"
	"reflect"
	"time"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger configures structured logging for registry operations.
// Use slog.New(slog.NewTextHandler(io.Discard, nil)) to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPipeSeparator sets the string splitting one input into pipe segments.
// Default is "|". An empty separator disables pipes.
//
// Example:
//
//	registry := command.New(command.WithPipeSeparator("->"))
//	registry.HandleInput("list users -> count", ctx, cb)
func WithPipeSeparator(sep string) Option {
	return func(r *Registry) {
		r.separator = sep
	}
}

// WithDefaultConverters controls whether the built-in converters for int,
// int64, float64, bool, string, []int and []string are registered. Default is true.
func WithDefaultConverters(enabled bool) Option {
	return func(r *Registry) {
		r.defaults = enabled
	}
}

// WithConverter registers a converter at construction time.
//
// Example:
//
//	registry := command.New(
//	    command.WithConverter(reflect.TypeFor[Color](), colorConverter),
//	)
func WithConverter(kind reflect.Type, c Converter) Option {
	return func(r *Registry) {
		if kind != nil && c != nil {
			r.converters[kind] = c
		}
	}
}

// WithMaxWorkers limits how many submissions execute concurrently.
// Set to 0 (default) for unlimited. A pipe chain counts as one worker.
func WithMaxWorkers(n int) Option {
	return func(r *Registry) {
		if n >= 0 {
			r.maxWorkers = n
		}
	}
}

// WithShutdownTimeout configures how long Dispose waits for running commands.
// Default is 30 seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.shutdownTimeout = d
		}
	}
}

// WithResultListener adds a function notified after every finished submission.
// Listeners run on the worker goroutine and must not block.
//
// Example:
//
//	registry := command.New(
//	    command.WithResultListener(func(e command.ResultEvent) {
//	        metrics.Inc(e.Kind.String())
//	    }),
//	)
func WithResultListener(fn func(ResultEvent)) Option {
	return func(r *Registry) {
		if fn != nil {
			r.listeners = append(r.listeners, fn)
		}
	}
}

// WithConfig applies an environment-loaded Config.
func WithConfig(cfg Config) Option {
	return func(r *Registry) {
		r.separator = cfg.PipeSeparator
		r.defaults = cfg.DefaultConverters
		if cfg.MaxWorkers >= 0 {
			r.maxWorkers = cfg.MaxWorkers
		}
		if cfg.ShutdownTimeout > 0 {
			r.shutdownTimeout = cfg.ShutdownTimeout
		}
	}
}
