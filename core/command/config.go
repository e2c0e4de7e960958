package command

import "time"

// Config holds registry settings loadable from the environment.
type Config struct {
	PipeSeparator     string        `env:"HQ_PIPE_SEPARATOR" envDefault:"|"`
	DefaultConverters bool          `env:"HQ_DEFAULT_CONVERTERS" envDefault:"true"`
	MaxWorkers        int           `env:"HQ_MAX_WORKERS" envDefault:"0"`
	ShutdownTimeout   time.Duration `env:"HQ_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns the settings New uses without options.
func DefaultConfig() Config {
	return Config{
		PipeSeparator:     "|",
		DefaultConverters: true,
		MaxWorkers:        0,
		ShutdownTimeout:   30 * time.Second,
	}
}

// NewFromConfig creates a registry from cfg. opts are applied after cfg.
func NewFromConfig(cfg Config, opts ...Option) *Registry {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}
