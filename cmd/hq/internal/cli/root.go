// Package cli provides command-line interface setup for hq.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/headquarters/core/command"
	"github.com/dmitrymomot/headquarters/core/config"
	"github.com/dmitrymomot/headquarters/core/logger"
	"github.com/dmitrymomot/headquarters/core/server"
)

// Config is the environment configuration shared by every subcommand.
type Config struct {
	// Env selects a logging preset: development, staging or production.
	// Explicit level and format settings override the preset.
	Env       string `env:"HQ_ENV"`
	LogLevel  string `env:"HQ_LOG_LEVEL"`
	LogFormat string `env:"HQ_LOG_FORMAT"`

	Registry command.Config
}

// App represents the hq CLI application
type App struct {
	Config Config
	Logger *slog.Logger
}

// NewApp creates a new hq CLI application
func NewApp() *App {
	return &App{}
}

// CreateRootCommand creates and configures the root command
func (app *App) CreateRootCommand() *cobra.Command {
	var env, level, format string

	rootCmd := &cobra.Command{
		Use:   "hq",
		Short: "Command headquarters",
		Long: `hq dispatches textual commands to registered handlers. It can run them
interactively, in batch from arguments or stdin, or serve them to remote
clients over WebSocket and Redis pub/sub.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Load(&app.Config); err != nil {
				return err
			}
			if cmd.Flags().Changed("env") {
				app.Config.Env = env
			}
			if cmd.Flags().Changed("log-level") {
				app.Config.LogLevel = level
			}
			if cmd.Flags().Changed("log-format") {
				app.Config.LogFormat = format
			}

			log, err := newLogger(app.Config, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			app.Logger = log
			logger.SetAsDefault(log)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&env, "env", "", "Logging preset: development, staging or production")
	rootCmd.PersistentFlags().StringVar(&level, "log-level", "", "Log level: debug, info, warn, error (default info)")
	rootCmd.PersistentFlags().StringVar(&format, "log-format", "", "Log format: text or json (default text)")

	app.addReplCommand(rootCmd)
	app.addRunCommand(rootCmd)
	app.addServeCommand(rootCmd)

	return rootCmd
}

// newRegistry builds a registry from the loaded configuration with the demo
// commands installed.
func (app *App) newRegistry(opts ...command.Option) (*command.Registry, error) {
	opts = append([]command.Option{command.WithLogger(app.Logger)}, opts...)
	r := command.NewFromConfig(app.Config.Registry, opts...)
	if err := registerDemo(r); err != nil {
		_ = r.Dispose()
		return nil, err
	}
	return r, nil
}

func newLogger(cfg Config, out io.Writer) (*slog.Logger, error) {
	var opts []logger.Option
	switch strings.ToLower(cfg.Env) {
	case "development", "dev":
		opts = append(opts, logger.WithDevelopment("hq"))
	case "staging":
		opts = append(opts, logger.WithStaging("hq"))
	case "production", "prod":
		opts = append(opts, logger.WithProduction("hq"))
	case "":
		opts = append(opts, logger.WithAttr(logger.Component("hq")))
	default:
		return nil, fmt.Errorf("invalid environment %q", cfg.Env)
	}

	if cfg.LogLevel != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		opts = append(opts, logger.WithLevel(lvl))
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		opts = append(opts, logger.WithJSONFormatter())
	case "text":
		opts = append(opts, logger.WithTextFormatter())
	case "":
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}

	opts = append(opts,
		logger.WithOutput(out),
		logger.WithContextExtractors(httpRequestID),
	)
	return logger.New(opts...), nil
}

// httpRequestID adds the ID assigned by the HTTP middleware to records
// logged with a request context.
func httpRequestID(ctx context.Context) (slog.Attr, bool) {
	if id, ok := server.GetRequestID(ctx); ok {
		return logger.RequestID(id), true
	}
	return slog.Attr{}, false
}
