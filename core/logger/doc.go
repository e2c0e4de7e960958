// Package logger provides structured logging utilities built on Go's standard slog package.
// It offers environment-specific configurations, context-aware attribute extraction
// and a set of pre-built attributes for the dispatch pipeline.
//
// # Features
//
//   - Built on Go's standard slog for compatibility and performance
//   - Context-aware attribute extraction for request-scoped data
//   - Environment-specific configurations (development, staging, production)
//   - Attribute helpers for common logging patterns
//   - Support for both JSON and text output formats
//   - Type-safe attribute creation with nil safety
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/headquarters/core/logger"
//
//	// Development: text format, debug level, stdout
//	log := logger.New(logger.WithDevelopment("hq"))
//
//	// Production: JSON format, info level, stdout
//	log := logger.New(logger.WithProduction("hq"))
//
//	// Custom configuration
//	log := logger.New(
//		logger.WithLevel(slog.LevelWarn),
//		logger.WithJSONFormatter(),
//		logger.WithAttr(slog.String("node", "outpost-1")),
//		logger.WithOutput(os.Stderr),
//	)
//
// # Context-Aware Logging
//
// Extract attributes automatically from context values:
//
//	log := logger.New(
//		logger.WithProduction("hq"),
//		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//			if id := command.RequestID(ctx); id != "" {
//				return logger.RequestID(id), true
//			}
//			return slog.Attr{}, false
//		}),
//	)
//
//	log.InfoContext(ctx, "command started")
//	// Output: {"level":"INFO","msg":"command started","request_id":"6f1c..."}
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for empty input where that makes sense,
// so they can be passed without nil checks:
//
//	log.Warn("input failed",
//		logger.RequestID(id),
//		logger.Input(text),
//		logger.Command(name),
//		logger.Kind("failure"),
//		logger.Error(err),
//	)
//
//	log.Info("outpost listening",
//		logger.Transport("redis"),
//		logger.Channel("hq:input"),
//	)
//
//	start := time.Now()
//	// ... do work ...
//	log.Debug("segment finished", logger.Segment(1), logger.Elapsed(start))
//
// # Testing with Custom Output
//
//	var buf bytes.Buffer
//	log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf))
//	log.Info("Test message", logger.Component("test"))
//	assert.Contains(t, buf.String(), `"component":"test"`)
package logger
