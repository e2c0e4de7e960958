package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/headquarters/core/logger"
)

type ctxKey struct{}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json output with attrs", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithJSONFormatter(),
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("service", "hq")),
		)

		log.Info("Test message", logger.Component("test"))

		output := buf.String()
		assert.Contains(t, output, `"msg":"Test message"`)
		assert.Contains(t, output, `"component":"test"`)
		assert.Contains(t, output, `"service":"hq"`)
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))

		log.Info("hidden")
		log.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("development is text at debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithDevelopment("hq"), logger.WithOutput(&buf))

		log.Debug("debugging")

		assert.Contains(t, buf.String(), "msg=debugging")
		assert.Contains(t, buf.String(), "env=development")
	})

	t.Run("production is json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithProduction("hq"), logger.WithOutput(&buf))

		log.Debug("dropped")
		log.Info("kept")

		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), `"env":"production"`)
	})
}

func TestContextExtractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithContextExtractors(
			func(ctx context.Context) (slog.Attr, bool) {
				id, ok := ctx.Value(ctxKey{}).(string)
				return logger.RequestID(id), ok
			},
			func(ctx context.Context) (slog.Attr, bool) {
				return logger.Transport("test"), true
			},
		),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	log.With(logger.Component("c")).WithGroup("g").InfoContext(ctx, "with context")
	log.InfoContext(context.Background(), "without value")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"request_id":"req-1"`)
	assert.Contains(t, string(lines[0]), `"component":"c"`)
	assert.NotContains(t, string(lines[1]), "request_id")
	assert.Contains(t, string(lines[1]), `"transport":"test"`)
}
