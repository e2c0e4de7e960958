package command_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/headquarters/core/command"
	"github.com/dmitrymomot/headquarters/core/trigger"
	"github.com/dmitrymomot/headquarters/pkg/async"
)

func hello(command.ContextObject) string { return "hello" }

func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("valid command", func(t *testing.T) {
		t.Parallel()

		md, err := command.Verify(command.Define("math").
			Executor("add {a} {b}", func(_ command.ContextObject, a, b int) int { return a + b }).
			Describe("adds two numbers").
			Executor("neg {n}", func(_ command.ContextObject, n int) (int, error) { return -n, nil }).
			Build())
		require.NoError(t, err)

		assert.Equal(t, "math", md.Name())
		execs := md.Executors()
		require.Len(t, execs, 2)
		assert.Equal(t, "add", execs[0].Name())
		assert.Equal(t, "adds two numbers", execs[0].Description())
		assert.Equal(t, "add {a} {b}", execs[0].Trigger().String())
		assert.Equal(t, []reflect.Type{reflect.TypeFor[int](), reflect.TypeFor[int]()}, execs[0].Types())
		assert.False(t, md.HasPrecondition())
		assert.False(t, md.HasErrorHandler())
	})

	t.Run("rejects nil and unmarked descriptors", func(t *testing.T) {
		t.Parallel()

		_, err := command.Verify(nil)
		assert.ErrorIs(t, err, command.ErrIncorrectType)

		_, err = command.Verify(&command.Descriptor{
			Name:      "plain",
			Executors: []command.MethodDescriptor{{Name: "hello", Func: hello, Trigger: "hello"}},
		})
		assert.ErrorIs(t, err, command.ErrIncorrectType)
	})

	t.Run("requires an executor", func(t *testing.T) {
		t.Parallel()

		_, err := command.Verify(command.Define("empty").Build())
		assert.ErrorIs(t, err, command.ErrNoExecutorFound)
	})

	t.Run("malformed executors", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name    string
			pattern string
			fn      any
		}{
			{"not a function", "x", "nope"},
			{"nil function", "x", (func(command.ContextObject) string)(nil)},
			{"no context parameter", "x", func() string { return "" }},
			{"wrong first parameter", "x", func(int) string { return "" }},
			{"variadic", "x", func(command.ContextObject, ...string) string { return "" }},
			{"no return value", "x", func(command.ContextObject) {}},
			{"second return not error", "x", func(command.ContextObject) (int, int) { return 0, 0 }},
			{"too many returns", "x", func(command.ContextObject) (int, int, error) { return 0, 0, nil }},
			{"more placeholders than arguments", "x {a} {b}", func(command.ContextObject, string) string { return "" }},
			{"bad trigger", "x {a} {a}", func(command.ContextObject, string, string) string { return "" }},
			{"empty trigger", "", hello},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				_, err := command.Verify(command.Define("bad").Executor(tt.pattern, tt.fn).Build())
				assert.ErrorIs(t, err, command.ErrMalformedExecutor)
			})
		}
	})

	t.Run("async executor must return a future", func(t *testing.T) {
		t.Parallel()

		_, err := command.Verify(command.Define("slow").Async().Executor("slow", hello).Build())
		assert.ErrorIs(t, err, command.ErrMalformedExecutor)

		md, err := command.Verify(command.Define("slow").Async().
			Executor("slow", func(command.ContextObject) *async.Future[any] { return async.Resolved[any](1, nil) }).
			Executor("fast", hello).Sync().
			Build())
		require.NoError(t, err)
		assert.True(t, md.Executors()[0].Async())
		assert.False(t, md.Executors()[1].Async())
	})

	t.Run("invalid parameters", func(t *testing.T) {
		t.Parallel()

		two := func(command.ContextObject, string, string) string { return "" }
		tests := []struct {
			name    string
			pattern string
			params  []command.ParamDescriptor
		}{
			{"count mismatch", "x {a}", []command.ParamDescriptor{command.Param("a")}},
			{"name mismatch", "x {a}", []command.ParamDescriptor{command.Param("b"), command.Param("c")}},
			{"required after optional", "x", []command.ParamDescriptor{command.Param("a", command.Optional()), command.Param("b")}},
			{"after variadic", "x", []command.ParamDescriptor{command.Param("a", command.Variadic()), command.Param("b", command.Optional())}},
			{"bad default", "x", []command.ParamDescriptor{command.Param("a", command.Default(3.5i)), command.Param("b")}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				_, err := command.Verify(command.Define("bad").Executor(tt.pattern, two, tt.params...).Build())
				assert.ErrorIs(t, err, command.ErrInvalidParameter)
			})
		}

		t.Run("undeclared extra argument", func(t *testing.T) {
			t.Parallel()
			_, err := command.Verify(command.Define("bad").Executor("x {a}", two).Build())
			assert.ErrorIs(t, err, command.ErrInvalidParameter)
		})
	})

	t.Run("derived rules", func(t *testing.T) {
		t.Parallel()

		md, err := command.Verify(command.Define("rules").
			Executor("r {a} {b?}", func(command.ContextObject, string, string, []string, []int) string { return "" },
				command.Param("a"),
				command.Param("b"),
				command.Param("pair", command.Width(2), command.Optional()),
				command.Param("rest", command.Variadic()),
			).Build())
		require.NoError(t, err)

		rules := md.Executors()[0].Rules()
		assert.Equal(t, []command.ParameterRule{
			{Repetitions: 1, Derived: true},
			{Repetitions: 1, Optional: true, Derived: true},
			{Repetitions: 2, Optional: true},
			{Repetitions: 0, Optional: true},
		}, rules)
	})

	t.Run("numeric defaults convert", func(t *testing.T) {
		t.Parallel()

		_, err := command.Verify(command.Define("d").
			Executor("d", func(command.ContextObject, float64) string { return "" },
				command.Param("n", command.Optional(), command.Default(2))).
			Build())
		assert.NoError(t, err)
	})

	t.Run("subcommands", func(t *testing.T) {
		t.Parallel()

		md, err := command.Verify(command.Define("config").
			Executor("config", hello).
			Subcommand("config", "set", func(command.ContextObject, string, string) string { return "" },
				command.Param("key"), command.Param("value")).
			Build())
		require.NoError(t, err)

		subs := md.Subcommands()
		require.Len(t, subs, 1)
		assert.Equal(t, "set", subs[0].Name())
		assert.Same(t, md.Executors()[0], subs[0].Parent())
		assert.Len(t, md.Executors()[0].Subcommands(), 1)

		_, err = command.Verify(command.Define("config").
			Executor("config", hello).
			Subcommand("missing", "set", hello).
			Build())
		assert.ErrorIs(t, err, command.ErrMalformedExecutor)
	})

	t.Run("subcommand trigger must be one word", func(t *testing.T) {
		t.Parallel()

		_, err := command.Verify(command.Define("admin").
			Executor("admin", hello).
			Subcommand("admin", "ban {user}", func(_ command.ContextObject, user string) string { return user }).
			Build())
		require.ErrorIs(t, err, command.ErrMalformedExecutor)
		assert.Contains(t, err.Error(), "single word")
	})

	t.Run("precondition shapes", func(t *testing.T) {
		t.Parallel()

		valid := []any{
			func(command.ContextObject) bool { return true },
			func(command.ContextObject) command.ResultKind { return command.Success },
			func(command.ContextObject) (bool, error) { return true, nil },
			func(command.ContextObject) (command.ResultKind, error) { return command.Success, nil },
			func(command.ContextObject) *async.Future[any] { return async.Resolved[any](true, nil) },
		}
		for _, fn := range valid {
			_, err := command.Verify(command.Define("p").Executor("p", hello).Precondition(fn).Build())
			assert.NoError(t, err, "%T", fn)
		}

		invalid := []any{
			"nope",
			func() bool { return true },
			func(command.ContextObject) string { return "" },
			func(command.ContextObject) (bool, string) { return true, "" },
			func(command.ContextObject, int) bool { return true },
		}
		for _, fn := range invalid {
			_, err := command.Verify(command.Define("p").Executor("p", hello).Precondition(fn).Build())
			assert.ErrorIs(t, err, command.ErrMalformedExecutor, "%T", fn)
		}
	})

	t.Run("error handler shapes", func(t *testing.T) {
		t.Parallel()

		valid := []any{
			func(command.ContextObject, reflect.Type, string, error) {},
			func(command.ContextObject, reflect.Type, string, error) error { return nil },
			func(command.ContextObject, reflect.Type, string, error) *async.Future[any] { return nil },
		}
		for _, fn := range valid {
			md, err := command.Verify(command.Define("e").Executor("e", hello).OnError(fn).Build())
			require.NoError(t, err, "%T", fn)
			assert.True(t, md.HasErrorHandler())
		}

		invalid := []any{
			func(command.ContextObject, reflect.Type, string) {},
			func(command.ContextObject, string, string, error) {},
			func(command.ContextObject, reflect.Type, int, error) {},
			func(command.ContextObject, reflect.Type, string, error) string { return "" },
		}
		for _, fn := range invalid {
			_, err := command.Verify(command.Define("e").Executor("e", hello).OnError(fn).Build())
			assert.ErrorIs(t, err, command.ErrMalformedExecutor, "%T", fn)
		}
	})

	t.Run("error wraps cause", func(t *testing.T) {
		t.Parallel()

		_, err := command.Verify(command.Define("bad").Executor("x {a} {a}",
			func(command.ContextObject, string, string) string { return "" }).Build())
		assert.ErrorIs(t, err, command.ErrMalformedExecutor)
		assert.True(t, errors.Is(err, trigger.ErrDuplicatePlaceholder))
	})
}
