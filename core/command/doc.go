// Package command turns free-form text into typed handler invocations.
//
// Commands are registered as plain descriptors, verified once at
// registration time and dispatched by a registry that takes submissions in
// order and runs them on worker goroutines.
//
// # Core Concepts
//
//   - A trigger pattern decides whether input belongs to an executor and
//     extracts named fields from it (see package trigger)
//   - Executors are ordinary Go functions taking a ContextObject followed by
//     typed arguments
//   - Converters turn tokens into argument values
//   - Scanners intercept input before command resolution
//   - Pipes chain commands, forwarding each output to the next segment
//
// # Quick Start
//
//	import "github.com/dmitrymomot/headquarters/core/command"
//
//	registry := command.New(command.WithLogger(logger))
//	defer registry.Dispose()
//
//	add := func(_ command.ContextObject, a, b int) int { return a + b }
//
//	err := registry.AddCommand(command.Define("calc").
//	    Executor("add {a} {b}", add).
//	    Describe("adds two numbers").
//	    Build())
//
//	registry.HandleInput("add 2 3", nil, func(kind command.ResultKind, payload any) {
//	    fmt.Println(kind, payload) // success 5
//	})
//
// # Triggers and Parameters
//
// Placeholders bind to the leading parameters in order, and their names
// must match the declared parameter names. Parameters after the placeholders
// take the remaining tokens. Every parameter consumes one token unless
// declared otherwise:
//
//	command.Define("notes").
//	    Executor("note {title}", saveNote,
//	        command.Param("title"),
//	        command.Param("body", command.Variadic()),
//	    )
//
// A quoted span is always a single token:
//
//	note groceries "milk and eggs" -> saveNote(ctx, "groceries", "milk and eggs")
//
// Parameters left without tokens receive their declared default or the zero value.
//
// # Ordering Rules
//
// Verification rejects a required parameter after an optional one and any
// parameter after an unbounded (Variadic) one. The faults are classified
// with ErrInvalidParameter.
//
// # Preconditions and Error Handlers
//
// A precondition gates every executor of a command:
//
//	command.Define("admin").
//	    Precondition(func(ctx command.ContextObject) bool {
//	        return command.RetrieveOr(ctx, "admin", false)
//	    })
//
// Returning false (or Failure) reports ErrPreconditionFailed without running
// the executor. Conversion failures and handler errors go to the command's
// error handler before being reported as Failure:
//
//	command.Define("calc").
//	    OnError(func(ctx command.ContextObject, expected reflect.Type, given string, err error) {
//	        log.Warn("bad input", "expected", expected, "given", given, "error", err)
//	    })
//
// # Subcommands
//
// A subcommand is reached through its parent's leading token:
//
//	command.Define("config").
//	    Executor("config", showConfig).
//	    Subcommand("config", "set", setConfig, command.Param("key"), command.Param("value"))
//
//	config set color blue -> setConfig(ctx, "color", "blue")
//
// # Pipes
//
// Input containing the pipe separator (default "|") runs as a chain. Each
// segment starts only after the previous one finished, and its output is
// appended as the last argument of the next segment:
//
//	registry.HandleInput("sum 1 2 3 | double", ctx, cb) // success 12
//
// A segment that matches nothing reports Unhandled, and a failing segment
// stops the chain with its Failure.
//
// # Scanners
//
// Scanners are checked before commands and receive a LightweightParser:
//
//	registry.AddScanner("^/me {action}", trigger.Options{}, func(ctx command.ContextObject, m *trigger.Match, lw *command.LightweightParser) (any, error) {
//	    action, _ := m.Value("action")
//	    ctx.Finalize() // one-shot: removed after this call
//	    return action, nil
//	})
//
// # Asynchronous Executors
//
// An executor marked async returns *async.Future[any] and the registry
// awaits it on the worker:
//
//	command.Define("fetch").Async().
//	    Executor("fetch {url}", func(ctx command.ContextObject, url string) *async.Future[any] {
//	        return async.Run(func() (any, error) { return http.Get(url) })
//	    })
//
// # Lifecycle
//
// Dispose stops intake. Submissions still queued are reported as Failure
// with ErrRegistryDisposed; running commands are awaited up to the shutdown
// timeout. Run adapts the registry to errgroup:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(registry.Run(ctx))
//
// # Error Handling
//
// Verification and dispatch faults are *Error values. Classify them with errors.Is:
//
//	if errors.Is(err, command.ErrParsingFailed) {
//	    var e *command.Error
//	    errors.As(err, &e)
//	    fmt.Println(e.Expected, e.Raw)
//	}
package command
