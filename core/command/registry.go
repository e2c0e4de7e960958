package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/dmitrymomot/headquarters/core/logger"
	"github.com/dmitrymomot/headquarters/core/trigger"
)

// Registry holds commands, scanners and converters and dispatches input to them.
// Submissions are taken in order by a single loop goroutine and executed on
// worker goroutines.
//
// Example:
//
//	registry := command.New(command.WithLogger(logger))
//	defer registry.Dispose()
//
//	err := registry.AddCommand(command.Define("hello").
//	    Executor("hello", func(command.ContextObject) string { return "Hello!" }).
//	    Build())
//
//	registry.HandleInput("hello", nil, func(kind command.ResultKind, payload any) {
//	    fmt.Println(kind, payload)
//	})
type Registry struct {
	mu         sync.RWMutex
	commands   []*Metadata
	scanners   []*scanner
	converters Converters

	logger          *slog.Logger
	separator       string
	maxWorkers      int
	sem             *semaphore.Weighted
	shutdownTimeout time.Duration
	listeners       []func(ResultEvent)
	defaults        bool
	parser          *parser

	// queue
	qmu      sync.Mutex
	pending  []*request
	signal   chan struct{}
	disposed bool

	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	wg       sync.WaitGroup

	received       atomic.Int64
	succeeded      atomic.Int64
	failed         atomic.Int64
	unhandled      atomic.Int64
	scanned        atomic.Int64
	active         atomic.Int32
	lastActivityAt atomic.Int64
}

// Stats provides observability metrics for monitoring and debugging.
type Stats struct {
	Received       int64
	Succeeded      int64
	Failed         int64
	Unhandled      int64
	Scanned        int64
	Active         int32
	Pending        int
	Commands       int
	Scanners       int
	IsRunning      bool
	LastActivityAt time.Time
}

// New creates a registry and starts its dispatch loop.
// Call Dispose to stop it.
func New(opts ...Option) *Registry {
	r := &Registry{
		converters:      Converters{},
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		separator:       "|",
		shutdownTimeout: 30 * time.Second,
		defaults:        true,
		signal:          make(chan struct{}, 1),
		loopDone:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.defaults {
		for kind, conv := range DefaultConverters() {
			if _, taken := r.converters[kind]; !taken {
				r.converters[kind] = conv
			}
		}
	}
	if r.maxWorkers > 0 {
		r.sem = semaphore.NewWeighted(int64(r.maxWorkers))
	}
	r.parser = &parser{converters: r, logger: r.logger}

	r.ctx, r.cancel = context.WithCancel(context.Background())
	go r.loop()

	return r
}

// AddCommand verifies desc and registers the resulting command.
// Commands are resolved in registration order; the first match wins.
func (r *Registry) AddCommand(desc *Descriptor) error {
	md, err := Verify(desc)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isDisposed() {
		return ErrRegistryDisposed
	}
	r.commands = append(r.commands, md)

	r.logger.Debug("command registered",
		logger.Command(md.name),
		logger.Count("executors", len(md.executors)),
		logger.Count("subcommands", len(md.subcommands)))
	return nil
}

// AddConverter registers c for kind, replacing any previous converter.
func (r *Registry) AddConverter(kind reflect.Type, c Converter) error {
	if kind == nil || c == nil {
		return newError(ErrInvalidArguments, "converter and kind are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isDisposed() {
		return ErrRegistryDisposed
	}
	r.converters[kind] = c
	return nil
}

// Converter returns the converter registered for kind.
func (r *Registry) Converter(kind reflect.Type) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.converters[kind]
	return c, ok
}

// AddScanner registers a scanner. Scanners are checked before commands.
func (r *Registry) AddScanner(pattern string, opts trigger.Options, fn ScannerFunc) error {
	if fn == nil {
		return newError(ErrInvalidArguments, "scanner function is required")
	}
	p, err := trigger.Compile(pattern, opts)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isDisposed() {
		return ErrRegistryDisposed
	}
	r.scanners = append(r.scanners, &scanner{pattern: p, run: fn})
	return nil
}

// AddAsyncScanner registers a scanner whose value is resolved through a future.
func (r *Registry) AddAsyncScanner(pattern string, opts trigger.Options, fn AsyncScannerFunc) error {
	if fn == nil {
		return newError(ErrInvalidArguments, "scanner function is required")
	}
	return r.AddScanner(pattern, opts, awaitScanner(fn))
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []*Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Metadata(nil), r.commands...)
}

// HandleInput queues text for dispatch and returns immediately.
// cb is invoked exactly once with the outcome. A nil ctx is replaced by a
// fresh ContextObject and a nil cb discards the outcome.
// It returns ErrRegistryDisposed, without invoking cb, once Dispose was called.
func (r *Registry) HandleInput(text string, ctx ContextObject, cb Callback) error {
	if ctx == nil {
		ctx = NewContextObject()
	}
	if cb == nil {
		cb = func(ResultKind, any) {}
	}

	req := &request{id: uuid.NewString(), text: text, ctx: ctx, cb: cb}

	r.qmu.Lock()
	if r.disposed {
		r.qmu.Unlock()
		return ErrRegistryDisposed
	}
	r.pending = append(r.pending, req)
	r.qmu.Unlock()

	r.received.Add(1)
	select {
	case r.signal <- struct{}{}:
	default:
	}
	return nil
}

// Dispose stops the dispatch loop. Queued submissions are reported as
// Failure with ErrRegistryDisposed; running commands are awaited for up to
// the shutdown timeout but never cancelled.
// Later calls return ErrRegistryDisposed.
func (r *Registry) Dispose() error {
	r.qmu.Lock()
	if r.disposed {
		r.qmu.Unlock()
		return ErrRegistryDisposed
	}
	r.disposed = true
	r.qmu.Unlock()

	r.cancel()
	<-r.loopDone

	r.qmu.Lock()
	abandoned := r.pending
	r.pending = nil
	r.qmu.Unlock()

	for _, req := range abandoned {
		r.finish(req, Failure, ErrRegistryDisposed)
	}

	r.logger.Info("registry stopping, waiting for active commands to complete",
		logger.Count("abandoned", len(abandoned)),
		logger.Duration(r.shutdownTimeout))

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("registry stopped cleanly")
		return nil
	case <-time.After(r.shutdownTimeout):
		r.logger.Warn("registry shutdown timeout exceeded - some commands are still running",
			logger.Duration(r.shutdownTimeout))
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, r.shutdownTimeout)
	}
}

// Run provides errgroup compatibility. The returned function blocks until
// ctx is cancelled and then disposes the registry.
//
// Example:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(registry.Run(ctx))
func (r *Registry) Run(ctx context.Context) func() error {
	return func() error {
		select {
		case <-ctx.Done():
		case <-r.loopDone:
		}
		if err := r.Dispose(); err != nil && !errors.Is(err, ErrRegistryDisposed) {
			return err
		}
		return nil
	}
}

// Stats returns current dispatch statistics.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	commands, scanners := len(r.commands), len(r.scanners)
	r.mu.RUnlock()

	r.qmu.Lock()
	pending, running := len(r.pending), !r.disposed
	r.qmu.Unlock()

	var last time.Time
	if ts := r.lastActivityAt.Load(); ts > 0 {
		last = time.Unix(0, ts)
	}

	return Stats{
		Received:       r.received.Load(),
		Succeeded:      r.succeeded.Load(),
		Failed:         r.failed.Load(),
		Unhandled:      r.unhandled.Load(),
		Scanned:        r.scanned.Load(),
		Active:         r.active.Load(),
		Pending:        pending,
		Commands:       commands,
		Scanners:       scanners,
		IsRunning:      running,
		LastActivityAt: last,
	}
}

// Healthcheck validates that the registry is accepting input.
func (r *Registry) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	if !r.Stats().IsRunning {
		return errors.Join(ErrHealthcheckFailed, ErrRegistryDisposed)
	}
	return nil
}

func (r *Registry) isDisposed() bool {
	r.qmu.Lock()
	defer r.qmu.Unlock()
	return r.disposed
}
