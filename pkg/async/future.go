package async

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	value U
	err   error
	once  sync.Once
	done  chan struct{}
}

func newFuture[U any]() *Future[U] {
	return &Future[U]{done: make(chan struct{})}
}

// complete stores the result exactly once and releases all waiters.
func (f *Future[U]) complete(value U, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Await waits for the asynchronous function to complete and returns its result.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.value, f.err
}

// AwaitContext waits for completion or for ctx to be done, whichever comes first.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// AwaitWithTimeout waits for the asynchronous function to complete with a timeout.
// If the timeout occurs before completion, returns ErrTimeout.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete checks if the asynchronous function is complete without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Async executes fn asynchronously with the given parameter.
// A panic inside fn is recovered and reported as an error wrapping ErrPanic.
func Async[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := newFuture[U]()

	go func() {
		var zero U

		// Early exit prevents running work for a pre-canceled context
		select {
		case <-ctx.Done():
			f.complete(zero, ctx.Err())
			return
		default:
		}

		defer func() {
			if r := recover(); r != nil {
				f.complete(zero, fmt.Errorf("%w: %v", ErrPanic, r))
			}
		}()

		value, err := fn(ctx, param)
		f.complete(value, err)
	}()

	return f
}

// Run executes fn asynchronously without a context or parameter.
func Run[U any](fn func() (U, error)) *Future[U] {
	return Async(context.Background(), struct{}{}, func(context.Context, struct{}) (U, error) {
		return fn()
	})
}

// Resolved returns an already completed future.
func Resolved[U any](value U, err error) *Future[U] {
	f := newFuture[U]()
	f.complete(value, err)
	return f
}

// WaitAll waits for all futures to complete and returns their results in order.
// The first error encountered is returned together with the results collected so far.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, 0, len(futures))
	for _, future := range futures {
		value, err := future.Await()
		if err != nil {
			return results, err
		}
		results = append(results, value)
	}
	return results, nil
}

// WaitAny waits for any of the futures to complete and returns the index of the
// completed future with its result.
// Note: This function spawns one goroutine per future. All goroutines will complete naturally
// when their respective futures finish.
func WaitAny[U any](futures ...*Future[U]) (int, U, error) {
	if len(futures) == 0 {
		var zero U
		return -1, zero, ErrNoFutures
	}

	type result struct {
		index int
		value U
		err   error
	}

	done := make(chan result, len(futures))
	for i, future := range futures {
		go func(index int, f *Future[U]) {
			value, err := f.Await()
			done <- result{index: index, value: value, err: err}
		}(i, future)
	}

	res := <-done
	return res.index, res.value, res.err
}
