package command

import "fmt"

// safeCall runs fn and converts a panic into an error.
// It is the single point of panic recovery for handlers, preconditions,
// error handlers, scanners and callbacks.
func safeCall[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
