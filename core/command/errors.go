package command

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrEmptyInput is reported for blank input text.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnknownCommandName is reported when no registered command matches the input.
	ErrUnknownCommandName = errors.New("unknown command name")

	// ErrInvalidArguments is returned when an argument list has the wrong shape.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrNoExecutorFound is returned when a command declares no executors.
	ErrNoExecutorFound = errors.New("no executor found")

	// ErrMalformedExecutor is returned when an executor, subcommand, precondition
	// or error handler has an unsupported signature.
	ErrMalformedExecutor = errors.New("malformed executor")

	// ErrInvalidParameter is returned when declared parameters do not match the executor.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrIncorrectType is returned when a descriptor lacks the command marker.
	ErrIncorrectType = errors.New("incorrect type")

	// ErrParsingFailed is returned when a token cannot be converted to a parameter type.
	ErrParsingFailed = errors.New("parsing failed")

	// ErrPreconditionFailed is reported when a command's precondition rejects the input.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrCommandFailed wraps an error returned or raised by a command handler.
	ErrCommandFailed = errors.New("command failed")

	// ErrRegistryDisposed is returned once the registry has been disposed.
	ErrRegistryDisposed = errors.New("registry disposed")

	// ErrContextKind is returned when a context value has a different type than requested.
	ErrContextKind = errors.New("context value has unexpected kind")

	// ErrContextKeyNotFound is returned when a context key is not set.
	ErrContextKeyNotFound = errors.New("context key not found")

	// ErrHealthcheckFailed is returned when the registry health check fails.
	ErrHealthcheckFailed = errors.New("healthcheck failed")

	// ErrShutdownTimeout is returned when in-flight commands outlive the shutdown timeout.
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")
)

// Error is a classified fault raised during verification or dispatch.
// errors.Is matches both the Reason sentinel and anything in the wrapped chain.
type Error struct {
	Reason   error        // one of the sentinel errors above
	Message  string       // human readable detail
	Expected reflect.Type // target type of a failed conversion
	Raw      []string     // tokens that failed to convert
	Err      error        // underlying cause
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Expected != nil {
		fmt.Fprintf(&b, " (expected %s from %q)", e.Expected, strings.Join(e.Raw, " "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the error's reason.
func (e *Error) Is(target error) bool {
	return target == e.Reason
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(reason error, format string, args ...any) *Error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func wrapError(reason, err error, format string, args ...any) *Error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...), Err: err}
}
