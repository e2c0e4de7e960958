package command

import (
	"reflect"

	"github.com/dmitrymomot/headquarters/core/trigger"
)

// param is a verified executor parameter.
type param struct {
	name        string
	typ         reflect.Type
	rule        ParameterRule
	def         reflect.Value // invalid when no default was declared
	placeholder bool
}

// invokeFunc calls a verified handler with converted arguments.
type invokeFunc func(ctx ContextObject, args []reflect.Value) (any, error)

// Executor is a verified, immutable executor or subcommand.
type Executor struct {
	name        string
	description string
	pattern     *trigger.Pattern
	async       bool
	params      []param
	invoke      invokeFunc

	parent   *Executor
	children []*Executor
}

// Name returns the executor name.
func (e *Executor) Name() string { return e.name }

// Description returns the executor description.
func (e *Executor) Description() string { return e.description }

// Trigger returns the compiled trigger pattern.
func (e *Executor) Trigger() *trigger.Pattern { return e.pattern }

// Async reports whether the handler returns a future.
func (e *Executor) Async() bool { return e.async }

// Parent returns the parent executor of a subcommand, or nil.
func (e *Executor) Parent() *Executor { return e.parent }

// Subcommands returns the subcommands reachable through this executor.
func (e *Executor) Subcommands() []*Executor {
	return append([]*Executor(nil), e.children...)
}

// Rules returns the parameter rules in declaration order.
func (e *Executor) Rules() []ParameterRule {
	rules := make([]ParameterRule, len(e.params))
	for i, p := range e.params {
		rules[i] = p.rule
	}
	return rules
}

// Types returns the parameter target types in declaration order.
func (e *Executor) Types() []reflect.Type {
	types := make([]reflect.Type, len(e.params))
	for i, p := range e.params {
		types[i] = p.typ
	}
	return types
}

// preconditionFunc is a normalized precondition.
type preconditionFunc func(ctx ContextObject) (ResultKind, error)

// errorHandlerFunc is a normalized error handler.
type errorHandlerFunc func(ctx ContextObject, expected reflect.Type, given string, fault error) error

// Metadata is the verified form of a Descriptor.
type Metadata struct {
	name         string
	executors    []*Executor
	subcommands  []*Executor
	precondition preconditionFunc
	onError      errorHandlerFunc
}

// Name returns the command name.
func (m *Metadata) Name() string { return m.name }

// Executors returns the root executors in registration order.
func (m *Metadata) Executors() []*Executor {
	return append([]*Executor(nil), m.executors...)
}

// Subcommands returns every subcommand of the command.
func (m *Metadata) Subcommands() []*Executor {
	return append([]*Executor(nil), m.subcommands...)
}

// HasPrecondition reports whether a precondition was declared.
func (m *Metadata) HasPrecondition() bool { return m.precondition != nil }

// HasErrorHandler reports whether an error handler was declared.
func (m *Metadata) HasErrorHandler() bool { return m.onError != nil }

// match returns the first root executor whose trigger matches text.
func (m *Metadata) match(text string) (*Executor, *trigger.Match) {
	for _, e := range m.executors {
		if match, ok := e.pattern.Match(text); ok {
			return e, match
		}
	}
	return nil, nil
}
