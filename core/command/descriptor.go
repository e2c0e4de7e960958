package command

import (
	"strings"

	"github.com/dmitrymomot/headquarters/core/trigger"
)

// Descriptor is the normalized registration input of one command type.
// It is plain data; Verify turns it into immutable Metadata.
type Descriptor struct {
	Name         string
	Marked       bool // the command marker; unmarked descriptors are rejected
	AsyncDefault bool // executors without an explicit Async flag inherit this

	Executors   []MethodDescriptor
	Subcommands []MethodDescriptor

	// Precondition is a func(ContextObject) returning bool, ResultKind,
	// (bool, error), (ResultKind, error) or *async.Future[any].
	Precondition any

	// ErrorHandler is a func(ContextObject, reflect.Type, string, error)
	// optionally returning error or *async.Future[any].
	ErrorHandler any
}

// MethodDescriptor describes one executor or subcommand.
//
// Func takes a ContextObject followed by one argument per entry in Params.
// A synchronous Func returns a value and optionally an error; an asynchronous
// one returns *async.Future[any].
type MethodDescriptor struct {
	Name        string
	Func        any
	Trigger     string
	Options     trigger.Options
	Description string
	Parent      string // name of the parent executor, subcommands only
	Async       *bool  // nil inherits Descriptor.AsyncDefault
	Params      []ParamDescriptor
}

// Builder assembles a Descriptor.
//
// Example:
//
//	desc := command.Define("greeter").
//	    Executor("greet {name}", greet, command.Param("name")).
//	    Describe("greets someone").
//	    Precondition(isLoggedIn).
//	    Build()
//
//	if err := registry.AddCommand(desc); err != nil {
//	    return err
//	}
type Builder struct {
	desc Descriptor
	last *MethodDescriptor
}

// Define starts a marked descriptor named name.
func Define(name string) *Builder {
	return &Builder{desc: Descriptor{Name: name, Marked: true}}
}

// Async makes executors asynchronous unless they say otherwise.
func (b *Builder) Async() *Builder {
	b.desc.AsyncDefault = true
	return b
}

// Executor adds an executor matched from the start of the input.
// The executor is named after the first word of the trigger.
func (b *Builder) Executor(pattern string, fn any, params ...ParamDescriptor) *Builder {
	return b.Method(MethodDescriptor{
		Name:    firstWord(pattern),
		Func:    fn,
		Trigger: pattern,
		Options: trigger.Prefix(),
		Params:  params,
	})
}

// Subcommand adds a subcommand of the executor named parent.
// The pattern is matched against the whole leading argument token, so it
// must be a single word; declare further arguments with params instead:
//
//	Subcommand("admin", "ban", ban, command.Param("user"))
func (b *Builder) Subcommand(parent, pattern string, fn any, params ...ParamDescriptor) *Builder {
	b.desc.Subcommands = append(b.desc.Subcommands, MethodDescriptor{
		Name:    firstWord(pattern),
		Func:    fn,
		Trigger: pattern,
		Options: trigger.Options{MatchFromStart: true, MatchAtEnd: true},
		Parent:  parent,
		Params:  params,
	})
	b.last = &b.desc.Subcommands[len(b.desc.Subcommands)-1]
	return b
}

// Method adds a fully specified executor.
func (b *Builder) Method(m MethodDescriptor) *Builder {
	b.desc.Executors = append(b.desc.Executors, m)
	b.last = &b.desc.Executors[len(b.desc.Executors)-1]
	return b
}

// Describe sets the description of the most recently added method.
func (b *Builder) Describe(description string) *Builder {
	if b.last != nil {
		b.last.Description = description
	}
	return b
}

// Sync forces the most recently added method to run synchronously.
func (b *Builder) Sync() *Builder {
	if b.last != nil {
		f := false
		b.last.Async = &f
	}
	return b
}

// Precondition sets the gate run before every executor of the command.
func (b *Builder) Precondition(fn any) *Builder {
	b.desc.Precondition = fn
	return b
}

// OnError sets the command's error handler.
func (b *Builder) OnError(fn any) *Builder {
	b.desc.ErrorHandler = fn
	return b
}

// Build returns the assembled descriptor.
func (b *Builder) Build() *Descriptor {
	d := b.desc
	d.Executors = append([]MethodDescriptor(nil), b.desc.Executors...)
	d.Subcommands = append([]MethodDescriptor(nil), b.desc.Subcommands...)
	return &d
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}
