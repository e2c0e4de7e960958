package command

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/dmitrymomot/headquarters/core/logger"
	"github.com/dmitrymomot/headquarters/core/trigger"
)

// invocation is one resolved executor call.
type invocation struct {
	id    string
	text  string
	md    *Metadata
	exec  *Executor
	match *trigger.Match
	ctx   ContextObject
	extra []any // output forwarded from the previous pipe segment
}

// arguments returns the tokens left by the trigger followed by forwarded values.
func (inv *invocation) arguments() []any {
	tokens := trigger.Tokenize(inv.match.Remainder())
	args := make([]any, 0, len(tokens)+len(inv.extra))
	for _, t := range tokens {
		args = append(args, t)
	}
	return append(args, inv.extra...)
}

// outcome is the reportable result of an invocation.
type outcome struct {
	kind    ResultKind
	payload any
}

// parser converts arguments and runs executors.
type parser struct {
	converters ConverterSource
	logger     *slog.Logger
}

// execute runs one invocation. A panic anywhere in conversion is routed
// like any other fault.
func (p *parser) execute(inv *invocation) (res outcome) {
	defer func() {
		if r := recover(); r != nil {
			res = p.fail(inv, nil, inv.text, newError(ErrCommandFailed, "%s panicked: %v", inv.exec.name, r))
		}
	}()
	return p.parse(inv, inv.arguments())
}

func (p *parser) parse(inv *invocation, args []any) outcome {
	if args == nil {
		return p.fail(inv, nil, inv.text, newError(ErrInvalidArguments, "nil argument list"))
	}

	if pre := inv.md.precondition; pre != nil {
		kind, err := safeCall(func() (ResultKind, error) { return pre(inv.ctx) })
		if err != nil {
			return p.fail(inv, nil, inv.text, wrapError(ErrPreconditionFailed, err, "%s", inv.md.name))
		}
		if kind == Failure {
			return outcome{kind: Failure, payload: newError(ErrPreconditionFailed, "%s rejected the input", inv.md.name)}
		}
	}

	exec, args, widths := resolveSubcommand(inv.exec, args, inv.match.Widths())

	values, err := convertArgs(p.converters, inv.ctx, exec.params, widths, args)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return p.fail(inv, e.Expected, strings.Join(e.Raw, " "), err)
		}
		return p.fail(inv, nil, inv.text, err)
	}

	out, err := safeCall(func() (any, error) { return exec.invoke(inv.ctx, values) })
	if err != nil {
		return p.fail(inv, nil, inv.text, wrapError(ErrCommandFailed, err, "%s", exec.name))
	}

	return outcome{kind: Success, payload: out}
}

// fail routes fault to the command's error handler and reports it as a Failure.
func (p *parser) fail(inv *invocation, expected reflect.Type, given string, fault error) outcome {
	if h := inv.md.onError; h != nil {
		_, err := safeCall(func() (struct{}, error) {
			return struct{}{}, h(inv.ctx, expected, given, fault)
		})
		if err != nil {
			p.logger.Warn("command error handler failed",
				logger.RequestID(inv.id),
				logger.Command(inv.md.name),
				logger.Error(err))
		}
	}
	return outcome{kind: Failure, payload: fault}
}

// resolveSubcommand switches to the first subcommand whose trigger matches
// the leading token. The subcommand's remainder replaces that token.
func resolveSubcommand(exec *Executor, args []any, widths map[string]int) (*Executor, []any, map[string]int) {
	if len(exec.children) == 0 || len(args) == 0 {
		return exec, args, widths
	}
	lead, ok := args[0].(string)
	if !ok {
		return exec, args, widths
	}

	for _, child := range exec.children {
		m, ok := child.pattern.Match(lead)
		if !ok {
			continue
		}
		tokens := trigger.Tokenize(m.Remainder())
		rest := make([]any, 0, len(tokens)+len(args)-1)
		for _, t := range tokens {
			rest = append(rest, t)
		}
		return child, append(rest, args[1:]...), m.Widths()
	}
	return exec, args, widths
}

// convertArgs turns raw arguments into handler values. Parameters left
// without arguments get their default or zero value.
func convertArgs(src ConverterSource, ctx ContextObject, params []param, widths map[string]int, args []any) ([]reflect.Value, error) {
	values := make([]reflect.Value, len(params))
	index := 0

	for i, p := range params {
		count := p.rule.Repetitions
		switch {
		case p.placeholder && p.rule.Derived:
			// absent optional captures fall back to the next argument, if any
			if w := widths[p.name]; w > 0 {
				count = w
			}
		case p.rule.Unbounded():
			count = len(args) - index
		}

		if index >= len(args) || count <= 0 {
			values[i] = zeroOrDefault(p)
			continue
		}

		end := min(index+count, len(args))
		v, err := convertArg(src, ctx, p, args[index:end], count)
		if err != nil {
			return nil, err
		}
		values[i] = v
		index = end
	}

	return values, nil
}

func convertArg(src ConverterSource, ctx ContextObject, p param, chunk []any, width int) (reflect.Value, error) {
	if len(chunk) == 1 {
		if _, isToken := chunk[0].(string); !isToken && chunk[0] != nil {
			rv := reflect.ValueOf(chunk[0])
			if rv.Type().AssignableTo(p.typ) {
				out := reflect.New(p.typ).Elem()
				out.Set(rv)
				return out, nil
			}
		}
	}

	tokens := make([]string, len(chunk))
	for i, a := range chunk {
		if s, ok := a.(string); ok {
			tokens[i] = s
		} else {
			tokens[i] = fmt.Sprint(a)
		}
	}

	if src != nil {
		if conv, ok := src.Converter(p.typ); ok {
			var (
				v  any
				ok bool
			)
			if width == 1 {
				v, ok = conv.FromToken(tokens[0], ctx)
			} else {
				v, ok = conv.FromTokens(tokens, ctx)
			}
			if !ok {
				return reflect.Value{}, parseFault(p, tokens, fmt.Errorf("converter for %s returned no value", p.typ))
			}
			if v == nil {
				return reflect.Zero(p.typ), nil
			}
			rv := reflect.ValueOf(v)
			if !rv.Type().AssignableTo(p.typ) {
				return reflect.Value{}, parseFault(p, tokens, fmt.Errorf("converter for %s returned %T", p.typ, v))
			}
			out := reflect.New(p.typ).Elem()
			out.Set(rv)
			return out, nil
		}
	}

	v, err := createValue(p.typ, tokens)
	if err != nil {
		return reflect.Value{}, parseFault(p, tokens, err)
	}
	return v, nil
}

func parseFault(p param, tokens []string, err error) *Error {
	return &Error{
		Reason:   ErrParsingFailed,
		Message:  fmt.Sprintf("parameter %q", p.name),
		Expected: p.typ,
		Raw:      tokens,
		Err:      err,
	}
}
