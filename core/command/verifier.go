package command

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dmitrymomot/headquarters/core/trigger"
	"github.com/dmitrymomot/headquarters/pkg/async"
)

var (
	contextObjectType = reflect.TypeFor[ContextObject]()
	errorType         = reflect.TypeFor[error]()
	futureType        = reflect.TypeFor[*async.Future[any]]()
	boolType          = reflect.TypeFor[bool]()
	resultKindType    = reflect.TypeFor[ResultKind]()
	reflectTypeType   = reflect.TypeFor[reflect.Type]()
)

// Verify checks a descriptor and builds its immutable Metadata.
// All faults are *Error values classified by one of ErrIncorrectType,
// ErrNoExecutorFound, ErrMalformedExecutor or ErrInvalidParameter.
func Verify(desc *Descriptor) (*Metadata, error) {
	if desc == nil {
		return nil, newError(ErrIncorrectType, "nil descriptor")
	}
	if !desc.Marked {
		return nil, newError(ErrIncorrectType, "%q is not marked as a command", desc.Name)
	}
	if len(desc.Executors) == 0 {
		return nil, newError(ErrNoExecutorFound, "%q declares no executors", desc.Name)
	}

	md := &Metadata{name: desc.Name}

	for i := range desc.Executors {
		e, err := verifyMethod(&desc.Executors[i], desc.AsyncDefault)
		if err != nil {
			return nil, err
		}
		md.executors = append(md.executors, e)
	}

	for i := range desc.Subcommands {
		sub := &desc.Subcommands[i]
		// subcommands are matched against one argument token
		if len(strings.Fields(sub.Trigger)) > 1 {
			return nil, newError(ErrMalformedExecutor,
				"subcommand %q: trigger %q must be a single word", sub.Name, sub.Trigger)
		}
		e, err := verifyMethod(sub, desc.AsyncDefault)
		if err != nil {
			return nil, err
		}

		var parent *Executor
		for _, candidate := range md.executors {
			if candidate.name == sub.Parent {
				parent = candidate
				break
			}
		}
		if parent == nil {
			return nil, newError(ErrMalformedExecutor, "subcommand %q: unknown parent %q", sub.Name, sub.Parent)
		}

		e.parent = parent
		parent.children = append(parent.children, e)
		md.subcommands = append(md.subcommands, e)
	}

	if desc.Precondition != nil {
		pre, err := verifyPrecondition(desc.Precondition)
		if err != nil {
			return nil, err
		}
		md.precondition = pre
	}

	if desc.ErrorHandler != nil {
		onErr, err := verifyErrorHandler(desc.ErrorHandler)
		if err != nil {
			return nil, err
		}
		md.onError = onErr
	}

	return md, nil
}

func verifyMethod(m *MethodDescriptor, asyncDefault bool) (*Executor, error) {
	fn := reflect.ValueOf(m.Func)
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, newError(ErrMalformedExecutor, "executor %q: handler is not a function", m.Name)
	}

	t := fn.Type()
	if t.IsVariadic() {
		return nil, newError(ErrMalformedExecutor, "executor %q: variadic handlers are not supported", m.Name)
	}

	isAsync := asyncDefault
	if m.Async != nil {
		isAsync = *m.Async
	}
	if err := checkReturns(t, isAsync); err != nil {
		return nil, wrapError(ErrMalformedExecutor, err, "executor %q", m.Name)
	}

	if t.NumIn() == 0 || !contextObjectType.AssignableTo(t.In(0)) {
		return nil, newError(ErrMalformedExecutor, "executor %q: first parameter must accept a ContextObject", m.Name)
	}

	pattern, err := trigger.Compile(m.Trigger, m.Options)
	if err != nil {
		return nil, wrapError(ErrMalformedExecutor, err, "executor %q", m.Name)
	}

	placeholders := pattern.Placeholders()
	arity := t.NumIn() - 1
	if arity < len(placeholders) {
		return nil, newError(ErrMalformedExecutor,
			"executor %q: trigger has %d placeholders but handler takes %d arguments",
			m.Name, len(placeholders), arity)
	}

	declared := m.Params
	if declared == nil && arity == len(placeholders) {
		declared = make([]ParamDescriptor, len(placeholders))
		for i, ph := range placeholders {
			declared[i] = ParamDescriptor{Name: ph.Name, Optional: ph.Optional}
		}
	}
	if len(declared) != arity {
		return nil, newError(ErrInvalidParameter,
			"executor %q: %d parameters declared for %d handler arguments", m.Name, len(declared), arity)
	}
	for i, ph := range placeholders {
		if declared[i].Name != ph.Name {
			return nil, newError(ErrInvalidParameter,
				"executor %q: parameter %d is %q but the trigger names %q", m.Name, i, declared[i].Name, ph.Name)
		}
	}

	params := make([]param, arity)
	rules := make([]ParameterRule, arity)
	for i, pd := range declared {
		typ := t.In(i + 1)
		placeholder := i < len(placeholders)
		optional := pd.Optional || (placeholder && placeholders[i].Optional)

		rule := ParameterRule{Repetitions: 1, Optional: optional, Derived: true}
		if pd.Rule != nil {
			rule = *pd.Rule
			rule.Optional = rule.Optional || optional
			rule.Derived = false
		}

		def, err := defaultValue(pd.Default, typ)
		if err != nil {
			return nil, wrapError(ErrInvalidParameter, err, "executor %q: parameter %q", m.Name, pd.Name)
		}

		params[i] = param{name: pd.Name, typ: typ, rule: rule, def: def, placeholder: placeholder}
		rules[i] = rule
	}

	if err := ValidateRules(rules...); err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Message = fmt.Sprintf("executor %q: %s", m.Name, e.Message)
		}
		return nil, err
	}

	return &Executor{
		name:        m.Name,
		description: m.Description,
		pattern:     pattern,
		async:       isAsync,
		params:      params,
		invoke:      makeInvoke(fn, isAsync),
	}, nil
}

func checkReturns(t reflect.Type, isAsync bool) error {
	if isAsync {
		if t.NumOut() != 1 || t.Out(0) != futureType {
			return fmt.Errorf("async handler must return %s", futureType)
		}
		return nil
	}

	switch t.NumOut() {
	case 1:
		return nil
	case 2:
		if t.Out(1) != errorType {
			return errors.New("second return value must be error")
		}
		return nil
	default:
		return errors.New("handler must return (value) or (value, error)")
	}
}

func makeInvoke(fn reflect.Value, isAsync bool) invokeFunc {
	t := fn.Type()
	errOnly := !isAsync && t.NumOut() == 1 && t.Out(0) == errorType

	return func(ctx ContextObject, args []reflect.Value) (any, error) {
		in := make([]reflect.Value, 0, len(args)+1)
		in = append(in, contextValue(ctx, t.In(0)))
		in = append(in, args...)

		out := fn.Call(in)

		if isAsync {
			f, _ := out[0].Interface().(*async.Future[any])
			if f == nil {
				return nil, errors.New("handler returned a nil future")
			}
			return f.Await()
		}

		if errOnly {
			err, _ := out[0].Interface().(error)
			return nil, err
		}
		if len(out) == 2 {
			err, _ := out[1].Interface().(error)
			return out[0].Interface(), err
		}
		return out[0].Interface(), nil
	}
}

func verifyPrecondition(v any) (preconditionFunc, error) {
	fn := reflect.ValueOf(v)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, newError(ErrMalformedExecutor, "precondition is not a function")
	}

	t := fn.Type()
	if t.IsVariadic() || t.NumIn() != 1 || !contextObjectType.AssignableTo(t.In(0)) {
		return nil, newError(ErrMalformedExecutor, "precondition must take a single ContextObject")
	}

	switch {
	case t.NumOut() == 1 && (t.Out(0) == boolType || t.Out(0) == resultKindType || t.Out(0) == futureType):
	case t.NumOut() == 2 && (t.Out(0) == boolType || t.Out(0) == resultKindType) && t.Out(1) == errorType:
	default:
		return nil, newError(ErrMalformedExecutor, "precondition must return bool, ResultKind or a future, optionally with an error")
	}

	return func(ctx ContextObject) (ResultKind, error) {
		out := fn.Call([]reflect.Value{contextValue(ctx, t.In(0))})
		if len(out) == 2 {
			if err, _ := out[1].Interface().(error); err != nil {
				return Failure, err
			}
		}
		return preconditionKind(out[0].Interface())
	}, nil
}

func preconditionKind(v any) (ResultKind, error) {
	switch r := v.(type) {
	case nil:
		return Success, nil
	case bool:
		if r {
			return Success, nil
		}
		return Failure, nil
	case ResultKind:
		return r, nil
	case *async.Future[any]:
		if r == nil {
			return Failure, errors.New("precondition returned a nil future")
		}
		out, err := r.Await()
		if err != nil {
			return Failure, err
		}
		if _, nested := out.(*async.Future[any]); nested {
			return Failure, errors.New("precondition future resolved to another future")
		}
		return preconditionKind(out)
	default:
		return Failure, fmt.Errorf("precondition produced unsupported %T", v)
	}
}

func verifyErrorHandler(v any) (errorHandlerFunc, error) {
	fn := reflect.ValueOf(v)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, newError(ErrMalformedExecutor, "error handler is not a function")
	}

	t := fn.Type()
	if t.IsVariadic() || t.NumIn() != 4 ||
		!contextObjectType.AssignableTo(t.In(0)) ||
		t.In(1) != reflectTypeType ||
		t.In(2).Kind() != reflect.String ||
		!errorType.AssignableTo(t.In(3)) {
		return nil, newError(ErrMalformedExecutor, "error handler must take (ContextObject, reflect.Type, string, error)")
	}

	switch {
	case t.NumOut() == 0:
	case t.NumOut() == 1 && (t.Out(0) == errorType || t.Out(0) == futureType):
	default:
		return nil, newError(ErrMalformedExecutor, "error handler may only return error or a future")
	}

	return func(ctx ContextObject, expected reflect.Type, given string, fault error) error {
		expectedValue := reflect.Zero(reflectTypeType)
		if expected != nil {
			expectedValue = reflect.ValueOf(expected)
		}
		faultValue := reflect.Zero(t.In(3))
		if fault != nil {
			faultValue = reflect.ValueOf(fault)
		}

		out := fn.Call([]reflect.Value{
			contextValue(ctx, t.In(0)),
			expectedValue,
			reflect.ValueOf(given).Convert(t.In(2)),
			faultValue,
		})
		if len(out) == 0 {
			return nil
		}

		switch r := out[0].Interface().(type) {
		case error:
			return r
		case *async.Future[any]:
			if r == nil {
				return nil
			}
			_, err := r.Await()
			return err
		}
		return nil
	}, nil
}

// defaultValue converts a declared default to the parameter type.
func defaultValue(v any, typ reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Value{}, nil
	}

	rv := reflect.ValueOf(v)
	out := reflect.New(typ).Elem()
	switch {
	case rv.Type().AssignableTo(typ):
		out.Set(rv)
	case isNumeric(rv.Kind()) && isNumeric(typ.Kind()):
		out.Set(rv.Convert(typ))
	default:
		return reflect.Value{}, fmt.Errorf("default %T is not assignable to %s", v, typ)
	}
	return out, nil
}

func contextValue(ctx ContextObject, typ reflect.Type) reflect.Value {
	if ctx == nil {
		return reflect.Zero(typ)
	}
	return reflect.ValueOf(ctx)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
