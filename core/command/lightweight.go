package command

import (
	"reflect"

	"github.com/dmitrymomot/headquarters/core/trigger"
)

// LightweightParser converts free text into a queue of typed values without
// a registered command. Scanners receive one to parse the text they matched.
//
// Example:
//
//	lw.AddType(reflect.TypeFor[string](), nil).
//	    AddType(reflect.TypeFor[[]int](), &command.ParameterRule{Repetitions: 0})
//	if err := lw.Parse(m.Remainder()); err != nil {
//	    return nil, err
//	}
//	name, _ := command.Next[string](lw)
//	scores, _ := command.Next[[]int](lw)
type LightweightParser struct {
	converters ConverterSource
	ctx        ContextObject
	params     []param
	values     []reflect.Value
}

// NewLightweightParser returns a parser resolving converters from converters.
// A nil source falls back to the default converters.
func NewLightweightParser(converters ConverterSource, ctx ContextObject) *LightweightParser {
	if converters == nil {
		converters = DefaultConverters()
	}
	return &LightweightParser{converters: converters, ctx: ctx}
}

// AddType appends an expected value. A nil rule consumes one token.
func (lw *LightweightParser) AddType(kind reflect.Type, rule *ParameterRule) *LightweightParser {
	r := ParameterRule{Repetitions: 1, Derived: true}
	if rule != nil {
		r = *rule
	}
	lw.params = append(lw.params, param{typ: kind, rule: r})
	return lw
}

// Expect appends an expected value of type T.
func Expect[T any](lw *LightweightParser, rule *ParameterRule) *LightweightParser {
	return lw.AddType(reflect.TypeFor[T](), rule)
}

// Parse converts text against the expected types and queues the results.
// Missing tokens produce zero values.
func (lw *LightweightParser) Parse(text string) error {
	tokens := trigger.Tokenize(text)
	args := make([]any, len(tokens))
	for i, t := range tokens {
		args[i] = t
	}

	values, err := convertArgs(lw.converters, lw.ctx, lw.params, nil, args)
	if err != nil {
		return err
	}
	lw.values = append(lw.values, values...)
	return nil
}

// Len returns the number of queued values.
func (lw *LightweightParser) Len() int { return len(lw.values) }

// Next dequeues the next value as T. It returns false when the queue is
// empty or the value is not a T; the value is consumed either way.
func Next[T any](lw *LightweightParser) (T, bool) {
	var zero T
	if len(lw.values) == 0 {
		return zero, false
	}
	v := lw.values[0]
	lw.values = lw.values[1:]

	t, ok := v.Interface().(T)
	if !ok {
		return zero, false
	}
	return t, true
}
