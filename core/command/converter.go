package command

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/dmitrymomot/headquarters/core/trigger"
)

// Converter turns raw tokens into a value of one parameter type.
// Returning false signals a conversion fault.
type Converter interface {
	// FromToken converts a single-token argument.
	FromToken(token string, ctx ContextObject) (any, bool)
	// FromTokens converts a multi-token argument.
	FromTokens(tokens []string, ctx ContextObject) (any, bool)
}

// ConverterSource looks up converters by target type.
type ConverterSource interface {
	Converter(kind reflect.Type) (Converter, bool)
}

// Converters is a plain ConverterSource.
type Converters map[reflect.Type]Converter

// Converter returns the converter registered for kind.
func (c Converters) Converter(kind reflect.Type) (Converter, bool) {
	conv, ok := c[kind]
	return conv, ok
}

// ConverterFunc adapts a typed function to the Converter interface.
// FromToken passes the token as a one-element slice.
//
// Example:
//
//	registry.AddConverter(reflect.TypeFor[time.Duration](),
//	    command.ConverterFunc[time.Duration](func(tokens []string, _ command.ContextObject) (time.Duration, bool) {
//	        d, err := time.ParseDuration(strings.Join(tokens, ""))
//	        return d, err == nil
//	    }))
type ConverterFunc[T any] func(tokens []string, ctx ContextObject) (T, bool)

func (f ConverterFunc[T]) FromToken(token string, ctx ContextObject) (any, bool) {
	return f([]string{token}, ctx)
}

func (f ConverterFunc[T]) FromTokens(tokens []string, ctx ContextObject) (any, bool) {
	return f(tokens, ctx)
}

// converterFuncs is a Converter with explicit single and multi token functions.
type converterFuncs[T any] struct {
	one  func(string) (T, bool)
	many func([]string) (T, bool)
}

func (c converterFuncs[T]) FromToken(token string, _ ContextObject) (any, bool) {
	return c.one(token)
}

func (c converterFuncs[T]) FromTokens(tokens []string, _ ContextObject) (any, bool) {
	return c.many(tokens)
}

// DefaultConverters returns the built-in converters keyed by target type.
func DefaultConverters() Converters {
	return Converters{
		reflect.TypeFor[int]():      scalarConverter(strconv.Atoi),
		reflect.TypeFor[int64]():    scalarConverter(func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }),
		reflect.TypeFor[float64]():  scalarConverter(func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }),
		reflect.TypeFor[bool]():     scalarConverter(strconv.ParseBool),
		reflect.TypeFor[string]():   stringConverter(),
		reflect.TypeFor[[]int]():    sliceConverter(strconv.Atoi),
		reflect.TypeFor[[]string](): stringSliceConverter(),
	}
}

// scalarConverter parses a single value. Multiple tokens are joined with spaces first.
func scalarConverter[T any](parse func(string) (T, error)) Converter {
	one := func(s string) (T, bool) {
		v, err := parse(s)
		return v, err == nil
	}
	return converterFuncs[T]{
		one:  one,
		many: func(tokens []string) (T, bool) { return one(strings.Join(tokens, " ")) },
	}
}

// sliceConverter parses every token. A single token is split on whitespace first.
func sliceConverter[T any](parse func(string) (T, error)) Converter {
	many := func(tokens []string) ([]T, bool) {
		out := make([]T, len(tokens))
		for i, tok := range tokens {
			v, err := parse(tok)
			if err != nil {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	}
	return converterFuncs[[]T]{
		one:  func(s string) ([]T, bool) { return many(trigger.Tokenize(s)) },
		many: many,
	}
}

func stringConverter() Converter {
	return converterFuncs[string]{
		one:  func(s string) (string, bool) { return s, true },
		many: func(tokens []string) (string, bool) { return strings.Join(tokens, " "), true },
	}
}

func stringSliceConverter() Converter {
	return converterFuncs[[]string]{
		one:  func(s string) ([]string, bool) { return strings.Fields(s), true },
		many: func(tokens []string) ([]string, bool) { return append([]string(nil), tokens...), true },
	}
}
