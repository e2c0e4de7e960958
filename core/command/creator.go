package command

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// createValue builds a typ from tokens when no converter is registered.
// Scalars are parsed from the space-joined tokens; slices convert element-wise.
func createValue(typ reflect.Type, tokens []string) (reflect.Value, error) {
	joined := strings.Join(tokens, " ")
	out := reflect.New(typ).Elem()

	if reflect.PointerTo(typ).Implements(textUnmarshalerType) {
		if err := out.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(joined)); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	}

	switch typ.Kind() {
	case reflect.String:
		out.SetString(joined)

	case reflect.Bool:
		b, err := strconv.ParseBool(joined)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(joined, 10, typ.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(joined, 10, typ.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(joined, typ.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetFloat(f)

	case reflect.Slice:
		elems := tokens
		if len(tokens) == 1 {
			elems = strings.Fields(tokens[0])
		}
		s := reflect.MakeSlice(typ, len(elems), len(elems))
		for i, tok := range elems {
			v, err := createValue(typ.Elem(), []string{tok})
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			s.Index(i).Set(v)
		}
		out.Set(s)

	case reflect.Pointer:
		v, err := createValue(typ.Elem(), tokens)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(typ.Elem())
		p.Elem().Set(v)
		out.Set(p)

	case reflect.Interface:
		if !reflect.TypeFor[string]().AssignableTo(typ) {
			return reflect.Value{}, fmt.Errorf("cannot create %s from text", typ)
		}
		out.Set(reflect.ValueOf(joined))

	default:
		return reflect.Value{}, fmt.Errorf("cannot create %s from text", typ)
	}

	return out, nil
}

// zeroOrDefault returns the declared default of p, or the zero value of its type.
func zeroOrDefault(p param) reflect.Value {
	if p.def.IsValid() {
		return p.def
	}
	return reflect.Zero(p.typ)
}
