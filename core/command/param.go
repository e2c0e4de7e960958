package command

import "fmt"

// ParameterRule describes how many tokens a parameter consumes.
type ParameterRule struct {
	// Repetitions is the fixed token width. Zero or less consumes every remaining token.
	Repetitions int
	// Optional parameters may be left without tokens.
	Optional bool
	// Derived is set when the rule was synthesized rather than declared.
	Derived bool
}

// Unbounded reports whether the rule consumes all remaining tokens.
func (r ParameterRule) Unbounded() bool { return r.Repetitions <= 0 }

// ValidateRules checks the ordering of a parameter list: a required parameter
// may not follow an optional one, and nothing may follow an unbounded one.
func ValidateRules(rules ...ParameterRule) error {
	optionalAt, unboundedAt := -1, -1
	for i, r := range rules {
		if unboundedAt >= 0 {
			return newError(ErrInvalidParameter, "parameter %d follows unbounded parameter %d", i, unboundedAt)
		}
		if !r.Optional && optionalAt >= 0 {
			return newError(ErrInvalidParameter, "required parameter %d follows optional parameter %d", i, optionalAt)
		}
		if r.Optional && optionalAt < 0 {
			optionalAt = i
		}
		if r.Unbounded() {
			unboundedAt = i
		}
	}
	return nil
}

// ParamDescriptor declares one non-context parameter of an executor.
type ParamDescriptor struct {
	Name     string
	Optional bool
	Rule     *ParameterRule
	Default  any
}

// ParamOption configures a ParamDescriptor built with Param.
type ParamOption func(*ParamDescriptor)

// Param declares a parameter named name.
//
// Example:
//
//	command.Param("count", command.Optional(), command.Default(1))
//	command.Param("words", command.Variadic())
func Param(name string, opts ...ParamOption) ParamDescriptor {
	p := ParamDescriptor{Name: name}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Optional marks the parameter as optional.
func Optional() ParamOption {
	return func(p *ParamDescriptor) {
		p.Optional = true
		if p.Rule != nil {
			p.Rule.Optional = true
		}
	}
}

// Default sets the value used when no token is left for the parameter.
func Default(v any) ParamOption {
	return func(p *ParamDescriptor) { p.Default = v }
}

// Width fixes the number of tokens the parameter consumes.
func Width(n int) ParamOption {
	return func(p *ParamDescriptor) {
		if n < 1 {
			panic(fmt.Sprintf("command: width must be positive, got %d", n))
		}
		p.Rule = &ParameterRule{Repetitions: n, Optional: p.Optional}
	}
}

// Variadic makes the parameter consume every remaining token.
// Variadic parameters are optional.
func Variadic() ParamOption {
	return func(p *ParamDescriptor) {
		p.Optional = true
		p.Rule = &ParameterRule{Repetitions: 0, Optional: true}
	}
}
