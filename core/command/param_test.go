package command_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/headquarters/core/command"
)

// violatesOrdering is the reference check: a violation exists when any
// optional rule precedes a required one or any unbounded rule precedes anything.
func violatesOrdering(rules []command.ParameterRule) bool {
	for i := range rules {
		for j := i + 1; j < len(rules); j++ {
			if rules[i].Unbounded() {
				return true
			}
			if rules[i].Optional && !rules[j].Optional {
				return true
			}
		}
	}
	return false
}

func TestValidateRules(t *testing.T) {
	t.Parallel()

	t.Run("examples", func(t *testing.T) {
		t.Parallel()

		req := command.ParameterRule{Repetitions: 1}
		opt := command.ParameterRule{Repetitions: 1, Optional: true}
		rest := command.ParameterRule{Repetitions: 0, Optional: true}

		assert.NoError(t, command.ValidateRules())
		assert.NoError(t, command.ValidateRules(req, req, opt, rest))
		assert.NoError(t, command.ValidateRules(req, command.ParameterRule{Repetitions: 0}))
		assert.ErrorIs(t, command.ValidateRules(opt, req), command.ErrInvalidParameter)
		assert.ErrorIs(t, command.ValidateRules(rest, opt), command.ErrInvalidParameter)
		assert.ErrorIs(t, command.ValidateRules(req, rest, req), command.ErrInvalidParameter)
	})

	t.Run("generated sequences", func(t *testing.T) {
		t.Parallel()

		rng := rand.New(rand.NewSource(42))
		for n := 0; n < 2000; n++ {
			rules := make([]command.ParameterRule, rng.Intn(7))
			for i := range rules {
				rules[i] = command.ParameterRule{
					Repetitions: rng.Intn(4) - 1, // -1..2, non-positive is unbounded
					Optional:    rng.Intn(2) == 0,
				}
			}

			err := command.ValidateRules(rules...)
			if violatesOrdering(rules) {
				require.ErrorIs(t, err, command.ErrInvalidParameter, "rules %+v", rules)
			} else {
				require.NoError(t, err, "rules %+v", rules)
			}
		}
	})
}

func TestParamOptions(t *testing.T) {
	t.Parallel()

	p := command.Param("count", command.Optional(), command.Default(3))
	assert.Equal(t, "count", p.Name)
	assert.True(t, p.Optional)
	assert.Equal(t, 3, p.Default)
	assert.Nil(t, p.Rule)

	w := command.Param("pair", command.Width(2), command.Optional())
	require.NotNil(t, w.Rule)
	assert.Equal(t, 2, w.Rule.Repetitions)
	assert.True(t, w.Rule.Optional)

	v := command.Param("rest", command.Variadic())
	require.NotNil(t, v.Rule)
	assert.True(t, v.Rule.Unbounded())
	assert.True(t, v.Optional)

	assert.Panics(t, func() { command.Param("bad", command.Width(0)) })
}
