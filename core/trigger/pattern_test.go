package trigger_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/headquarters/core/trigger"
)

func TestCompile(t *testing.T) {
	t.Parallel()

	t.Run("placeholders in order", func(t *testing.T) {
		t.Parallel()
		p, err := trigger.Compile("unit-test {word} more words {word2} {number?}", trigger.Prefix())
		require.NoError(t, err)
		assert.Equal(t, []trigger.Placeholder{
			{Name: "word"},
			{Name: "word2"},
			{Name: "number", Optional: true},
		}, p.Placeholders())
		assert.Equal(t, "unit-test {word} more words {word2} {number?}", p.String())
	})

	t.Run("leading question mark is optional too", func(t *testing.T) {
		t.Parallel()
		p, err := trigger.Compile("get {?item}", trigger.Options{})
		require.NoError(t, err)
		assert.Equal(t, []trigger.Placeholder{{Name: "item", Optional: true}}, p.Placeholders())
	})

	t.Run("duplicate placeholder", func(t *testing.T) {
		t.Parallel()
		_, err := trigger.Compile("{a} and {a}", trigger.Options{})
		assert.ErrorIs(t, err, trigger.ErrDuplicatePlaceholder)
	})

	t.Run("invalid expression", func(t *testing.T) {
		t.Parallel()
		_, err := trigger.Compile("broken ( {a}", trigger.Options{})
		assert.ErrorIs(t, err, trigger.ErrInvalidPattern)
	})

	t.Run("empty pattern in every mode", func(t *testing.T) {
		t.Parallel()
		for _, opts := range []trigger.Options{trigger.Exact(), trigger.Prefix(), {}, {MatchAtEnd: true, CaseSensitive: true}} {
			for _, pattern := range []string{"", "  ", "\t"} {
				_, err := trigger.Compile(pattern, opts)
				assert.ErrorIs(t, err, trigger.ErrEmptyPattern, "pattern %q opts %+v", pattern, opts)
			}
		}
	})

	t.Run("must compile panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { trigger.MustCompile("{x} {x}", trigger.Options{}) })
	})
}

func TestPatternMatch(t *testing.T) {
	t.Parallel()

	p := trigger.MustCompile("unit-test {word} more words {word2} {number?}", trigger.Prefix())

	t.Run("all fields", func(t *testing.T) {
		t.Parallel()
		m, ok := p.Match("unit-test Foo more words Bar 3")
		require.True(t, ok)

		word, _ := m.Value("word")
		word2, _ := m.Value("word2")
		number, _ := m.Value("number")
		assert.Equal(t, "Foo", word)
		assert.Equal(t, "Bar", word2)
		assert.Equal(t, "3", number)
		assert.Equal(t, map[string]int{"word": 1, "word2": 1, "number": 1}, m.Widths())
		assert.Equal(t, "Foo Bar 3", m.Remainder())
	})

	t.Run("optional field absent", func(t *testing.T) {
		t.Parallel()
		m, ok := p.Match("unit-test Foo more words Bar")
		require.True(t, ok)

		_, present := m.Value("number")
		assert.False(t, present)
		assert.Equal(t, map[string]int{"word": 1, "word2": 1, "number": 0}, m.Widths())
		assert.Equal(t, "Foo Bar", m.Remainder())
	})

	t.Run("case insensitive by default", func(t *testing.T) {
		t.Parallel()
		_, ok := p.Match("UNIT-TEST Foo MORE WORDS Bar")
		assert.True(t, ok)
	})

	t.Run("case sensitive", func(t *testing.T) {
		t.Parallel()
		cs := trigger.MustCompile("hello {name}", trigger.Options{MatchFromStart: true, CaseSensitive: true})
		_, ok := cs.Match("HELLO bob")
		assert.False(t, ok)
		_, ok = cs.Match("hello bob")
		assert.True(t, ok)
	})

	t.Run("anchored at start", func(t *testing.T) {
		t.Parallel()
		_, ok := p.Match("please unit-test Foo more words Bar")
		assert.False(t, ok)
	})

	t.Run("unanchored keeps surrounding text", func(t *testing.T) {
		t.Parallel()
		free := trigger.MustCompile("find {x}", trigger.Options{})
		m, ok := free.Match("please find me")
		require.True(t, ok)
		assert.Equal(t, "me please", m.Remainder())
	})

	t.Run("match at end", func(t *testing.T) {
		t.Parallel()
		end := trigger.MustCompile("{a} end", trigger.Options{MatchFromStart: true, MatchAtEnd: true})
		_, ok := end.Match("x end")
		assert.True(t, ok)
		_, ok = end.Match("x end more")
		assert.False(t, ok)
	})
}

func TestQuotedCapture(t *testing.T) {
	t.Parallel()

	p := trigger.MustCompile("quote me {message}", trigger.Prefix())
	m, ok := p.Match(`quote me "this is a quoted message" rest`)
	require.True(t, ok)

	msg, _ := m.Value("message")
	raw, _ := m.Raw("message")
	assert.Equal(t, "this is a quoted message", msg)
	assert.Equal(t, `"this is a quoted message"`, raw)
	assert.Equal(t, map[string]int{"message": 1}, m.Widths())

	tokens := trigger.Tokenize(m.Remainder())
	assert.Equal(t, []string{"this is a quoted message", "rest"}, tokens)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		input   string
	}{
		{"unit-test", "unit-test"},
		{"unit-test {a}", "unit-test one two"},
		{"say {a} to {b}", `say "hi there" to bob and alice`},
		{"add {a} {b} {c?}", "add 1 2"},
		{"add {a} {b} {c?}", "add 1 2 3 4"},
		{"{a} {b}", `"x y" "" z`},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			t.Parallel()
			p := trigger.MustCompile(tt.pattern, trigger.Prefix())
			m, ok := p.Match(tt.input)
			require.True(t, ok)

			widths := m.Widths()
			assert.Len(t, widths, len(p.Placeholders()))

			sum := 0
			for _, w := range widths {
				sum += w
			}

			start, end := m.Span()
			outside := trigger.Tokenize(tt.input[:start] + " " + tt.input[end:])
			assert.Len(t, trigger.Tokenize(m.Remainder()), sum+len(outside))
		})
	}
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		opts      trigger.Options
		pattern   string
		input     string
		match     bool
		remainder string
	}{
		{"equality", trigger.Exact(), "ping", "PING", true, ""},
		{"equality rejects extra", trigger.Exact(), "ping", "ping pong", false, ""},
		{"prefix", trigger.Options{PlainText: true, MatchFromStart: true}, "go", "go home", true, "home"},
		{"prefix rejects", trigger.Options{PlainText: true, MatchFromStart: true}, "go", "let go", false, ""},
		{"suffix", trigger.Options{PlainText: true, MatchAtEnd: true}, "now!", "do it now!", true, "do it"},
		{"containment", trigger.Options{PlainText: true}, "needle", "hay needle stack", true, "hay stack"},
		{"case sensitive", trigger.Options{PlainText: true, CaseSensitive: true}, "Needle", "needle", false, ""},
		{"braces are literal", trigger.Exact(), "{x}", "{x}", true, ""},
		{"folding changes length", trigger.Options{PlainText: true, MatchFromStart: true}, "key", "\u212Aey rest", true, "rest"},
		{"folded containment", trigger.Options{PlainText: true}, "ping", "\u212A pInG now", true, "\u212A now"},
		{"folded suffix", trigger.Options{PlainText: true, MatchAtEnd: true}, "strasse", "\u212A go stra\u00dfe", true, "\u212A go"},
		{"folded equality", trigger.Exact(), "\u212Aing", "king", true, ""},
		{"folded equality rejects extra", trigger.Exact(), "king", "\u212Aings", false, ""},
		{"folded miss", trigger.Options{PlainText: true}, "ping", "\u212A pong", false, ""},
		{"invalid utf-8", trigger.Options{PlainText: true}, "ping", "\xff\u212A ping", true, "\xff\u212A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := trigger.MustCompile(tt.pattern, tt.opts)
			m, ok := p.Match(tt.input)
			require.Equal(t, tt.match, ok)
			if ok {
				assert.Equal(t, tt.remainder, m.Remainder())
				assert.Empty(t, m.Widths())
			}
		})
	}
}

func TestPlainTextFoldedInputIsLinear(t *testing.T) {
	t.Parallel()

	input := "\u212A" + strings.Repeat("a", 1<<16)
	for _, opts := range []trigger.Options{{PlainText: true}, {PlainText: true, MatchFromStart: true}, {PlainText: true, MatchAtEnd: true}} {
		p := trigger.MustCompile("ping", opts)

		start := time.Now()
		_, ok := p.Match(input)
		assert.False(t, ok)
		assert.Less(t, time.Since(start), 2*time.Second, "opts %+v", opts)
	}

	p := trigger.MustCompile("aab", trigger.Options{PlainText: true})
	m, ok := p.Match(input + "b")
	require.True(t, ok)
	start, end := m.Span()
	assert.Equal(t, len(input)-2, start)
	assert.Equal(t, len(input)+1, end)
}

func TestMatcher(t *testing.T) {
	t.Parallel()

	p := trigger.MustCompile("sum {numbers}", trigger.Prefix())

	t.Run("records widths", func(t *testing.T) {
		t.Parallel()
		m := p.Matcher()
		require.True(t, m.Matches("sum 1 2 3"))
		assert.Equal(t, "1 2 3", m.RemoveMatchedPrefix("sum 1 2 3"))
		assert.Equal(t, map[string]int{"numbers": 1}, m.Widths())
	})

	t.Run("panics without a match", func(t *testing.T) {
		t.Parallel()
		m := p.Matcher()
		assert.Panics(t, func() { m.RemoveMatchedPrefix("sum 1") })
	})

	t.Run("panics after a failed match", func(t *testing.T) {
		t.Parallel()
		m := p.Matcher()
		require.True(t, m.Matches("sum 1"))
		require.False(t, m.Matches("nope"))
		assert.Panics(t, func() { m.RemoveMatchedPrefix("nope") })
	})
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  []string
	}{
		{"a b  c", []string{"a", "b", "c"}},
		{`say "hello world" now`, []string{"say", "hello world", "now"}},
		{"\ttabs\nand lines ", []string{"tabs", "and", "lines"}},
		{`"unterminated quote`, []string{"unterminated quote"}},
		{`keep "" out`, []string{"keep", "out"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, trigger.Tokenize(tt.input))
		})
	}

	assert.Empty(t, trigger.Tokenize("   "))
}
