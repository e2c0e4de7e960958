package trigger

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// captureExpr matches one placeholder value: a quoted span or a bare word.
const captureExpr = `"[^"]*"|[^"\s]+`

var placeholderRE = regexp.MustCompile(`\{(\??)([A-Za-z_][A-Za-z0-9_]*)(\??)\}`)

// Placeholder is a named field of a trigger pattern.
type Placeholder struct {
	Name     string
	Optional bool
}

// Pattern is a compiled trigger. It is immutable and safe for concurrent use.
type Pattern struct {
	source       string
	opts         Options
	placeholders []Placeholder

	re *regexp.Regexp

	// plain-text mode
	literal string
}

// Compile parses a trigger pattern.
// Placeholders are rewritten into named capture groups unless opts.PlainText is set,
// in which case the pattern is compared literally and braces have no meaning.
func Compile(pattern string, opts Options) (*Pattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, ErrEmptyPattern
	}

	p := &Pattern{source: pattern, opts: opts}

	if opts.PlainText {
		p.literal = pattern
		if !opts.CaseSensitive {
			p.literal = fold(pattern)
		}
		return p, nil
	}

	expr, placeholders, err := rewrite(pattern)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if !opts.CaseSensitive {
		b.WriteString("(?i)")
	}
	if opts.MatchFromStart {
		b.WriteString("^")
	}
	b.WriteString("(?:")
	b.WriteString(expr)
	b.WriteString(")")
	if opts.MatchAtEnd {
		b.WriteString("$")
	}

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}

	p.re = re
	p.placeholders = placeholders
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string, opts Options) *Pattern {
	p, err := Compile(pattern, opts)
	if err != nil {
		panic(err)
	}
	return p
}

// rewrite replaces every placeholder with a named group. An optional
// placeholder absorbs the whitespace in front of it so that the pattern
// still matches when the field is left out.
func rewrite(pattern string) (string, []Placeholder, error) {
	var (
		b            strings.Builder
		placeholders []Placeholder
		seen         = map[string]bool{}
		last         int
	)

	for _, loc := range placeholderRE.FindAllStringSubmatchIndex(pattern, -1) {
		name := pattern[loc[4]:loc[5]]
		optional := loc[3] > loc[2] || loc[7] > loc[6]
		if seen[name] {
			return "", nil, fmt.Errorf("%w: %q in %q", ErrDuplicatePlaceholder, name, pattern)
		}
		seen[name] = true
		placeholders = append(placeholders, Placeholder{Name: name, Optional: optional})

		literal := pattern[last:loc[0]]
		group := "(?P<" + name + ">" + captureExpr + ")"
		if optional {
			trimmed := strings.TrimRight(literal, " \t")
			if len(trimmed) < len(literal) {
				b.WriteString(trimmed)
				b.WriteString(`(?:\s+` + group + `)?`)
			} else {
				b.WriteString(literal)
				b.WriteString(group + "?")
			}
		} else {
			b.WriteString(literal)
			b.WriteString(group)
		}
		last = loc[1]
	}
	b.WriteString(pattern[last:])

	return b.String(), placeholders, nil
}

// String returns the source pattern.
func (p *Pattern) String() string { return p.source }

// Options returns the options the pattern was compiled with.
func (p *Pattern) Options() Options { return p.opts }

// Placeholders returns the placeholders in the order they appear.
func (p *Pattern) Placeholders() []Placeholder {
	out := make([]Placeholder, len(p.placeholders))
	copy(out, p.placeholders)
	return out
}

// Match reports whether text satisfies the pattern and returns the captures.
func (p *Pattern) Match(text string) (*Match, bool) {
	if p.re == nil {
		start, end, ok := p.matchPlain(text)
		if !ok {
			return nil, false
		}
		return &Match{text: text, start: start, end: end}, true
	}

	loc := p.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false
	}

	m := &Match{
		text:   text,
		start:  loc[0],
		end:    loc[1],
		names:  make([]string, 0, len(p.placeholders)),
		values: make(map[string]string, len(p.placeholders)),
	}
	for _, ph := range p.placeholders {
		m.names = append(m.names, ph.Name)
		idx := p.re.SubexpIndex(ph.Name)
		if idx < 0 || loc[2*idx] < 0 {
			continue
		}
		m.values[ph.Name] = text[loc[2*idx]:loc[2*idx+1]]
	}
	return m, true
}

// Matcher returns a stateful matcher bound to this pattern.
func (p *Pattern) Matcher() *Matcher {
	return &Matcher{pattern: p}
}

func (p *Pattern) matchPlain(text string) (int, int, bool) {
	lit := p.literal
	subject := text
	if !p.opts.CaseSensitive {
		if !isASCII(text) {
			return p.matchFoldedSlow(text)
		}
		subject = fold(text)
	}

	switch {
	case p.opts.MatchFromStart && p.opts.MatchAtEnd:
		return 0, len(text), subject == lit
	case p.opts.MatchFromStart:
		return 0, len(lit), strings.HasPrefix(subject, lit)
	case p.opts.MatchAtEnd:
		return len(text) - len(lit), len(text), strings.HasSuffix(subject, lit)
	default:
		i := strings.Index(subject, lit)
		return i, i + len(lit), i >= 0
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// matchFoldedSlow handles non-ASCII input, whose folded form may shift offsets.
// The subject is folded once, rune by rune, and a match is accepted only when
// it starts and ends on the fold of a whole original rune.
func (p *Pattern) matchFoldedSlow(text string) (int, int, bool) {
	c := cases.Fold()

	var folded strings.Builder
	folded.Grow(len(text))
	// origin[i] is the offset in text of the rune whose fold starts at folded
	// offset i, or -1 when i falls inside a rune's fold.
	origin := make([]int, 0, len(text)+1)
	for i := range text {
		_, w := utf8.DecodeRuneInString(text[i:])
		piece := c.String(text[i : i+w])
		origin = append(origin, i)
		for range len(piece) - 1 {
			origin = append(origin, -1)
		}
		folded.WriteString(piece)
	}
	origin = append(origin, len(text))

	subject, lit := folded.String(), p.literal
	if len(lit) > len(subject) {
		return 0, 0, false
	}

	try := func(s int) (int, int, bool) {
		e := s + len(lit)
		if origin[s] < 0 || origin[e] < 0 || subject[s:e] != lit {
			return 0, 0, false
		}
		return origin[s], origin[e], true
	}

	switch {
	case p.opts.MatchFromStart && p.opts.MatchAtEnd:
		if len(subject) != len(lit) {
			return 0, 0, false
		}
		return try(0)
	case p.opts.MatchFromStart:
		return try(0)
	case p.opts.MatchAtEnd:
		return try(len(subject) - len(lit))
	}

	for s := 0; s+len(lit) <= len(subject); {
		i := strings.Index(subject[s:], lit)
		if i < 0 {
			break
		}
		if start, end, ok := try(s + i); ok {
			return start, end, true
		}
		s += i + 1
	}
	return 0, 0, false
}

// fold applies Unicode case folding. A Caser carries state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
