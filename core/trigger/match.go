package trigger

import "strings"

// Match is the result of a successful Pattern.Match.
type Match struct {
	text       string
	start, end int
	names      []string
	values     map[string]string
}

// Text returns the input the match was taken from.
func (m *Match) Text() string { return m.text }

// Span returns the byte offsets of the matched region.
func (m *Match) Span() (int, int) { return m.start, m.end }

// Raw returns the capture for name exactly as it appeared, quotes included.
func (m *Match) Raw(name string) (string, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Value returns the capture for name with surrounding quotes removed.
func (m *Match) Value(name string) (string, bool) {
	v, ok := m.values[name]
	if !ok {
		return "", false
	}
	return unquote(v), true
}

// Widths returns the number of tokens each placeholder captured.
// A quoted capture counts as one token and an absent optional field as zero.
func (m *Match) Widths() map[string]int {
	out := make(map[string]int, len(m.names))
	for _, name := range m.names {
		v, ok := m.values[name]
		switch {
		case !ok:
			out[name] = 0
		case unquote(v) == "":
			out[name] = 0
		case isQuoted(v):
			out[name] = 1
		default:
			out[name] = len(strings.Fields(v))
		}
	}
	return out
}

// Remainder returns the captured values in placeholder order followed by
// the input found outside the matched span. Quoted captures keep their
// quotes so that Tokenize yields them as a single token.
func (m *Match) Remainder() string {
	parts := make([]string, 0, len(m.names)+2)
	for _, name := range m.names {
		if v, ok := m.values[name]; ok && unquote(v) != "" {
			parts = append(parts, v)
		}
	}
	if before := strings.TrimSpace(m.text[:m.start]); before != "" {
		parts = append(parts, before)
	}
	if after := strings.TrimSpace(m.text[m.end:]); after != "" {
		parts = append(parts, after)
	}
	return strings.Join(parts, " ")
}

// Matcher records the last successful match of a pattern.
// It is not safe for concurrent use; share the Pattern instead.
type Matcher struct {
	pattern *Pattern
	last    *Match
	widths  map[string]int
}

// Matches reports whether text satisfies the pattern and records the match.
func (m *Matcher) Matches(text string) bool {
	match, ok := m.pattern.Match(text)
	m.last = match
	return ok
}

// RemoveMatchedPrefix strips the recorded match from text and returns the
// remaining argument text. It panics when no successful match was recorded.
func (m *Matcher) RemoveMatchedPrefix(text string) string {
	if m.last == nil {
		panic("trigger: RemoveMatchedPrefix called without a successful match")
	}
	if text != m.last.text {
		if !m.Matches(text) {
			panic("trigger: RemoveMatchedPrefix called with text that does not match")
		}
	}
	m.widths = m.last.Widths()
	return m.last.Remainder()
}

// Widths returns the per-placeholder widths recorded by the last RemoveMatchedPrefix.
func (m *Matcher) Widths() map[string]int {
	return m.widths
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func unquote(s string) string {
	if isQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}
