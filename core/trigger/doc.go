// Package trigger compiles human-authored trigger patterns into matchers that
// both recognise input text and extract named fields from it.
//
// A pattern is literal text (or a regular expression) with named placeholders:
//
//	unit-test {word} more words {word2} {number?}
//
// {name} is a required field and {name?} an optional one. Each placeholder
// captures either a double-quoted span, taken verbatim as one token, or a
// maximal run of non-whitespace, non-quote characters.
//
// # Options
//
//   - MatchFromStart anchors the pattern at the beginning of the input
//   - MatchAtEnd requires the match to reach the end of the input
//   - PlainText skips regular expressions and uses literal prefix, suffix,
//     equality or containment checks
//   - CaseSensitive disables case-insensitive matching (the default)
//
// # Usage
//
//	p := trigger.MustCompile("say {message}", trigger.Options{MatchFromStart: true})
//
//	m, ok := p.Match(`say "hello there" loudly`)
//	if ok {
//		m.Value("message")   // hello there
//		m.Widths()           // map[message:1]
//		m.Remainder()        // "hello there" loudly
//	}
//
// Patterns are immutable and safe for concurrent use. The stateful Matcher
// returned by Pattern.Matcher offers the record-then-extract contract for a
// single goroutine:
//
//	m := p.Matcher()
//	if m.Matches(input) {
//		rest := m.RemoveMatchedPrefix(input)
//		_ = m.Widths()
//	}
//
// RemoveMatchedPrefix panics when called before a successful Matches.
package trigger
