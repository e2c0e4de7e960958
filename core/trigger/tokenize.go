package trigger

import (
	"strings"
	"unicode"
)

// Tokenize splits text on whitespace, keeping double-quoted spans together.
// Quotes are removed and empty tokens dropped.
func Tokenize(text string) []string {
	var (
		tokens []string
		sb     strings.Builder
		quoted bool
	)

	flush := func() {
		if sb.Len() > 0 {
			tokens = append(tokens, sb.String())
			sb.Reset()
		}
	}

	for _, r := range text {
		switch {
		case r == '"':
			if quoted {
				flush()
			}
			quoted = !quoted
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			sb.WriteRune(r)
		}
	}
	flush()

	return tokens
}
