package trigger

// Options describe how a Pattern matches input.
type Options struct {
	// MatchFromStart anchors the match at position 0.
	MatchFromStart bool `json:"match_from_start"`
	// MatchAtEnd requires the match to end at the end of the input.
	MatchAtEnd bool `json:"match_at_end"`
	// PlainText compares literally instead of compiling a regular expression.
	PlainText bool `json:"plain_text"`
	// CaseSensitive disables case-insensitive matching.
	CaseSensitive bool `json:"case_sensitive"`
}

// Exact matches the whole input literally.
func Exact() Options {
	return Options{MatchFromStart: true, MatchAtEnd: true, PlainText: true}
}

// Prefix anchors a regular expression pattern at the start of the input.
func Prefix() Options {
	return Options{MatchFromStart: true}
}
