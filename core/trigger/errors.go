package trigger

import "errors"

var (
	// ErrDuplicatePlaceholder is returned when a placeholder name is used twice in one pattern.
	ErrDuplicatePlaceholder = errors.New("trigger: duplicate placeholder name")

	// ErrInvalidPattern is returned when the rewritten pattern fails to compile.
	ErrInvalidPattern = errors.New("trigger: invalid pattern")

	// ErrEmptyPattern is returned for an empty plain-text pattern.
	ErrEmptyPattern = errors.New("trigger: empty pattern")
)
