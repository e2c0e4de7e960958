package config

import "errors"

var (
	// ErrNilConfig is returned when a nil destination is passed.
	ErrNilConfig = errors.New("config: nil destination")

	// ErrParsingConfig is returned when environment variables cannot be parsed.
	ErrParsingConfig = errors.New("config: failed to parse environment")
)
