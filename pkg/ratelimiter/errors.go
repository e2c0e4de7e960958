package ratelimiter

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)
