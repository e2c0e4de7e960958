// Package ratelimiter provides an in-memory keyed token bucket.
//
// Each key starts with Capacity tokens. Every RefillInterval, RefillRate
// tokens are added back, never beyond Capacity. Allow consumes one token.
//
// The outposts use one key per WebSocket connection or Redis session to
// bound how fast a single client can submit input:
//
//	limiter, err := ratelimiter.New(ratelimiter.Config{
//		Capacity:       20,
//		RefillRate:     10,
//		RefillInterval: time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	g.Go(limiter.Run(ctx))
//
//	if !limiter.Allow(connID) {
//		return ratelimiter.ErrRateLimitExceeded
//	}
//
// Run removes buckets that have been idle longer than WithIdleTTL.
package ratelimiter
