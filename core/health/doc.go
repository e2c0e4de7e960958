// Package health provides net/http handlers for service health monitoring.
//
// Handlers:
//   - Liveness: process is running (no dependency checks)
//   - Readiness: every dependency check passes
//   - NoContent: returns 204 for minimal overhead
//
// Usage:
//
//	mux.HandleFunc("GET /health/live", health.Liveness)
//	mux.Handle("GET /health/ready", health.Readiness(log,
//		registry.Healthcheck,
//		redis.Healthcheck(client),
//	))
//	mux.HandleFunc("GET /ping", health.NoContent)
//
// Dependency checks follow the func(context.Context) error signature.
package health
