// Package outpost carries command input from remote clients to a Dispatcher
// and results back. Two transports are provided: a WebSocket handler and a
// Redis pub/sub bridge. Both speak the same JSON frames.
//
// # Wire Format
//
// Requests:
//
//	{"id": "42", "session": "alice", "text": "sum 1 2 3 | double"}
//
// A frame that is not a JSON object is taken as the text itself, so plain
// "echo hi" works too. A missing id is replaced with a generated one.
//
// Responses, one per request:
//
//	{"id": "42", "kind": "success", "output": 12}
//	{"id": "43", "kind": "failure", "error": "parsing failed: ..."}
//	{"id": "44", "kind": "unhandled"}
//
// # WebSocket
//
// Every connection gets its own ContextObject, shared by all of its input:
//
//	ws, err := outpost.NewWebSocket(registry,
//		outpost.WithWSAllowAnyOrigin(),
//		outpost.WithWSLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//	mux.Handle("/ws", ws)
//
// WithWSOnConnect can seed or reject the context before input is read.
//
// Monitor streams every result event published on a broadcast.Broadcaster:
//
//	mux.Handle("/events", outpost.NewMonitor(events))
//
// # Redis
//
// The Redis outpost subscribes to RedisConfig.InputChannel and publishes
// responses to RedisConfig.ReplyChannel. Requests with the same session
// share a ContextObject until the session is idle for SessionTTL:
//
//	o, err := outpost.NewRedis(client, registry, cfg, outpost.WithRedisLogger(log))
//	if err != nil {
//		return err
//	}
//	g.Go(o.Run(ctx))
//
// From any Redis client:
//
//	PUBLISH hq:input '{"session":"alice","text":"remember blue"}'
//	SUBSCRIBE hq:reply
//
// WithWSRateLimit and WithRedisRateLimit take a Limiter such as
// *ratelimiter.Limiter. Input over the limit is answered with a failure
// frame carrying ratelimiter.ErrRateLimitExceeded.
//
// Outposts store TransportKey, RemoteAddrKey and SessionKey in the contexts
// they create so that commands can see where input came from.
package outpost
