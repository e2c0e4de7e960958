package outpost

import "github.com/dmitrymomot/headquarters/core/command"

// Dispatcher accepts input for asynchronous dispatch.
// *command.Registry implements it.
type Dispatcher interface {
	HandleInput(text string, ctx command.ContextObject, cb command.Callback) error
}

// Limiter admits or rejects one submission for key.
// *ratelimiter.Limiter implements it.
type Limiter interface {
	Allow(key string) bool
}

type forgetter interface {
	Forget(key string)
}

// Context keys stored by outposts in every ContextObject they create.
const (
	TransportKey  = "outpost.transport"
	RemoteAddrKey = "outpost.remote_addr"
	SessionKey    = "outpost.session"
)
