package outpost

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/headquarters/core/command"
	"github.com/dmitrymomot/headquarters/core/logger"
	"github.com/dmitrymomot/headquarters/pkg/ratelimiter"
)

const redisTransport = "redis"

// RedisConfig names the pub/sub channels of a Redis outpost.
type RedisConfig struct {
	InputChannel   string        `env:"OUTPOST_REDIS_INPUT" envDefault:"hq:input"`
	ReplyChannel   string        `env:"OUTPOST_REDIS_REPLY" envDefault:"hq:reply"`
	SessionTTL     time.Duration `env:"OUTPOST_REDIS_SESSION_TTL" envDefault:"30m"`
	PublishTimeout time.Duration `env:"OUTPOST_REDIS_PUBLISH_TIMEOUT" envDefault:"5s"`
}

// DefaultRedisConfig returns the settings used for zero-valued fields.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		InputChannel:   "hq:input",
		ReplyChannel:   "hq:reply",
		SessionTTL:     30 * time.Minute,
		PublishTimeout: 5 * time.Second,
	}
}

// RedisOption configures a Redis outpost.
type RedisOption func(*Redis)

// WithRedisLogger sets the logger.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(o *Redis) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRedisRateLimit bounds how fast each session may submit input.
// Requests without a session share one bucket.
func WithRedisRateLimit(l Limiter) RedisOption {
	return func(o *Redis) { o.limiter = l }
}

// publisher is the part of a go-redis client replies are sent through.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Redis subscribes to an input channel and publishes every result to a
// reply channel. Requests naming the same session share a ContextObject.
type Redis struct {
	client   redis.UniversalClient
	pub      publisher
	d        Dispatcher
	cfg      RedisConfig
	logger   *slog.Logger
	sessions *Sessions
	limiter  Limiter

	received  atomic.Int64
	published atomic.Int64
	failed    atomic.Int64
}

// RedisStats reports outpost counters.
type RedisStats struct {
	Received  int64
	Published int64
	Failed    int64
	Sessions  int
}

// NewRedis creates a Redis outpost. Zero-valued config fields take their defaults.
func NewRedis(client redis.UniversalClient, d Dispatcher, cfg RedisConfig, opts ...RedisOption) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if d == nil {
		return nil, ErrNilDispatcher
	}
	return newRedis(client, client, d, cfg, opts...), nil
}

func newRedis(client redis.UniversalClient, pub publisher, d Dispatcher, cfg RedisConfig, opts ...RedisOption) *Redis {
	def := DefaultRedisConfig()
	if cfg.InputChannel == "" {
		cfg.InputChannel = def.InputChannel
	}
	if cfg.ReplyChannel == "" {
		cfg.ReplyChannel = def.ReplyChannel
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = def.PublishTimeout
	}

	o := &Redis{
		client:   client,
		pub:      pub,
		d:        d,
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessions: NewSessions(cfg.SessionTTL),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stats returns current counters.
func (o *Redis) Stats() RedisStats {
	return RedisStats{
		Received:  o.received.Load(),
		Published: o.published.Load(),
		Failed:    o.failed.Load(),
		Sessions:  o.sessions.Len(),
	}
}

// Run provides errgroup compatibility. The returned function subscribes to
// the input channel and handles messages until ctx is cancelled.
//
// Example:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(registry.Run(ctx))
//	g.Go(redisOutpost.Run(ctx))
func (o *Redis) Run(ctx context.Context) func() error {
	return func() error {
		ps := o.client.Subscribe(ctx, o.cfg.InputChannel)
		defer func() { _ = ps.Close() }()

		if _, err := ps.Receive(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Join(ErrSubscribeFailed, err)
		}

		o.logger.Info("redis outpost listening",
			logger.Transport(redisTransport),
			logger.Channel(o.cfg.InputChannel))

		messages := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-messages:
				if !ok {
					return nil
				}
				o.handle([]byte(msg.Payload))
			}
		}
	}
}

// handle dispatches one input frame.
func (o *Redis) handle(data []byte) {
	o.received.Add(1)

	req := DecodeRequest(data)
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	id := req.ID

	if o.limiter != nil && !o.limiter.Allow("session:"+req.Session) {
		o.reply(NewResponse(id, command.Failure, ratelimiter.ErrRateLimitExceeded))
		return
	}

	ctx := o.sessions.Get(req.Session)
	ctx.Store(TransportKey, redisTransport)

	err := o.d.HandleInput(req.Text, ctx, func(kind command.ResultKind, payload any) {
		o.reply(NewResponse(id, kind, payload))
	})
	if err != nil {
		o.reply(NewResponse(id, command.Failure, err))
	}
}

func (o *Redis) reply(resp Response) {
	data, err := EncodeResponse(resp)
	if err != nil {
		o.failed.Add(1)
		o.logger.Error("response encoding failed",
			logger.Transport(redisTransport),
			logger.RequestID(resp.ID),
			logger.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.PublishTimeout)
	defer cancel()

	if err := o.pub.Publish(ctx, o.cfg.ReplyChannel, data).Err(); err != nil {
		o.failed.Add(1)
		o.logger.Warn("reply publish failed",
			logger.Transport(redisTransport),
			logger.Channel(o.cfg.ReplyChannel),
			logger.RequestID(resp.ID),
			logger.Error(errors.Join(ErrPublishFailed, err)))
		return
	}
	o.published.Add(1)
}
