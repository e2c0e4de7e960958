package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/headquarters/core/command"
	"github.com/dmitrymomot/headquarters/core/config"
	"github.com/dmitrymomot/headquarters/core/health"
	"github.com/dmitrymomot/headquarters/core/logger"
	"github.com/dmitrymomot/headquarters/core/server"
	"github.com/dmitrymomot/headquarters/integration/database/redis"
	"github.com/dmitrymomot/headquarters/integration/outpost"
	"github.com/dmitrymomot/headquarters/pkg/broadcast"
	"github.com/dmitrymomot/headquarters/pkg/ratelimiter"
)

// ServeConfig holds the settings used only by serve.
type ServeConfig struct {
	HTTP      server.Config
	Outpost   outpost.RedisConfig
	RateLimit ratelimiter.Config

	RateLimitEnabled bool `env:"HQ_RATE_LIMIT" envDefault:"false"`

	EventBuffer    int  `env:"HQ_EVENT_BUFFER" envDefault:"64"`
	AllowAnyOrigin bool `env:"HQ_WS_ALLOW_ANY_ORIGIN" envDefault:"false"`
}

func (app *App) addServeCommand(rootCmd *cobra.Command) {
	var addr string
	var withRedis bool

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve commands over WebSocket and Redis",
		Long: `Serve exposes the registry to remote clients:

  /ws            WebSocket outpost, one context per connection
  /events        WebSocket stream of every finished submission
  /health/live   liveness probe
  /health/ready  readiness probe

With --redis, inputs published on HQ's input channel are dispatched too and
their results are published on the reply channel.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg ServeConfig
			if err := config.Load(&cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.HTTP.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.serve(ctx, cfg, withRedis)
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().BoolVar(&withRedis, "redis", false, "Also serve the Redis pub/sub outpost (REDIS_URL)")

	rootCmd.AddCommand(serveCmd)
}

func (app *App) serve(ctx context.Context, cfg ServeConfig, withRedis bool) error {
	log := app.Logger

	srv, err := server.NewFromConfig(cfg.HTTP, server.WithLogger(log))
	if err != nil {
		return err
	}

	events := broadcast.NewMemoryBroadcaster[command.ResultEvent](cfg.EventBuffer)
	defer func() { _ = events.Close() }()

	r, err := app.newRegistry(command.WithResultListener(func(e command.ResultEvent) {
		_ = events.Broadcast(context.Background(), broadcast.Message[command.ResultEvent]{Data: e})
	}))
	if err != nil {
		return err
	}

	wsOpts := []outpost.WebSocketOption{
		outpost.WithWSLogger(log.With(logger.Transport("websocket"))),
	}
	if cfg.AllowAnyOrigin {
		wsOpts = append(wsOpts, outpost.WithWSAllowAnyOrigin())
	}

	redisOpts := []outpost.RedisOption{
		outpost.WithRedisLogger(log.With(logger.Transport("redis"))),
	}

	var limiter *ratelimiter.Limiter
	if cfg.RateLimitEnabled {
		limiter, err = ratelimiter.New(cfg.RateLimit, ratelimiter.WithLogger(log))
		if err != nil {
			_ = r.Dispose()
			return err
		}
		wsOpts = append(wsOpts, outpost.WithWSRateLimit(limiter))
		redisOpts = append(redisOpts, outpost.WithRedisRateLimit(limiter))
	}

	ws, err := outpost.NewWebSocket(r, wsOpts...)
	if err != nil {
		_ = r.Dispose()
		return err
	}

	checks := []func(context.Context) error{r.Healthcheck}

	var redisOutpost *outpost.Redis
	if withRedis {
		client, err := connectRedis(ctx)
		if err != nil {
			_ = r.Dispose()
			return err
		}
		defer func() { _ = client.Close() }()

		redisOutpost, err = outpost.NewRedis(client, r, cfg.Outpost, redisOpts...)
		if err != nil {
			_ = r.Dispose()
			return err
		}
		checks = append(checks, redis.Healthcheck(client))
	}

	mux := newMux(ws, outpost.NewMonitor(events, wsOpts...), log, checks)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(r.Run(ctx))
	g.Go(srv.Run(ctx, mux))
	if redisOutpost != nil {
		g.Go(redisOutpost.Run(ctx))
	}
	if limiter != nil {
		g.Go(limiter.Run(ctx))
	}

	return g.Wait()
}

func connectRedis(ctx context.Context) (*goredis.Client, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return redis.Connect(ctx, cfg)
}

func newMux(ws, monitor http.Handler, log *slog.Logger, checks []func(context.Context) error) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /ws", ws)
	mux.Handle("GET /events", monitor)
	mux.HandleFunc("GET /health/live", health.Liveness)
	mux.Handle("GET /health/ready", health.Readiness(log, checks...))
	return server.RequestID(server.Logging(log)(mux))
}
