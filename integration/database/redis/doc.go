// Package redis opens go-redis clients with connection verification and
// provides a health check. The outpost package uses these clients to carry
// command input and results over Redis pub/sub.
//
// # Configuration
//
// Config is loaded from the environment with core/config:
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//	}
//
// Both redis:// and rediss:// (TLS) URLs are accepted.
//
// # Usage
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	check := redis.Healthcheck(client)
//
// Connect pings the server up to RetryAttempts times, doubling RetryInterval
// after each failure, and gives up early when the context or ConnectTimeout
// expires.
//
// # Errors
//
//   - ErrEmptyConnectionURL: no connection URL was provided
//   - ErrFailedToParseRedisConnString: the URL is malformed
//   - ErrRedisNotReady: the server did not answer within the retry budget
//   - ErrHealthcheckFailed: a health check ping failed
//
// The go-redis cause is joined to each error and can be inspected with errors.Is.
package redis
