// Package server hosts HTTP handlers with graceful shutdown. Headquarters
// uses it to expose the WebSocket outpost, the event monitor and the health
// endpoints.
//
// # Usage
//
//	srv := server.New(":8080", server.WithLogger(log))
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, mux))
//	if err := g.Wait(); err != nil {
//		return err
//	}
//
// Run starts serving and shuts the server down when the context is cancelled,
// waiting up to the shutdown timeout for in-flight requests.
//
// # Configuration
//
// Config is loaded from the environment:
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//
// HQ_HTTP_WRITE_TIMEOUT defaults to zero because WebSocket connections live
// for as long as the client stays connected.
//
// Use ":0" to let the system pick a port; Addr reports the bound address
// once the server is listening.
package server
