// Package main provides the hq command line: an interactive console, a batch
// runner and a server exposing the command registry over WebSocket and Redis.
package main

import (
	"os"

	"github.com/dmitrymomot/headquarters/cmd/hq/internal/cli"
)

func main() {
	app := cli.NewApp()
	rootCmd := app.CreateRootCommand()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
