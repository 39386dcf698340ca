// Package main provides the entry point for the focus CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"focus/internal/cli"
)

var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: date})
	stop()
	if err != nil {
		os.Exit(1)
	}
}
