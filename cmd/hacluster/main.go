// Package main is the entry point for the hacluster CLI.
//
// hacluster provisions and operates a high-availability cluster of
// backend and frontend machines on ec2 or Hetzner Cloud.
//
// Commands: create, install, stop, destroy, plan, storage apply, version.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/hacluster/cmd/hacluster/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
