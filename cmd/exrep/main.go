// Package main is the entry point for the exrep command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/j-veylop/exon-report/internal/cli"
	"github.com/j-veylop/exon-report/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Execute(ctx, version.Info())
	stop()
	if err != nil {
		os.Exit(1)
	}
}
