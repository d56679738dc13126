// Package main provides the leadrelay command: it normalizes vendor lead
// exports, attributes each lead to a shop and posts it to the collector.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// errJobsFailed marks a run that finished with at least one hard job failure.
var errJobsFailed = errors.New("one or more jobs failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
