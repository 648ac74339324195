package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"salary-trends/cmd"
)

func main() {
	// SIGINT stops the run between pages; what was collected is still written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
