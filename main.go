// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bluehensdev/formpilot/cmd"
)

// main is the entry point for the formpilot CLI.
func main() {
	// A Ctrl+C mid-fill cancels the run and tears the browser down cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
