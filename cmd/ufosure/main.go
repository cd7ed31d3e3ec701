package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hslu-pren/ufosure/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.NewCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ufosure: %v\n", err)
		return 1
	}
	return 0
}
