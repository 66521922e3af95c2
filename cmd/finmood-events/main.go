package main

import (
	"os"

	"finmood/internal/cli"
	"finmood/internal/log"
)

func main() {
	cli.LoadEnvFile()
	log.SetDefault(log.NewText(os.Stderr, log.ParseLevel(os.Getenv("LOG_LEVEL")), log.ComponentAMQP))

	ctx, stop := cli.SignalContext()
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
