package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/iamxdv30/TheOmnitool-sub000/cmd/taxcalc/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
