package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"creatorstribe/internal/admincli"
	"creatorstribe/internal/apiclient"
	"creatorstribe/internal/config"
	"creatorstribe/internal/log"
	"creatorstribe/internal/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := log.NewCLI(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(cfg.BaseURL, cfg.StateDir, cfg.Timeout, logger)
	authSession, err := session.New(ctx, client, session.NewFileStore(cfg.StateDir), session.Options{
		Timeout: cfg.Timeout,
		Log:     logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("restore session failed")
		return 1
	}

	app := admincli.New(authSession, client, os.Stdin, os.Stdout)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, admincli.ErrUsage) {
			return 2
		}
		logger.Debug().Err(err).Msg("command failed")
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
