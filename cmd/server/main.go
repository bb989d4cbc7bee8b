package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"aidledger/internal/app"
	"aidledger/internal/platform/config"
	"aidledger/internal/platform/httpserver"
	"aidledger/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer a.Close()

	// Make sure the snapshot row exists.
	if _, err := a.Reader.Snapshot(ctx); err != nil {
		return fmt.Errorf("initialize snapshot: %w", err)
	}

	srv := httpserver.New(cfg.Server.Addr, a.Handler())

	// Either listener failing stops both.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log.With("listener", "api"))
	})
	if cfg.Server.OpsAddr != "" {
		ops := httpserver.New(cfg.Server.OpsAddr, a.OpsHandler())
		g.Go(func() error {
			return httpserver.Run(gctx, ops, cfg.Server.ShutdownTimeout, log.With("listener", "ops"))
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}
