package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"carewatch/internal/platform/config"
	"carewatch/internal/platform/httpserver"
	"carewatch/internal/platform/logger"
)

const shutdownTimeout = 15 * time.Second

// main loads configuration, wires the application and runs the HTTP server
// and scheduler until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.New(os.Stderr, "error", "text").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	srv := httpserver.New(cfg.Addr, a.router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting carewatch", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		a.close()
		os.Exit(1)
	}
	log.Info("server stopped")
}
