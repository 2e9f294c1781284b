// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/glyphmark/internal/observability"
	"github.com/holomush/glyphmark/internal/render"
)

// shutdownTimeout bounds the graceful stop of the HTTP server.
const shutdownTimeout = 5 * time.Second

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// ServerFactory creates the HTTP server.
	// Default: observability.NewServer
	ServerFactory func(addr string, readinessChecker observability.ReadinessChecker) RenderServer

	// SignalContext returns a context cancelled on SIGINT or SIGTERM.
	// Default: signal.NotifyContext
	SignalContext func(ctx context.Context) (context.Context, context.CancelFunc)
}

// RenderServer interface wraps the methods used from observability.Server.
type RenderServer interface {
	Handle(pattern string, h http.Handler)
	Metrics() *observability.Metrics
	Registerer() prometheus.Registerer
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var scripts []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve markup rendering over HTTP",
		Long: `Serve markup rendering over HTTP. POST a JSON body of the form
{"lines": [...], "index": 0, "carry": false} to /render; metrics and health
probes are served on the same address. Each client address may make
serve.burst requests at once, refilled at serve.rate per second.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, scripts, nil)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default 127.0.0.1:9180)")
	cmd.Flags().StringArrayVar(&scripts, "script", nil, "Lua resolver script (repeatable, after configured scripts)")
	addSurfaceFlags(cmd)

	return cmd
}

// runServeWithDeps serves until ctx is cancelled, a signal arrives or the
// server fails. If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, scripts []string, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.ServerFactory == nil {
		deps.ServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) RenderServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if deps.SignalContext == nil {
		deps.SignalContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var ready atomic.Bool
	server := deps.ServerFactory(cfg.Serve.Addr, ready.Load)

	engine, closeScripts, err := newEngine(cfg, scripts,
		render.WithMetrics(server.Metrics()),
		render.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}
	defer closeScripts()

	limiter := render.NewRateLimiter(render.RateLimiterConfig{
		BurstCapacity: cfg.Serve.Burst,
		SustainedRate: cfg.Serve.Rate,
	}, server.Registerer())
	defer limiter.Close()

	server.Handle("/render", limiter.Middleware(render.NewHandler(engine)))

	ctx, stop := deps.SignalContext(ctx)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh, err := server.Start()
	if err != nil {
		return oops.In("cli").With("addr", cfg.Serve.Addr).Hint("failed to start render server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, errCh, "render")

	ready.Store(true)
	cmd.Printf("glyphmark serving on http://%s\n", server.Addr())
	slog.Info("render service ready",
		"addr", server.Addr(),
		"surface_width", cfg.Surface.Width,
		"surface_height", cfg.Surface.Height,
	)

	<-ctx.Done()
	ready.Store(false)
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping render server", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
		// Context cancelled, exit monitoring
	}
}
