package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cvio-backend/internal/bootstrap"
	"cvio-backend/internal/shared/config"
	"cvio-backend/internal/shared/server"
	"cvio-backend/internal/shared/telemetry"
	"cvio-backend/internal/shared/tracing"
)

func main() {
	cfg := config.Load()
	if err := telemetry.Init(cfg.Env, cfg.LogLevel); err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer telemetry.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  "cvio-backend",
		Environment:  cfg.Env,
		SamplerRatio: cfg.OTelSamplerRatio,
	})
	if err != nil {
		log.Fatalf("tracing init: %v", err)
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		telemetry.Info("server.starting", map[string]any{"addr": srv.Addr, "store": cfg.Store})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Error("server.failed", map[string]any{"error": err})
			stop()
		}
	}()

	<-ctx.Done()
	telemetry.Info("server.stopping", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("server.shutdown_failed", map[string]any{"error": err})
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		telemetry.Warn("tracing.shutdown_failed", map[string]any{"error": err})
	}
	if err := app.Close(); err != nil {
		telemetry.Warn("app.close_failed", map[string]any{"error": err})
	}
}
