package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/mstvnetwork/stream-proxy-server/internal/adapter/httpserver"
	"github.com/mstvnetwork/stream-proxy-server/internal/adapter/metrics"
	"github.com/mstvnetwork/stream-proxy-server/internal/adapter/upstream"
	"github.com/mstvnetwork/stream-proxy-server/internal/app"
	"github.com/mstvnetwork/stream-proxy-server/internal/channel"
	"github.com/mstvnetwork/stream-proxy-server/internal/platform/config"
	"github.com/mstvnetwork/stream-proxy-server/internal/platform/logging"
	"github.com/mstvnetwork/stream-proxy-server/internal/platform/version"
)

func runGracefulShutdown(srv *httpserver.Server, cfg *config.Config) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, draining requests...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupChannels(cfg *config.Config) *channel.Registry {
	registry, err := channel.Load(cfg.ChannelsFile)
	if err != nil {
		slog.Error("Failed to load channel table", "file", cfg.ChannelsFile, "error", err)
		os.Exit(1)
	}

	source := cfg.ChannelsFile
	if source == "" {
		source = "embedded"
	}
	slog.Info("Channel table loaded", "source", source, "channels", registry.Len())
	return registry
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	registry := setupChannels(cfg)

	reg := metrics.NewRegistry()
	resolver := upstream.NewResolver(upstream.Options{
		Timeout:   cfg.UpstreamTimeout,
		UserAgent: cfg.UpstreamUserAgent,
	}, clock, metrics.NewUpstreamMetrics(reg))

	appSvc := app.NewService(registry, resolver)

	srv := httpserver.NewServer(cfg, appSvc, reg, metrics.NewHTTPMetrics(reg), clock, []httpserver.HealthCheck{
		httpserver.ChannelsHealthCheck(registry),
	})

	done := runGracefulShutdown(srv, cfg)

	slog.Info("Stream proxy listening", "port", cfg.Port, "route", "/stream/:channelId")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
