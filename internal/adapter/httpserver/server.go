package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/mstvnetwork/stream-proxy-server/internal/adapter/metrics"
	"github.com/mstvnetwork/stream-proxy-server/internal/domain"
	"github.com/mstvnetwork/stream-proxy-server/internal/platform/config"
	"github.com/prometheus/client_golang/prometheus"
)

type streamService interface {
	ResolveStream(ctx context.Context, channelID string) (domain.Channel, domain.Resolution, error)
	Channels() []domain.Channel
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app streamService

	metricsRegistry *prometheus.Registry
	httpMetrics     *metrics.HTTPMetrics

	healthChecks []HealthCheck
	clock        clockwork.Clock
	startTime    time.Time
}

func NewServer(cfg *config.Config, app streamService, reg *prometheus.Registry, httpMetrics *metrics.HTTPMetrics, clock clockwork.Clock, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = !cfg.IsProduction()

	srv := &Server{
		echo:            e,
		config:          cfg,
		app:             app,
		metricsRegistry: reg,
		httpMetrics:     httpMetrics,
		healthChecks:    healthChecks,
		clock:           clock,
		startTime:       clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the full middleware and route stack.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
