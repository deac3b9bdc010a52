package httpserver

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/mstvnetwork/stream-proxy-server/internal/domain"
	"github.com/mstvnetwork/stream-proxy-server/internal/platform/config"
)

// --- Mock implementations ---

type mockStreamService struct {
	resolveStreamFn func(ctx context.Context, channelID string) (domain.Channel, domain.Resolution, error)
	channels        []domain.Channel
}

func (m *mockStreamService) ResolveStream(ctx context.Context, channelID string) (domain.Channel, domain.Resolution, error) {
	if m.resolveStreamFn != nil {
		return m.resolveStreamFn(ctx, channelID)
	}
	return domain.Channel{}, domain.Resolution{}, domain.ErrChannelNotFound
}

func (m *mockStreamService) Channels() []domain.Channel {
	return m.channels
}

// --- Test helpers ---

func newTestServer(t *testing.T, app streamService, opts ...func(*Server)) *Server {
	t.Helper()

	clock := clockwork.NewFakeClock()
	srv := &Server{
		echo:      echo.New(),
		config:    &config.Config{Port: "3000"},
		app:       app,
		clock:     clock,
		startTime: clock.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withClock(clock clockwork.Clock) func(*Server) {
	return func(s *Server) {
		s.clock = clock
		s.startTime = clock.Now()
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware(nil)(handler)(c)
}
