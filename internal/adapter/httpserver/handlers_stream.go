package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mstvnetwork/stream-proxy-server/internal/adapter/upstream"
	"github.com/mstvnetwork/stream-proxy-server/internal/domain"
	apperrors "github.com/mstvnetwork/stream-proxy-server/internal/platform/errors"
)

func (s *Server) registerStreamRoutes() {
	s.echo.GET("/stream/:channelId", s.handleStream)
	s.echo.HEAD("/stream/:channelId", s.handleStream)
	s.echo.GET("/channels", s.handleChannels)
}

// handleStream redirects the client to a fresh playlist URL for the channel.
// Every request probes upstream exactly once; nothing is cached.
func (s *Server) handleStream(c echo.Context) error {
	channelID := channelIDParam(c)

	ch, res, err := s.app.ResolveStream(c.Request().Context(), channelID)
	if err != nil {
		return streamError(channelID, ch, err)
	}

	// Tokenized URLs expire, so neither the client nor an intermediary may reuse this answer.
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	if err := c.Redirect(http.StatusFound, res.Location); err != nil {
		return fmt.Errorf("failed to write redirect: %w", err)
	}
	return nil
}

// channelIDParam returns the decoded channel id. One trailing slash is
// dropped so /stream/<id>/ reaches the same channel as /stream/<id>.
func channelIDParam(c echo.Context) string {
	raw := strings.TrimSuffix(c.Param("channelId"), "/")
	id, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return id
}

func streamError(channelID string, ch domain.Channel, err error) *apperrors.Error {
	if errors.Is(err, domain.ErrChannelNotFound) {
		return apperrors.NotFoundError(fmt.Sprintf("Channel '%s' not found.", channelID)).
			WithField("channel_id", channelID)
	}

	appErr := apperrors.UpstreamError(
		fmt.Sprintf("Failed to get fresh stream URL for %s. Please try again later.", ch.Name), err).
		WithField("channel_id", ch.ID).
		WithField("channel_name", ch.Name)

	var statusErr *upstream.UnexpectedStatusError
	switch {
	case errors.As(err, &statusErr):
		appErr.WithField("reason", "unexpected_status").WithField("upstream_status", statusErr.StatusCode)
	case errors.Is(err, domain.ErrNoLocationHeader):
		appErr.WithField("reason", "no_location_header")
	case errors.Is(err, domain.ErrUpstreamUnreachable):
		appErr.WithField("reason", "unreachable")
	}
	return appErr
}

type channelResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StreamPath string `json:"stream_path"`
}

// handleChannels lists configured channels. Base URLs are not exposed.
func (s *Server) handleChannels(c echo.Context) error {
	channels := s.app.Channels()

	resp := make([]channelResponse, 0, len(channels))
	for _, ch := range channels {
		resp = append(resp, channelResponse{
			ID:         ch.ID,
			Name:       ch.Name,
			StreamPath: "/stream/" + ch.ID,
		})
	}

	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write channels response: %w", err)
	}
	return nil
}
