package app

import (
	"context"
	"fmt"

	"github.com/mstvnetwork/stream-proxy-server/internal/domain"
	"github.com/mstvnetwork/stream-proxy-server/internal/platform/logging"
)

// Service is the application layer. It is stateless apart from its
// dependencies and safe for concurrent use.
type Service struct {
	channels domain.ChannelRegistry
	resolver domain.StreamResolver
}

func NewService(channels domain.ChannelRegistry, resolver domain.StreamResolver) *Service {
	return &Service{
		channels: channels,
		resolver: resolver,
	}
}

// ResolveStream looks up channelID and probes its upstream once.
// The returned channel is populated whenever the lookup succeeded, even if
// resolution failed, so callers can name it in error responses.
func (s *Service) ResolveStream(ctx context.Context, channelID string) (domain.Channel, domain.Resolution, error) {
	ch, err := s.channels.Lookup(channelID)
	if err != nil {
		return domain.Channel{}, domain.Resolution{}, fmt.Errorf("lookup %q: %w", channelID, err)
	}

	logger := logging.WithChannel(ch.ID, ch.Name)
	logger.InfoContext(ctx, "Stream requested, fetching fresh URL", "base_url", ch.BaseURL)

	res, err := s.resolver.Resolve(ctx, ch)
	if err != nil {
		return ch, domain.Resolution{}, fmt.Errorf("resolve %q: %w", ch.ID, err)
	}

	switch res.Kind {
	case domain.ResolutionRedirect:
		logger.InfoContext(ctx, "Upstream redirected to tokenized URL", "location", res.Location)
	case domain.ResolutionDirect:
		logger.InfoContext(ctx, "Upstream answered directly, serving base URL", "location", res.Location)
	}

	return ch, res, nil
}

// Channels returns all configured channels ordered by ID.
func (s *Service) Channels() []domain.Channel {
	return s.channels.List()
}
