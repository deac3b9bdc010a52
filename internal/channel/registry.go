// Package channel holds the immutable table of channels the proxy can serve.
package channel

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/mstvnetwork/stream-proxy-server/internal/domain"
)

// Registry maps channel IDs to their upstream entry points. It is built once
// and never mutated, so concurrent lookups need no locking.
type Registry struct {
	byID map[string]domain.Channel
	ids  []string
}

var _ domain.ChannelRegistry = (*Registry)(nil)

// NewRegistry validates channels and builds a registry. A repeated ID is a
// configuration error; entries are never silently overwritten.
func NewRegistry(channels []domain.Channel) (*Registry, error) {
	r := &Registry{
		byID: make(map[string]domain.Channel, len(channels)),
		ids:  make([]string, 0, len(channels)),
	}

	for i, ch := range channels {
		if err := validateChannel(ch); err != nil {
			return nil, fmt.Errorf("channel #%d: %w", i, err)
		}
		if _, exists := r.byID[ch.ID]; exists {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateChannel, ch.ID)
		}
		r.byID[ch.ID] = ch
		r.ids = append(r.ids, ch.ID)
	}

	slices.Sort(r.ids)
	return r, nil
}

func validateChannel(ch domain.Channel) error {
	if strings.TrimSpace(ch.ID) == "" {
		return fmt.Errorf("%w: empty id", domain.ErrInvalidChannel)
	}
	if strings.ContainsAny(ch.ID, "/?# ") {
		return fmt.Errorf("%w: id %q contains reserved characters", domain.ErrInvalidChannel, ch.ID)
	}
	if strings.TrimSpace(ch.Name) == "" {
		return fmt.Errorf("%w: %q has no name", domain.ErrInvalidChannel, ch.ID)
	}

	u, err := url.Parse(ch.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %q base URL: %w", domain.ErrInvalidChannel, ch.ID, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q base URL must be an absolute http(s) URL", domain.ErrInvalidChannel, ch.ID)
	}
	return nil
}

// Lookup returns the channel with the given ID or domain.ErrChannelNotFound.
func (r *Registry) Lookup(id string) (domain.Channel, error) {
	ch, ok := r.byID[id]
	if !ok {
		return domain.Channel{}, domain.ErrChannelNotFound
	}
	return ch, nil
}

// List returns a copy of all channels ordered by ID.
func (r *Registry) List() []domain.Channel {
	out := make([]domain.Channel, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.ids)
}
