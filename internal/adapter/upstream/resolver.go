// Package upstream probes channel base URLs and turns the answer into a
// playable location for the client.
package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mstvnetwork/stream-proxy-server/internal/adapter/metrics"
	"github.com/mstvnetwork/stream-proxy-server/internal/domain"
)

const (
	// DefaultTimeout bounds a single probe when Options.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	// Bytes read from a response body before closing, so the connection can be reused.
	maxDrainBytes = 4 << 10
)

// Options configures a Resolver.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Transport overrides http.DefaultTransport. Tests inject their own.
	Transport http.RoundTripper
}

// Resolver issues a single non-following GET against a channel's base URL.
type Resolver struct {
	client    *http.Client
	userAgent string
	clock     clockwork.Clock
	metrics   *metrics.UpstreamMetrics
}

var _ domain.StreamResolver = (*Resolver)(nil)

func NewResolver(opts Options, clock clockwork.Clock, m *metrics.UpstreamMetrics) *Resolver {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Resolver{
		client: &http.Client{
			Timeout:   timeout,
			Transport: opts.Transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: opts.UserAgent,
		clock:     clock,
		metrics:   m,
	}
}

// Resolve probes ch.BaseURL once. A 301/302 yields the Location header, a 200
// yields the base URL itself. Everything else is an error wrapping one of the
// domain upstream sentinels. The probe is bound to ctx, so a client that
// disconnects aborts it.
func (r *Resolver) Resolve(ctx context.Context, ch domain.Channel) (domain.Resolution, error) {
	start := r.clock.Now()
	res, outcome, err := r.probe(ctx, ch)
	elapsed := r.clock.Since(start)

	if r.metrics != nil {
		r.metrics.Observe(outcome, elapsed)
	}
	slog.DebugContext(ctx, "Upstream probe finished",
		"channel_id", ch.ID,
		"outcome", outcome,
		"duration", elapsed,
	)

	return res, err
}

func (r *Resolver) probe(ctx context.Context, ch domain.Channel) (domain.Resolution, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ch.BaseURL, nil)
	if err != nil {
		return domain.Resolution{}, metrics.OutcomeUnreachable, &UnreachableError{Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	setBrowserHeaders(req.Header, r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return domain.Resolution{}, metrics.OutcomeUnreachable, &UnreachableError{Cause: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound:
		location, ok := redirectLocation(resp)
		if !ok {
			return domain.Resolution{}, metrics.OutcomeNoLocation, domain.ErrNoLocationHeader
		}
		return domain.Redirect(location), metrics.OutcomeRedirect, nil
	case http.StatusOK:
		return domain.DirectServe(ch.BaseURL), metrics.OutcomeDirect, nil
	default:
		return domain.Resolution{}, metrics.OutcomeUnexpectedStatus, &UnexpectedStatusError{StatusCode: resp.StatusCode}
	}
}

// redirectLocation returns the Location header verbatim when it is absolute.
// Relative locations are resolved against the probed URL so the client is not
// sent to a path on the proxy itself.
func redirectLocation(resp *http.Response) (string, bool) {
	raw := resp.Header.Get("Location")
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || resp.Request == nil {
		return raw, true
	}
	return resp.Request.URL.ResolveReference(u).String(), true
}
