package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mstvnetwork/stream-proxy-server/internal/adapter/metrics"
	"github.com/mstvnetwork/stream-proxy-server/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenizedURL = "https://cdn.example.com/live/11/master.m3u8?hdnts=exp=1749309351~acl=!*/live/11/*~hmac=fd9b85"

func newTestResolver(t *testing.T, opts Options) (*Resolver, *metrics.UpstreamMetrics) {
	t.Helper()
	m := metrics.NewUpstreamMetrics(prometheus.NewRegistry())
	return NewResolver(opts, clockwork.NewFakeClock(), m), m
}

func channelFor(url string) domain.Channel {
	return domain.Channel{ID: "dd-national", Name: "DD NATIONAL", BaseURL: url}
}

func TestResolve_FoundWithLocation(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, tokenizedURL, http.StatusFound)
	}))
	defer upstream.Close()

	r, m := newTestResolver(t, Options{})
	res, err := r.Resolve(context.Background(), channelFor(upstream.URL+"/live/11/master.m3u8"))

	require.NoError(t, err)
	assert.Equal(t, domain.ResolutionRedirect, res.Kind)
	assert.Equal(t, tokenizedURL, res.Location)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ProbesTotal.WithLabelValues(metrics.OutcomeRedirect)), 0)
}

func TestResolve_MovedPermanently(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", tokenizedURL)
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer upstream.Close()

	r, _ := newTestResolver(t, Options{})
	res, err := r.Resolve(context.Background(), channelFor(upstream.URL))

	require.NoError(t, err)
	assert.Equal(t, domain.Redirect(tokenizedURL), res)
}

func TestResolve_RelativeLocationIsAbsolutized(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/token/abc/master.m3u8")
		w.WriteHeader(http.StatusFound)
	}))
	defer upstream.Close()

	r, _ := newTestResolver(t, Options{})
	res, err := r.Resolve(context.Background(), channelFor(upstream.URL+"/live/master.m3u8"))

	require.NoError(t, err)
	assert.Equal(t, upstream.URL+"/token/abc/master.m3u8", res.Location)
}

func TestResolve_DoesNotFollowRedirects(t *testing.T) {
	var targetHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/base.m3u8", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/tokenized.m3u8", http.StatusFound)
	})
	mux.HandleFunc("/tokenized.m3u8", func(w http.ResponseWriter, r *http.Request) {
		targetHits.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	r, _ := newTestResolver(t, Options{})
	res, err := r.Resolve(context.Background(), channelFor(upstream.URL+"/base.m3u8"))

	require.NoError(t, err)
	assert.Equal(t, upstream.URL+"/tokenized.m3u8", res.Location)
	assert.Zero(t, targetHits.Load())
}

func TestResolve_OKServesBaseURL(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		_, _ = w.Write([]byte("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=800000\nlow.m3u8\n"))
	}))
	defer upstream.Close()

	base := upstream.URL + "/live/11/master.m3u8"
	r, m := newTestResolver(t, Options{})
	res, err := r.Resolve(context.Background(), channelFor(base))

	require.NoError(t, err)
	assert.Equal(t, domain.DirectServe(base), res)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ProbesTotal.WithLabelValues(metrics.OutcomeDirect)), 0)
}

func TestResolve_RedirectWithoutLocation(t *testing.T) {
	for _, status := range []int{http.StatusMovedPermanently, http.StatusFound} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer upstream.Close()

			r, m := newTestResolver(t, Options{})
			res, err := r.Resolve(context.Background(), channelFor(upstream.URL))

			require.ErrorIs(t, err, domain.ErrNoLocationHeader)
			assert.Equal(t, domain.Resolution{}, res)
			assert.InDelta(t, 1, testutil.ToFloat64(m.ProbesTotal.WithLabelValues(metrics.OutcomeNoLocation)), 0)
		})
	}
}

func TestResolve_UnexpectedStatus(t *testing.T) {
	statuses := []int{
		http.StatusNoContent,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusInternalServerError,
	}

	for _, status := range statuses {
		t.Run(http.StatusText(status), func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Location", tokenizedURL)
				w.WriteHeader(status)
			}))
			defer upstream.Close()

			r, _ := newTestResolver(t, Options{})
			_, err := r.Resolve(context.Background(), channelFor(upstream.URL))

			require.ErrorIs(t, err, domain.ErrUnexpectedStatus)
			var statusErr *UnexpectedStatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, status, statusErr.StatusCode)
		})
	}
}

func TestResolve_ConnectionRefused(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	r, m := newTestResolver(t, Options{})
	_, err := r.Resolve(context.Background(), channelFor(url))

	require.ErrorIs(t, err, domain.ErrUpstreamUnreachable)
	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Error(t, unreachable.Cause)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ProbesTotal.WithLabelValues(metrics.OutcomeUnreachable)), 0)
}

func TestResolve_UntrustedTLS(t *testing.T) {
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	r, _ := newTestResolver(t, Options{})
	_, err := r.Resolve(context.Background(), channelFor(upstream.URL))

	assert.ErrorIs(t, err, domain.ErrUpstreamUnreachable)
}

func TestResolve_Timeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer upstream.Close()

	r, _ := newTestResolver(t, Options{Timeout: 50 * time.Millisecond})
	_, err := r.Resolve(context.Background(), channelFor(upstream.URL))

	assert.ErrorIs(t, err, domain.ErrUpstreamUnreachable)
}

func TestResolve_CancelledContextAbortsProbe(t *testing.T) {
	started := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer upstream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	r, _ := newTestResolver(t, Options{Timeout: 5 * time.Second})
	_, err := r.Resolve(ctx, channelFor(upstream.URL))

	require.ErrorIs(t, err, domain.ErrUpstreamUnreachable)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestResolve_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	r, _ := newTestResolver(t, Options{})
	_, err := r.Resolve(context.Background(), channelFor(upstream.URL))
	require.NoError(t, err)

	assert.Equal(t, DefaultUserAgent, got.Get("User-Agent"))
	assert.Equal(t, "https://www.google.com/", got.Get("Referer"))
	assert.Equal(t, "en-US,en;q=0.9", got.Get("Accept-Language"))
	assert.Contains(t, got.Get("Accept"), "text/html")
	assert.Equal(t, "document", got.Get("Sec-Fetch-Dest"))
	assert.Equal(t, "navigate", got.Get("Sec-Fetch-Mode"))
	assert.Equal(t, "none", got.Get("Sec-Fetch-Site"))
	assert.Equal(t, "?1", got.Get("Sec-Fetch-User"))
	assert.Equal(t, "1", got.Get("Upgrade-Insecure-Requests"))
}

func TestResolve_CustomUserAgent(t *testing.T) {
	var ua string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.UserAgent()
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	r, _ := newTestResolver(t, Options{UserAgent: "VLC/3.0.20 LibVLC/3.0.20"})
	_, err := r.Resolve(context.Background(), channelFor(upstream.URL))

	require.NoError(t, err)
	assert.Equal(t, "VLC/3.0.20 LibVLC/3.0.20", ua)
}

func TestResolve_ExactlyOneProbePerCall(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	r, _ := newTestResolver(t, Options{})
	_, err := r.Resolve(context.Background(), channelFor(upstream.URL))

	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestResolve_NilMetrics(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	r := NewResolver(Options{}, clockwork.NewRealClock(), nil)
	_, err := r.Resolve(context.Background(), channelFor(upstream.URL))

	assert.NoError(t, err)
}

func TestNewResolver_DefaultTimeout(t *testing.T) {
	r := NewResolver(Options{}, clockwork.NewRealClock(), nil)
	assert.Equal(t, DefaultTimeout, r.client.Timeout)

	r = NewResolver(Options{Timeout: 3 * time.Second}, clockwork.NewRealClock(), nil)
	assert.Equal(t, 3*time.Second, r.client.Timeout)
}
