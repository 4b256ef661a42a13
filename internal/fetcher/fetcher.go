// Package fetcher issues GET requests with injected headers, a fixed timeout,
// a bounded retry loop and an optional per-fetch pause.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jgivc/saidl/internal/common"
	"github.com/jgivc/saidl/internal/entity"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout      = 30 * time.Second
	dialTimeout         = 10 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
	idleConnTimeout     = 90 * time.Second
	maxIdleConnsPerHost = 16
)

// RetryPolicy is attached to every fetch of a run.
type RetryPolicy struct {
	MaxRetries *int          // Additional attempts after the first one, nil disables retry
	Backoff    time.Duration // Constant wait between attempts
	Delay      time.Duration // Pause after the retry loop, success or not
}

func (p RetryPolicy) attempts() int {
	if p.MaxRetries == nil || *p.MaxRetries < 0 {
		return 1
	}

	return *p.MaxRetries + 1
}

type Options struct {
	Headers   http.Header
	HTTP2     bool
	Timeout   time.Duration
	RateLimit float64 // Requests per second across all fetches, 0 means unlimited
	Policy    RetryPolicy
}

type Fetcher struct {
	client  *http.Client
	headers http.Header
	policy  RetryPolicy
	limiter *rate.Limiter
	log     *slog.Logger
}

func New(opts Options, log *slog.Logger) (*Fetcher, error) {
	transport, err := newTransport(opts.HTTP2)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return NewWithClient(&http.Client{Transport: transport, Timeout: timeout}, opts, log), nil
}

func NewWithClient(client *http.Client, opts Options, log *slog.Logger) *Fetcher {
	f := &Fetcher{
		client:  client,
		headers: opts.Headers,
		policy:  opts.Policy,
		log:     log.With(slog.String("item", "Fetcher")),
	}

	if opts.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return f
}

func newTransport(h2 bool) (*http.Transport, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if !h2 {
		// A non-nil empty map keeps the transport on HTTP/1.1.
		transport.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)

		return transport, nil
	}

	if _, err := http2.ConfigureTransports(transport); err != nil {
		return nil, fmt.Errorf("cannot enable http2: %w", err)
	}

	return transport, nil
}

// Fetch runs the retry loop for one target. The last observed error is returned
// once the budget is exhausted.
func (f *Fetcher) Fetch(ctx context.Context, target entity.FetchTarget) (*entity.FetchResult, error) {
	log := f.log.With(slog.String("url", target.URL), slog.Int("index", target.Index))
	log.Info("Fetch")

	var (
		res      *entity.FetchResult
		err      error
		attempts = f.policy.attempts()
	)

	for attempt := 1; ; attempt++ {
		res, err = f.do(ctx, target.URL)
		if err == nil {
			break
		}

		if !common.IsRetryable(err) {
			log.Warn("Fetch failed, not retryable", slog.Int("attempt", attempt), slog.Any("error", err))

			break
		}

		left := attempts - attempt
		log.Warn("Fetch failed", slog.Int("attempt", attempt), slog.Int("retries_left", left), slog.Any("error", err))

		if left <= 0 || ctx.Err() != nil {
			break
		}

		if sleepErr := sleep(ctx, f.policy.Backoff); sleepErr != nil {
			break
		}
	}

	if delayErr := sleep(ctx, f.policy.Delay); delayErr != nil && err == nil {
		return nil, delayErr
	}

	if err != nil {
		return nil, err
	}

	return res, nil
}

func (f *Fetcher) do(ctx context.Context, url string) (*entity.FetchResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot build request for %s: %w", url, err)
	}

	if f.headers != nil {
		req.Header = f.headers.Clone()
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &common.TransportError{URL: url, Reason: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, resp.Body)

		return nil, &common.HTTPStatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.TransportError{URL: url, Reason: err}
	}

	return &entity.FetchResult{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Header:      resp.Header,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
