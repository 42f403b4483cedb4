// Package httpclient provides the outbound HTTP transport shared by the
// payments, notifications and catalog adapters: a client with full-jitter
// exponential backoff retry, grounded on the bounded-exponential-backoff
// shape used across the outbox workers in the retrieval pack and
// generalized here to HTTP with the exact jitter envelope spec.md demands.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config controls retry behaviour. Zero-value fields fall back to
// spec.md's defaults.
type Config struct {
	MaxRetries int           // total attempts; default 5
	BaseDelay  time.Duration // default 1s
	MaxDelay   time.Duration // default 30s
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	// RequestsPerSecond throttles outbound calls against a single
	// collaborator, independent of the retry loop. Zero disables throttling
	// (the default for every adapter this client currently serves).
	RequestsPerSecond float64
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	return c
}

// RetryingClient wraps *http.Client with full-jitter exponential backoff
// and an optional per-collaborator rate limit.
type RetryingClient struct {
	httpClient *http.Client
	cfg        Config
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// New builds a RetryingClient with a dial timeout of cfg.ConnectTimeout
// (default 5s), a response-header timeout of cfg.ReadTimeout (default 30s)
// and an overall per-attempt timeout of their sum. No separate write or
// connection-pool timeout is set.
func New(cfg Config, logger zerolog.Logger) *RetryingClient {
	cfg = cfg.withDefaults()

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond))
	}

	return &RetryingClient{
		httpClient: &http.Client{
			Timeout: cfg.ConnectTimeout + cfg.ReadTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: cfg.ConnectTimeout,
				}).DialContext,
				ResponseHeaderTimeout: cfg.ReadTimeout,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		cfg:     cfg,
		limiter: limiter,
		logger:  logger.With().Str("component", "retrying_http_client").Logger(),
	}
}

// retryableStatus reports whether an HTTP status code should be retried.
// 400 is deliberately excluded — spec.md's open question on retrying 400
// is resolved as "not retryable".
func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusInternalServerError,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func retryableError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.DeadlineExceeded)
}

// fullJitterDelay samples uniformly from [0, min(maxDelay, base*2^attempt)]
// (P6).
func fullJitterDelay(base, maxDelay time.Duration, attempt int) time.Duration {
	ceiling := float64(base) * math.Pow(2, float64(attempt))
	if capped := float64(maxDelay); ceiling > capped {
		ceiling = capped
	}
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(ceiling) + 1))
}

// Do executes req with retry. The request body, if any, must be
// re-readable across attempts — callers pass bodyBytes explicitly instead
// of relying on req.Body so each attempt gets a fresh reader.
func (c *RetryingClient) Do(ctx context.Context, method, url string, bodyBytes []byte, headers map[string]string) (*http.Response, []byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := fullJitterDelay(c.cfg.BaseDelay, c.cfg.MaxDelay, attempt-1)
			c.logger.Debug().Int("attempt", attempt).Dur("delay", delay).Msg("retrying request")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, nil, fmt.Errorf("rate limiter: %w", err)
			}
		}

		var body io.Reader
		if bodyBytes != nil {
			body = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, nil, fmt.Errorf("build request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if retryableError(err) {
				continue
			}
			return nil, nil, fmt.Errorf("non-retryable transport error: %w", err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if retryableStatus(resp.StatusCode) {
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
			continue
		}

		return resp, respBody, nil
	}

	return nil, nil, fmt.Errorf("retries exhausted: %w", lastErr)
}
