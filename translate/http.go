package translate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/minios-linux/treesync/telemetry"
)

// APIError is a non-2xx response from a translation service.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, truncate(e.Body, 500))
}

// ---------------------------------------------------------------------------
// Rate limit state (global pause for parallel workers)
// ---------------------------------------------------------------------------

type rateLimitState struct {
	mu       sync.Mutex
	paused   int32 // atomic: 1 = paused
	pauseEnd time.Time
}

func (r *rateLimitState) isPaused() bool {
	return atomic.LoadInt32(&r.paused) == 1
}

func (r *rateLimitState) pause(duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	end := time.Now().Add(duration)
	if end.After(r.pauseEnd) {
		r.pauseEnd = end
	}
	atomic.StoreInt32(&r.paused, 1)
}

// waitIfPaused blocks until the rate limit pause is over.
func (r *rateLimitState) waitIfPaused(ctx context.Context) error {
	for r.isPaused() {
		r.mu.Lock()
		remaining := time.Until(r.pauseEnd)
		r.mu.Unlock()
		if remaining <= 0 {
			atomic.StoreInt32(&r.paused, 0)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(min(remaining, 100*time.Millisecond)):
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// HTTP client with retries
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Support both --proxy and HTTP_PROXY/HTTPS_PROXY env vars
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// httpCaller sends JSON requests with retry, backoff and shared 429 pausing.
type httpCaller struct {
	name   string
	client *http.Client
	rl     *rateLimitState
	opts   Options
}

func newHTTPCaller(name string, opts Options) *httpCaller {
	return &httpCaller{
		name:   name,
		client: makeHTTPClient(opts.Proxy, opts.effectiveTimeout()),
		rl:     &rateLimitState{},
		opts:   opts,
	}
}

func (c *httpCaller) backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * c.opts.effectiveBackoff()
}

// post sends body to endpoint and returns the response body of a 2xx reply.
// Non-2xx replies that are not retried come back as *APIError.
func (c *httpCaller) post(ctx context.Context, endpoint string, headers map[string]string, body []byte) ([]byte, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "translate.request")
	defer span.End()
	span.SetAttributes(attribute.String("translate.provider", c.name))

	maxRetries := c.opts.effectiveMaxRetries()
	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Wait if globally paused (rate limit from another worker)
		if err := c.rl.waitIfPaused(ctx); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		c.opts.log("%s attempt %d: POST %s", c.name, attempt+1, redactKey(endpoint))

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt < maxRetries && ctx.Err() == nil {
				if err := sleep(ctx, c.backoff(attempt)); err != nil {
					return nil, err
				}
				continue
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "request failed")
			return nil, fmt.Errorf("API request failed: %w", err)
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := retryAfter(resp.Header.Get("Retry-After"), c.backoff(attempt))
			c.opts.log("%s rate limited, waiting %v before retry (attempt %d/%d)", c.name, delay, attempt+1, maxRetries)
			// Globally pause all workers
			c.rl.pause(delay)
			if attempt < maxRetries {
				continue
			}
			return nil, fmt.Errorf("rate limited after %d retries: %w", maxRetries, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)})
		}

		if resp.StatusCode >= 500 && attempt < maxRetries {
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
			span.SetStatus(codes.Error, apiErr.Error())
			return nil, apiErr
		}

		return respBody, nil
	}

	return nil, fmt.Errorf("exhausted all %d retries", maxRetries)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(header string, fallback time.Duration) time.Duration {
	if header == "" {
		return fallback
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// redactKey hides the key query parameter in a URL for logging.
func redactKey(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "****")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// truncate truncates a string to maxLen bytes.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
