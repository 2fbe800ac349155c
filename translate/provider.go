// Package translate implements the translation providers used to fill in
// locale tree leaves: Google Cloud Translation (v2 REST, API key) and any
// OpenAI-compatible chat/completions endpoint (OpenAI, Groq, Ollama, custom).
//
// Providers translate one string at a time. Callers are expected to shield
// placeholders before calling Translate (see package placeholder).
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/text/language"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

// Providers lists the accepted provider IDs.
var Providers = []string{ProviderGoogle, ProviderOpenAI}

// ErrInvalidLocale is returned by Translate when the service rejects the
// target locale code.
var ErrInvalidLocale = errors.New("invalid locale")

// Provider is a translation service.
type Provider interface {
	// IsLocaleSupported reports whether locale can be used as a target.
	// An unsupported locale is (false, nil); transport and auth problems
	// are returned as errors.
	IsLocaleSupported(ctx context.Context, locale string) (bool, error)
	// Translate translates text into locale.
	Translate(ctx context.Context, text, locale string) (string, error)
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Options configures a provider.
type Options struct {
	// Provider is the provider ID (google, openai). Empty means google.
	Provider string
	// APIKey is the credential for the service.
	APIKey string
	// BaseURL overrides the service endpoint.
	BaseURL string
	// Model is the model identifier (openai only).
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// MaxRetries is the maximum number of retries on 429, 5xx and network
	// errors. Zero means the default of 3; a negative value disables retries.
	MaxRetries int
	// RetryBackoff is the base of the exponential backoff. Default: 1s.
	RetryBackoff time.Duration
	// OnLog emits debug messages about requests and retries.
	OnLog func(format string, args ...any)
}

func (o *Options) effectiveTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return 60 * time.Second
}

func (o *Options) effectiveMaxRetries() int {
	switch {
	case o.MaxRetries < 0:
		return 0
	case o.MaxRetries == 0:
		return 3
	}
	return o.MaxRetries
}

func (o *Options) effectiveBackoff() time.Duration {
	if o.RetryBackoff > 0 {
		return o.RetryBackoff
	}
	return time.Second
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

// New returns the provider selected by opts.Provider.
func New(opts Options) (Provider, error) {
	switch strings.ToLower(opts.Provider) {
	case "", ProviderGoogle:
		return NewGoogle(opts), nil
	case ProviderOpenAI:
		return NewOpenAI(opts)
	default:
		return nil, fmt.Errorf("unknown provider %q (want one of: %s)", opts.Provider, strings.Join(Providers, ", "))
	}
}

// ---------------------------------------------------------------------------
// Locale helpers
// ---------------------------------------------------------------------------

// ParseLocale parses a locale code such as "fr", "pt-BR" or "pt_BR".
func ParseLocale(locale string) (language.Tag, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und, err
	}
	if tag == language.Und {
		return language.Und, fmt.Errorf("locale %q has no language", locale)
	}
	return tag, nil
}

// apiLocale converts file-style locale codes (pt_BR) into BCP 47 (pt-BR).
func apiLocale(locale string) string {
	return strings.ReplaceAll(locale, "_", "-")
}

// ---------------------------------------------------------------------------
// Concurrency limit
// ---------------------------------------------------------------------------

type limited struct {
	p   Provider
	sem *semaphore.Weighted
}

// Limit wraps p so that at most n calls are in flight at any time, across
// all goroutines sharing the returned provider.
func Limit(p Provider, n int) Provider {
	if n <= 0 {
		n = 1
	}
	return &limited{p: p, sem: semaphore.NewWeighted(int64(n))}
}

func (l *limited) IsLocaleSupported(ctx context.Context, locale string) (bool, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer l.sem.Release(1)
	return l.p.IsLocaleSupported(ctx, locale)
}

func (l *limited) Translate(ctx context.Context, text, locale string) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer l.sem.Release(1)
	return l.p.Translate(ctx, text, locale)
}
