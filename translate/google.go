package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GoogleBaseURL is the Cloud Translation API endpoint.
const GoogleBaseURL = "https://translation.googleapis.com"

// googleInvalidValue is the message the API returns for an unknown target.
const googleInvalidValue = "Invalid Value"

// probeText is translated to check whether a target locale is accepted.
const probeText = "test"

// Google translates through Cloud Translation v2 (Basic) using an API key.
type Google struct {
	opts   Options
	caller *httpCaller
}

// NewGoogle returns a Google Cloud Translation provider.
func NewGoogle(opts Options) *Google {
	if opts.BaseURL == "" {
		opts.BaseURL = GoogleBaseURL
	}
	return &Google{opts: opts, caller: newHTTPCaller("Google Translate", opts)}
}

type googleRequest struct {
	Q      []string `json:"q"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

type googleError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// IsLocaleSupported translates a probe string into locale. A locale code that
// does not parse, or that the API rejects as an invalid value, is unsupported.
func (g *Google) IsLocaleSupported(ctx context.Context, locale string) (bool, error) {
	if _, err := ParseLocale(locale); err != nil {
		return false, nil
	}
	if _, err := g.Translate(ctx, probeText, locale); err != nil {
		if errors.Is(err, ErrInvalidLocale) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Translate translates text into locale.
func (g *Google) Translate(ctx context.Context, text, locale string) (string, error) {
	body, err := json.Marshal(googleRequest{
		Q:      []string{text},
		Target: apiLocale(locale),
		Format: "text",
	})
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	endpoint := strings.TrimRight(g.opts.BaseURL, "/") + "/language/translate/v2?key=" + url.QueryEscape(g.opts.APIKey)

	respBody, err := g.caller.post(ctx, endpoint, nil, body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return "", g.classify(apiErr, locale)
		}
		return "", err
	}

	var resp googleResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}
	if len(resp.Data.Translations) == 0 {
		return "", fmt.Errorf("response contained no translations: %s", truncate(string(respBody), 500))
	}
	return resp.Data.Translations[0].TranslatedText, nil
}

// classify extracts the API message and maps "Invalid Value" on a 400 to
// ErrInvalidLocale.
func (g *Google) classify(apiErr *APIError, locale string) error {
	var ge googleError
	if err := json.Unmarshal([]byte(apiErr.Body), &ge); err == nil && ge.Error.Message != "" {
		apiErr.Message = ge.Error.Message
	}
	if apiErr.StatusCode == http.StatusBadRequest && apiErr.Message == googleInvalidValue {
		return fmt.Errorf("%w %s", ErrInvalidLocale, locale)
	}
	return apiErr
}
