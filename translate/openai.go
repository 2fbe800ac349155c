package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// SystemPrompt is the instruction sent with every chat translation request.
// {{targetLang}} is replaced with the target language name.
const SystemPrompt = `You are a professional translator specializing in software and product localization. You are translating UI strings for a software application.

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for NATURALNESS and FLUENCY in {{targetLang}}, not word-for-word
- Use established IT terminology in {{targetLang}}
- Keep brand names and proper nouns unchanged

TECHNICAL REQUIREMENTS:
- Preserve every marker of the form {0}, {1}, {2} exactly as-is; they may move within the sentence.
- Preserve leading/trailing whitespace, newlines, and punctuation patterns.
- Return ONLY the translated text, no explanations, quotes or markdown code blocks.`

var markdownCodeBlock = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// OpenAI translates through an OpenAI-compatible chat/completions endpoint.
type OpenAI struct {
	opts   Options
	caller *httpCaller
}

// NewOpenAI returns a chat-completions provider. BaseURL and Model are required.
func NewOpenAI(opts Options) (*OpenAI, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("openai provider requires a base URL")
	}
	if opts.Model == "" {
		return nil, errors.New("openai provider requires a model")
	}
	return &OpenAI{opts: opts, caller: newHTTPCaller("OpenAI", opts)}, nil
}

// IsLocaleSupported reports whether locale is a well-formed, known language.
// Chat models accept any language, so no request is made.
func (o *OpenAI) IsLocaleSupported(_ context.Context, locale string) (bool, error) {
	_, err := ParseLocale(locale)
	return err == nil, nil
}

// Translate translates text into locale.
func (o *OpenAI) Translate(ctx context.Context, text, locale string) (string, error) {
	tag, err := ParseLocale(locale)
	if err != nil {
		return "", fmt.Errorf("%w %s", ErrInvalidLocale, locale)
	}

	systemPrompt := strings.ReplaceAll(SystemPrompt, "{{targetLang}}", LanguageName(tag))
	body, err := buildOpenAIChatRequest(o.opts.Model, systemPrompt, text, 0.3)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	headers := map[string]string{}
	if o.opts.APIKey != "" {
		headers["Authorization"] = "Bearer " + o.opts.APIKey
	}

	respBody, err := o.caller.post(ctx, chatEndpoint(o.opts.BaseURL), headers, body)
	if err != nil {
		return "", err
	}

	content, err := extractChatContent(respBody)
	if err != nil {
		return "", err
	}
	return cleanChatContent(content), nil
}

// LanguageName returns "English name (native name)" for tag, e.g. "French (français)".
func LanguageName(tag language.Tag) string {
	en := display.English.Tags().Name(tag)
	self := display.Self.Name(tag)
	switch {
	case en == "":
		return tag.String()
	case self == "" || self == en:
		return en
	default:
		return en + " (" + self + ")"
	}
}

func chatEndpoint(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

// extractChatContent returns choices[0].message.content.
func extractChatContent(body []byte) (string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
	}
	return resp.Choices[0].Message.Content, nil
}

// cleanChatContent strips a wrapping markdown code block, if the model added one.
func cleanChatContent(s string) string {
	s = strings.TrimSpace(s)
	if m := markdownCodeBlock.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
