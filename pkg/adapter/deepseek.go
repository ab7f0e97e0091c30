package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/zen-systems/wallbounce/pkg/artifact"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekAdapter implements the Adapter interface for DeepSeek models.
// DeepSeek uses an OpenAI-compatible API format.
type DeepSeekAdapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// DeepSeekOption configures a DeepSeekAdapter.
type DeepSeekOption func(*DeepSeekAdapter)

// WithDeepSeekBaseURL points the adapter at a different OpenAI-compatible endpoint.
func WithDeepSeekBaseURL(baseURL string) DeepSeekOption {
	return func(a *DeepSeekAdapter) {
		a.baseURL = baseURL
	}
}

// WithDeepSeekHTTPClient overrides the HTTP client.
func WithDeepSeekHTTPClient(client *http.Client) DeepSeekOption {
	return func(a *DeepSeekAdapter) {
		a.httpClient = client
	}
}

type deepseekRequest struct {
	Model     string            `json:"model"`
	Messages  []deepseekMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens,omitempty"`
}

type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewDeepSeekAdapter creates a new DeepSeek adapter.
func NewDeepSeekAdapter(apiKey string, opts ...DeepSeekOption) (*DeepSeekAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek API key is required")
	}

	a := &DeepSeekAdapter{
		apiKey:     apiKey,
		baseURL:    deepseekBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Name returns the adapter identifier.
func (a *DeepSeekAdapter) Name() string {
	return "deepseek"
}

// Models returns the list of supported DeepSeek models.
func (a *DeepSeekAdapter) Models() []string {
	return []string{
		"deepseek-chat",
		"deepseek-coder",
		"deepseek-reasoner",
	}
}

// Generate sends a prompt to DeepSeek and returns the response.
func (a *DeepSeekAdapter) Generate(ctx context.Context, model string, prompt string) (*Response, error) {
	reqBody := deepseekRequest{
		Model: model,
		Messages: []deepseekMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: 4096,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &AdapterError{Adapter: a.Name(), Temporary: true, Err: fmt.Errorf("deepseek API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return nil, &AdapterError{Adapter: a.Name(), Status: resp.StatusCode, Err: fmt.Errorf("deepseek returned invalid JSON (status %d)", resp.StatusCode)}
	}

	parsed := gjson.ParseBytes(body)
	if apiErr := parsed.Get("error"); apiErr.Exists() {
		return nil, &AdapterError{
			Adapter: a.Name(),
			Status:  resp.StatusCode,
			Err: fmt.Errorf("deepseek API error: %s (type: %s, code: %s)",
				apiErr.Get("message").String(), apiErr.Get("type").String(), apiErr.Get("code").String()),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AdapterError{Adapter: a.Name(), Status: resp.StatusCode, Err: fmt.Errorf("deepseek API returned status %d: %s", resp.StatusCode, string(body))}
	}

	choice := parsed.Get("choices.0.message.content")
	if !choice.Exists() {
		return nil, &AdapterError{Adapter: a.Name(), Err: fmt.Errorf("deepseek returned no choices")}
	}

	usage := Usage{
		PromptTokens:     int(parsed.Get("usage.prompt_tokens").Int()),
		CompletionTokens: int(parsed.Get("usage.completion_tokens").Int()),
		TotalTokens:      int(parsed.Get("usage.total_tokens").Int()),
	}.Normalized()

	return &Response{
		Artifact: artifact.New(choice.String(), a.Name(), model, prompt),
		Usage:    &usage,
	}, nil
}
