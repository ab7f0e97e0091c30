package adapter

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zen-systems/wallbounce/pkg/artifact"
)

// MockAdapter returns deterministic responses for local runs and tests.
type MockAdapter struct {
	name            string
	responses       map[string]string
	defaultResponse string
	Usage           *Usage
	Err             error
	Delay           time.Duration

	calls atomic.Int64
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		name:            "mock",
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewNamedMockAdapter creates a mock adapter reporting the given name.
func NewNamedMockAdapter(name string) *MockAdapter {
	m := NewMockAdapter()
	if name != "" {
		m.name = name
	}
	return m
}

// NewMockAdapterWithResponses creates a mock adapter with predefined responses.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	m := NewMockAdapter()
	if defaultResponse != "" {
		m.defaultResponse = defaultResponse
	}
	if responses != nil {
		m.responses = responses
	}
	return m
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return a.name
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Calls reports how many times Generate ran.
func (a *MockAdapter) Calls() int {
	return int(a.calls.Load())
}

// Generate returns a deterministic response for the prompt.
func (a *MockAdapter) Generate(ctx context.Context, model string, prompt string) (*Response, error) {
	a.calls.Add(1)
	if model == "" {
		model = "mock-1"
	}
	if a.Delay > 0 {
		timer := time.NewTimer(a.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if a.Err != nil {
		return nil, &AdapterError{Adapter: a.name, Err: a.Err}
	}

	content, ok := a.responses[prompt]
	if !ok {
		content = fmt.Sprintf("%s\n%s", a.defaultResponse, prompt)
	}
	usage := Usage{PromptTokens: len(prompt) / 4, CompletionTokens: len(content) / 4}
	if a.Usage != nil {
		usage = *a.Usage
	}
	usage = usage.Normalized()

	return &Response{Artifact: artifact.New(content, a.name, model, prompt), Usage: &usage}, nil
}
