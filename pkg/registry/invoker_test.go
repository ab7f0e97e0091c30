package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/wallbounce/pkg/adapter"
	"github.com/zen-systems/wallbounce/pkg/config"
)

func TestExtractConfidence(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantConf      float64
		wantReasoning string
	}{
		{name: "json", content: `{"answer":"x","confidence":0.9,"reasoning":"checked"}`, wantConf: 0.9, wantReasoning: "checked"},
		{name: "fenced json", content: "```json\n{\"confidence\": 0.6}\n```", wantConf: 0.6},
		{name: "json percent", content: `{"confidence": 80}`, wantConf: 0.8},
		{name: "json without confidence", content: `{"answer":"x"}`, wantConf: 0.75},
		{name: "text line", content: "Use a queue.\nCONFIDENCE: 0.85\nREASONING: load is bursty", wantConf: 0.85, wantReasoning: "load is bursty"},
		{name: "text percent", content: "Answer\nConfidence: 70%", wantConf: 0.7},
		{name: "markdown bold", content: "**Confidence**: 0.4", wantConf: 0.4},
		{name: "out of range", content: "confidence: 250", wantConf: 0.75},
		{name: "just above one", content: "ans\nCONFIDENCE: 1.5", wantConf: 0.75},
		{name: "exactly one", content: "ans\nCONFIDENCE: 1", wantConf: 1},
		{name: "bare two is percent", content: "ans\nCONFIDENCE: 2", wantConf: 0.02},
		{name: "percent sign below two", content: "ans\nCONFIDENCE: 1.5%", wantConf: 0.015},
		{name: "no marker", content: "just an answer", wantConf: 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, reasoning := ExtractConfidence(tt.content, 0.75)
			assert.InDelta(t, tt.wantConf, conf, 1e-9)
			assert.Equal(t, tt.wantReasoning, reasoning)
		})
	}
}

func TestAdapterInvokerCostsAndConfidence(t *testing.T) {
	mock := adapter.NewMockAdapterWithResponses(map[string]string{
		"q": "answer\nCONFIDENCE: 0.9",
	}, "")
	mock.Usage = &adapter.Usage{PromptTokens: 1000, CompletionTokens: 500}

	inv := NewAdapterInvoker(mock, "mock-1", &config.ModelPricing{PromptPer1K: 0.003, CompletionPer1K: 0.015}, 0.75)
	resp, err := inv.Invoke(context.Background(), "q", InvokeOptions{})
	require.NoError(t, err)

	assert.Equal(t, "answer\nCONFIDENCE: 0.9", resp.Content)
	assert.InDelta(t, 0.9, resp.Confidence, 1e-9)
	assert.Equal(t, Tokens{Input: 1000, Output: 500}, resp.Tokens)
	assert.True(t, decimal.RequireFromString("0.0105").Equal(resp.Cost), "cost %s", resp.Cost)
}

func TestAdapterInvokerErrors(t *testing.T) {
	failing := adapter.NewMockAdapter()
	failing.Err = errors.New("rate limited")
	_, err := NewAdapterInvoker(failing, "", nil, 0.75).Invoke(context.Background(), "q", InvokeOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	empty := adapter.NewMockAdapterWithResponses(map[string]string{"q": "   "}, "")
	_, err = NewAdapterInvoker(empty, "", nil, 0.75).Invoke(context.Background(), "q", InvokeOptions{})
	assert.Error(t, err)
}

func TestEstimateCostWithoutPricing(t *testing.T) {
	assert.True(t, EstimateCost(nil, adapter.Usage{PromptTokens: 10}).IsZero())
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultWallBounceConfig()
	mock := adapter.NewMockAdapter()
	adapters := map[string]adapter.Adapter{
		"anthropic": mock,
		"google":    mock,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg, err := FromConfig(cfg, adapters, config.DefaultAliases(), logger)
	require.NoError(t, err)

	sonnet, ok := reg.Get(KindClaudeSonnet)
	require.True(t, ok)
	assert.Equal(t, "claude-sonnet-4-20250514", sonnet.Model)
	assert.Equal(t, "Claude Sonnet", sonnet.Name())

	_, ok = reg.Get(KindGPTCodex)
	assert.False(t, ok, "openai adapter was not provided")

	assert.Equal(t, []Kind{KindGeminiFlash, KindClaudeHaiku}, reg.Reserve())
	assert.Equal(t, []Kind{KindClaudeSonnet, KindGeminiPro}, reg.SelectOrder(TaskBasic))

	opus, ok := reg.Get(KindClaudeOpus)
	require.True(t, ok)
	assert.True(t, opus.SynthesisOnly)
	assert.Equal(t, TierPremium, opus.Tier)
}

func TestFromConfigCLIBackend(t *testing.T) {
	cfg := &config.WallBounceConfig{Backends: []config.BackendConfig{
		{Kind: "gpt-codex", Adapter: "cli", Command: []string{"codex", "exec"}},
	}}
	adapters := map[string]adapter.Adapter{CLIAdapterKey("gpt-codex"): adapter.NewMockAdapter()}

	reg, err := FromConfig(cfg, adapters, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	cfg.Backends[0].Kind = "gpt-99"
	_, err = FromConfig(cfg, adapters, nil, nil)
	assert.Error(t, err)
}

func TestFromConfigDefaultConfidence(t *testing.T) {
	zero := 0.0
	cfg := &config.WallBounceConfig{Backends: []config.BackendConfig{
		{Kind: "claude-sonnet", Adapter: "mock"},
		{Kind: "gpt-codex", Adapter: "mock", DefaultConfidence: &zero},
	}}
	adapters := map[string]adapter.Adapter{"mock": adapter.NewMockAdapter()}

	reg, err := FromConfig(cfg, adapters, nil, nil)
	require.NoError(t, err)

	sonnet, _ := reg.Get(KindClaudeSonnet)
	resp, err := sonnet.Invoker.Invoke(context.Background(), "no marker here", InvokeOptions{})
	require.NoError(t, err)
	assert.InDelta(t, config.DefaultBackendConfidence, resp.Confidence, 1e-9)

	codex, _ := reg.Get(KindGPTCodex)
	resp, err = codex.Invoker.Invoke(context.Background(), "no marker here", InvokeOptions{})
	require.NoError(t, err)
	assert.Zero(t, resp.Confidence)
}
