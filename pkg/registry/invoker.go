package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zen-systems/wallbounce/pkg/adapter"
	"github.com/zen-systems/wallbounce/pkg/config"
)

var thousand = decimal.NewFromInt(1000)

// AdapterInvoker invokes a provider adapter and turns its output into a Response.
type AdapterInvoker struct {
	adapter           adapter.Adapter
	model             string
	pricing           *config.ModelPricing
	defaultConfidence float64
}

// NewAdapterInvoker binds an adapter to a resolved model. pricing may be nil,
// in which case calls cost zero.
func NewAdapterInvoker(a adapter.Adapter, model string, pricing *config.ModelPricing, defaultConfidence float64) *AdapterInvoker {
	return &AdapterInvoker{
		adapter:           a,
		model:             model,
		pricing:           pricing,
		defaultConfidence: defaultConfidence,
	}
}

// Invoke sends prompt to the adapter.
func (i *AdapterInvoker) Invoke(ctx context.Context, prompt string, _ InvokeOptions) (*Response, error) {
	if i.adapter == nil {
		return nil, fmt.Errorf("no adapter bound")
	}
	resp, err := i.adapter.Generate(ctx, i.model, prompt)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Artifact == nil {
		return nil, fmt.Errorf("%s returned no output", i.adapter.Name())
	}
	content := resp.Artifact.Content
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%s returned empty content", i.adapter.Name())
	}

	var usage adapter.Usage
	if resp.Usage != nil {
		usage = resp.Usage.Normalized()
	}
	confidence, reasoning := ExtractConfidence(content, i.defaultConfidence)

	return &Response{
		Content:    content,
		Confidence: confidence,
		Reasoning:  reasoning,
		Cost:       EstimateCost(i.pricing, usage),
		Tokens:     Tokens{Input: usage.PromptTokens, Output: usage.CompletionTokens},
	}, nil
}

// EstimateCost prices usage at per-1K token rates.
func EstimateCost(pricing *config.ModelPricing, usage adapter.Usage) decimal.Decimal {
	if pricing == nil {
		return decimal.Zero
	}
	prompt := decimal.NewFromFloat(pricing.PromptPer1K).Mul(decimal.NewFromInt(int64(usage.PromptTokens)))
	completion := decimal.NewFromFloat(pricing.CompletionPer1K).Mul(decimal.NewFromInt(int64(usage.CompletionTokens)))
	return prompt.Add(completion).Div(thousand)
}
