package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop() Invoker {
	return InvokerFunc(func(context.Context, string, InvokeOptions) (*Response, error) {
		return &Response{Content: "ok"}, nil
	})
}

func testRoster() []Descriptor {
	return []Descriptor{
		{Kind: KindClaudeSonnet, Tier: TierStandard, Invoker: noop()},
		{Kind: KindGPTCodex, Tier: TierStandard, Invoker: noop()},
		{Kind: KindGeminiPro, Tier: TierStandard, Invoker: noop()},
		{Kind: KindClaudeOpus, Tier: TierPremium, SynthesisOnly: true, Invoker: noop()},
		{Kind: KindClaudeHaiku, Tier: TierLightweight, Invoker: noop()},
		{Kind: KindGeminiFlash, Tier: TierLightweight, Invoker: noop()},
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	parsed, err := ParseKind("  Claude-Sonnet ")
	require.NoError(t, err)
	assert.Equal(t, KindClaudeSonnet, parsed)

	_, err = ParseKind("gpt-9")
	assert.Error(t, err)
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Descriptor{
		{Kind: KindGPTCodex, Invoker: noop()},
		{Kind: KindGPTCodex, Invoker: noop()},
	})
	assert.Error(t, err)

	_, err = New([]Descriptor{{Kind: KindGPTCodex}})
	assert.Error(t, err, "missing invoker")

	_, err = New([]Descriptor{{Kind: KindGPTCodex, Invoker: noop()}}, WithReserve(KindDeepSeekChat))
	assert.Error(t, err, "unregistered reserve")
}

func TestSelectOrder(t *testing.T) {
	reg, err := New(testRoster())
	require.NoError(t, err)

	tests := []struct {
		taskType TaskType
		want     []Kind
	}{
		{TaskBasic, []Kind{KindClaudeSonnet, KindGPTCodex}},
		{TaskPremium, []Kind{KindClaudeSonnet, KindGPTCodex, KindGeminiPro}},
		{TaskCritical, []Kind{KindClaudeSonnet, KindGPTCodex, KindGeminiPro}},
		{TaskSimple, []Kind{KindClaudeHaiku, KindGeminiFlash}},
		{TaskType("other"), []Kind{KindClaudeSonnet, KindGPTCodex}},
	}
	for _, tt := range tests {
		t.Run(string(tt.taskType), func(t *testing.T) {
			assert.Equal(t, tt.want, reg.SelectOrder(tt.taskType))
		})
	}
}

func TestSelectOrderPadsToQuorum(t *testing.T) {
	reg, err := New([]Descriptor{
		{Kind: KindClaudeSonnet, Tier: TierStandard, Invoker: noop()},
		{Kind: KindClaudeHaiku, Tier: TierLightweight, Invoker: noop()},
		{Kind: KindGPTCodex, Tier: TierStandard, Invoker: noop()},
	})
	require.NoError(t, err)

	assert.Equal(t, []Kind{KindClaudeHaiku, KindClaudeSonnet}, reg.SelectOrder(TaskSimple))

	reg, err = New([]Descriptor{
		{Kind: KindClaudeSonnet, Tier: TierStandard, Invoker: noop()},
		{Kind: KindClaudeHaiku, Tier: TierLightweight, Invoker: noop()},
	})
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindClaudeSonnet, KindClaudeHaiku}, reg.SelectOrder(TaskBasic))
}

func TestSelectOrderNeverPicksSynthesisOnly(t *testing.T) {
	reg, err := New(testRoster())
	require.NoError(t, err)
	for _, tt := range []TaskType{TaskBasic, TaskPremium, TaskCritical, TaskSimple} {
		assert.NotContains(t, reg.SelectOrder(tt), KindClaudeOpus)
	}
	assert.NotContains(t, reg.Voters(), KindClaudeOpus)
	_, ok := reg.Get(KindClaudeOpus)
	assert.True(t, ok)
}

func TestDescriptorName(t *testing.T) {
	d := Descriptor{Kind: KindGeminiPro}
	assert.Equal(t, "gemini-pro", d.Name())
	d.DisplayName = "Gemini Pro"
	assert.Equal(t, "Gemini Pro", d.Name())
	assert.Equal(t, "gemini-pro", d.Key())
}
