package wallbounce

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/wallbounce/pkg/config"
	"github.com/zen-systems/wallbounce/pkg/registry"
	"github.com/zen-systems/wallbounce/pkg/router"
)

type fakeBackend struct {
	content    string
	confidence float64
	cost       decimal.Decimal
	err        error
	delay      time.Duration

	mu      sync.Mutex
	prompts []string
	steps   []int
}

func healthy(content string) *fakeBackend {
	return &fakeBackend{content: content, confidence: 0.8, cost: decimal.RequireFromString("0.001")}
}

func failing(msg string) *fakeBackend {
	return &fakeBackend{err: errString(msg)}
}

type errString string

func (e errString) Error() string { return string(e) }

func (f *fakeBackend) Invoke(_ context.Context, prompt string, opts registry.InvokeOptions) (*registry.Response, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.steps = append(f.steps, opts.Step)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &registry.Response{
		Content:    f.content,
		Confidence: f.confidence,
		Reasoning:  "fake",
		Cost:       f.cost,
		Tokens:     registry.Tokens{Input: len(prompt), Output: len(f.content)},
	}, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeBackend) prompt(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompts[i]
}

type backendDef struct {
	kind          registry.Kind
	tier          registry.Tier
	synthesisOnly bool
	backend       *fakeBackend
}

func descriptors(defs ...backendDef) []registry.Descriptor {
	out := make([]registry.Descriptor, 0, len(defs))
	for _, s := range defs {
		out = append(out, registry.Descriptor{
			Kind:          s.kind,
			DisplayName:   s.kind.String(),
			Model:         "fake-" + s.kind.String(),
			Tier:          s.tier,
			SynthesisOnly: s.synthesisOnly,
			Invoker:       s.backend,
		})
	}
	return out
}

func synthDef(b *fakeBackend) backendDef {
	return backendDef{kind: registry.KindClaudeOpus, tier: registry.TierPremium, synthesisOnly: true, backend: b}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(t *testing.T, defs []backendDef, reserve []registry.Kind, opts ...Option) *Orchestrator {
	t.Helper()
	reg, err := registry.New(descriptors(defs...), registry.WithReserve(reserve...))
	require.NoError(t, err)

	classifier, err := router.NewClassifier(config.DefaultWallBounceConfig().Classifier)
	require.NoError(t, err)
	selector, err := router.NewSynthesizerSelector(config.SynthesisConfig{
		Default:   "claude-opus",
		Complex:   "claude-opus",
		Overrides: map[string]string{"critical": "claude-opus"},
	})
	require.NoError(t, err)

	return New(reg, classifier, selector, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
