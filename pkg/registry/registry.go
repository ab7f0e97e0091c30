package registry

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Tokens counts input and output tokens of one call.
type Tokens struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Response is the result of one backend invocation.
type Response struct {
	Content    string          `json:"content"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning,omitempty"`
	Cost       decimal.Decimal `json:"cost"`
	Tokens     Tokens          `json:"tokens"`
}

// InvokeOptions carries per-call context to an invoker.
type InvokeOptions struct {
	Role     string
	Step     int
	TaskType TaskType
}

// Invoker calls one backend. Calls may run for minutes; implementations
// should honor ctx but the orchestrator never sets a deadline itself.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, opts InvokeOptions) (*Response, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, prompt string, opts InvokeOptions) (*Response, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, prompt string, opts InvokeOptions) (*Response, error) {
	return f(ctx, prompt, opts)
}

// Descriptor describes one registered backend.
type Descriptor struct {
	Kind          Kind
	DisplayName   string
	Model         string
	Capabilities  []string
	Tier          Tier
	SynthesisOnly bool
	Invoker       Invoker
}

// Key is the stable identity used in votes and diagnostics.
func (d Descriptor) Key() string {
	return d.Kind.String()
}

// Name returns the display name, or the key when none is set.
func (d Descriptor) Name() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Key()
}

// Registry holds backend descriptors. It is read-only after New and safe
// for concurrent use.
type Registry struct {
	descriptors []Descriptor
	index       map[Kind]int
	reserve     []Kind
}

// Option configures a Registry.
type Option func(*Registry) error

// WithReserve sets the ordered fallback backends.
func WithReserve(kinds ...Kind) Option {
	return func(r *Registry) error {
		for _, k := range kinds {
			if _, ok := r.index[k]; !ok {
				return fmt.Errorf("reserve backend %s is not registered", k)
			}
		}
		r.reserve = append([]Kind(nil), kinds...)
		return nil
	}
}

// New builds a registry. Order of descriptors is selection order.
func New(descriptors []Descriptor, opts ...Option) (*Registry, error) {
	r := &Registry{index: make(map[Kind]int, len(descriptors))}
	for _, d := range descriptors {
		if _, ok := kindNames[d.Kind]; !ok {
			return nil, fmt.Errorf("descriptor has unknown kind %d", int(d.Kind))
		}
		if _, dup := r.index[d.Kind]; dup {
			return nil, fmt.Errorf("backend %s registered twice", d.Kind)
		}
		if d.Invoker == nil {
			return nil, fmt.Errorf("backend %s has no invoker", d.Kind)
		}
		d.Capabilities = append([]string(nil), d.Capabilities...)
		r.index[d.Kind] = len(r.descriptors)
		r.descriptors = append(r.descriptors, d)
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.descriptors)
}

// Get returns the descriptor for kind.
func (r *Registry) Get(kind Kind) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	idx, ok := r.index[kind]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[idx], true
}

// All returns every descriptor in registration order.
func (r *Registry) All() []Descriptor {
	if r == nil {
		return nil
	}
	return append([]Descriptor(nil), r.descriptors...)
}

// Reserve returns the ordered fallback list.
func (r *Registry) Reserve() []Kind {
	if r == nil {
		return nil
	}
	return append([]Kind(nil), r.reserve...)
}

// Voters returns every backend eligible for primary dispatch.
func (r *Registry) Voters() []Kind {
	return r.filter(func(Descriptor) bool { return true })
}

// SelectOrder returns the ordered primary backends for a task type.
//
//	basic             two standard backends
//	premium, critical every non-lightweight backend
//	simple            lightweight backends, padded with standard ones to reach two
//
// Synthesis-only backends are never selected. Unknown task types select as basic.
func (r *Registry) SelectOrder(taskType TaskType) []Kind {
	switch taskType {
	case TaskPremium, TaskCritical:
		return r.filter(func(d Descriptor) bool { return d.Tier != TierLightweight })
	case TaskSimple:
		return r.pad(r.filter(func(d Descriptor) bool { return d.Tier == TierLightweight }), 2, TierStandard)
	default:
		standard := r.filter(func(d Descriptor) bool { return d.Tier == TierStandard })
		if len(standard) > 2 {
			standard = standard[:2]
		}
		return r.pad(r.pad(standard, 2, TierPremium), 2, TierLightweight)
	}
}

func (r *Registry) filter(keep func(Descriptor) bool) []Kind {
	if r == nil {
		return nil
	}
	var out []Kind
	for _, d := range r.descriptors {
		if d.SynthesisOnly || !keep(d) {
			continue
		}
		out = append(out, d.Kind)
	}
	return out
}

func (r *Registry) pad(kinds []Kind, want int, tier Tier) []Kind {
	if len(kinds) >= want {
		return kinds
	}
	have := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		have[k] = true
	}
	for _, k := range r.filter(func(d Descriptor) bool { return d.Tier == tier }) {
		if len(kinds) >= want {
			break
		}
		if !have[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
