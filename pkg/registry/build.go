package registry

import (
	"fmt"
	"log/slog"

	"github.com/zen-systems/wallbounce/pkg/adapter"
	"github.com/zen-systems/wallbounce/pkg/config"
)

// CLIAdapterKey names the adapter map entry for a cli backend of the given kind.
func CLIAdapterKey(kind string) string {
	return "cli:" + kind
}

// FromConfig builds a registry from the configured roster. Backends whose
// adapter is not available are skipped with a warning, as are reserve
// entries that end up unregistered.
func FromConfig(cfg *config.WallBounceConfig, adapters map[string]adapter.Adapter, aliases *config.ModelAliases, logger *slog.Logger) (*Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("orchestration config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var descriptors []Descriptor
	for _, b := range cfg.Backends {
		kind, err := ParseKind(b.Kind)
		if err != nil {
			return nil, err
		}
		tier, err := ParseTier(b.Tier)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", kind, err)
		}

		adapterKey := b.Adapter
		if b.Adapter == "cli" {
			adapterKey = CLIAdapterKey(kind.String())
		}
		impl, ok := adapters[adapterKey]
		if !ok || impl == nil {
			logger.Warn("backend unavailable", "backend", kind.String(), "adapter", adapterKey)
			continue
		}

		model := aliases.Resolve(b.Model)
		var pricing *config.ModelPricing
		if entry, ok := cfg.Pricing.Lookup(b.Adapter, model); ok {
			pricing = &entry
		}

		descriptors = append(descriptors, Descriptor{
			Kind:          kind,
			DisplayName:   b.DisplayName,
			Model:         model,
			Capabilities:  b.Capabilities,
			Tier:          tier,
			SynthesisOnly: b.SynthesisOnly,
			Invoker:       NewAdapterInvoker(impl, model, pricing, b.Confidence()),
		})
	}

	registered := make(map[Kind]bool, len(descriptors))
	for _, d := range descriptors {
		registered[d.Kind] = true
	}
	var reserve []Kind
	for _, name := range cfg.Fallback.Reserve {
		kind, err := ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("fallback reserve: %w", err)
		}
		if !registered[kind] {
			logger.Warn("reserve backend unavailable", "backend", kind.String())
			continue
		}
		reserve = append(reserve, kind)
	}

	return New(descriptors, WithReserve(reserve...))
}
