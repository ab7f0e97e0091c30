package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WallBounceConfig holds the backend roster and orchestration settings.
type WallBounceConfig struct {
	Backends   []BackendConfig  `yaml:"backends"`
	Fallback   FallbackConfig   `yaml:"fallback,omitempty"`
	Synthesis  SynthesisConfig  `yaml:"synthesis,omitempty"`
	Classifier ClassifierConfig `yaml:"classifier,omitempty"`
	Sequential SequentialConfig `yaml:"sequential,omitempty"`
	Pricing    PricingConfig    `yaml:"pricing,omitempty"`
	Defaults   DefaultsConfig   `yaml:"defaults,omitempty"`
	Sessions   SessionsConfig   `yaml:"sessions,omitempty"`
}

// BackendConfig describes one roster entry. Order in the roster is selection order.
type BackendConfig struct {
	Kind              string   `yaml:"kind"`
	DisplayName       string   `yaml:"display_name,omitempty"`
	Adapter           string   `yaml:"adapter"`
	Model             string   `yaml:"model,omitempty"`
	Tier              string   `yaml:"tier,omitempty"`
	Capabilities      []string `yaml:"capabilities,omitempty"`
	SynthesisOnly     bool     `yaml:"synthesis_only,omitempty"`
	DefaultConfidence *float64 `yaml:"default_confidence,omitempty"`
	Command           []string `yaml:"command,omitempty"`
}

// DefaultBackendConfidence is used when a backend reports no confidence and
// its roster entry sets none.
const DefaultBackendConfidence = 0.75

// Confidence returns the configured default confidence, or
// DefaultBackendConfidence when unset. An explicit 0 is kept.
func (b BackendConfig) Confidence() float64 {
	if b.DefaultConfidence == nil {
		return DefaultBackendConfidence
	}
	return *b.DefaultConfidence
}

// FallbackConfig lists reserve backends tried in order when quorum is missed.
type FallbackConfig struct {
	Enabled *bool    `yaml:"enabled,omitempty"`
	Reserve []string `yaml:"reserve,omitempty"`
}

// SynthesisConfig selects the backend that merges all votes.
type SynthesisConfig struct {
	Default             string            `yaml:"default,omitempty"`
	Complex             string            `yaml:"complex,omitempty"`
	Overrides           map[string]string `yaml:"overrides,omitempty"`
	ComplexityThreshold int               `yaml:"complexity_threshold,omitempty"`
}

// ClassifierConfig drives the simple-query fast path and task type triggers.
type ClassifierConfig struct {
	TechnicalKeywords []string `yaml:"technical_keywords,omitempty"`
	SimplePatterns    []string `yaml:"simple_patterns,omitempty"`
	SimpleMaxLength   int      `yaml:"simple_max_length,omitempty"`
	CriticalTriggers  []string `yaml:"critical_triggers,omitempty"`
	PremiumTriggers   []string `yaml:"premium_triggers,omitempty"`
}

// SequentialConfig tunes chained execution.
type SequentialConfig struct {
	ForceDiversity bool `yaml:"force_diversity,omitempty"`
}

// DefaultsConfig supplies ExecutionOptions defaults.
type DefaultsConfig struct {
	MinBackends int    `yaml:"min_backends,omitempty"`
	MaxBackends int    `yaml:"max_backends,omitempty"`
	Mode        string `yaml:"mode,omitempty"`
	Depth       int    `yaml:"depth,omitempty"`
}

// SessionsConfig controls caller-side history retention.
type SessionsConfig struct {
	TTL string `yaml:"ttl,omitempty"`
}

// PricingConfig maps adapter -> model -> pricing.
type PricingConfig map[string]map[string]ModelPricing

// ModelPricing defines per-1k token pricing in USD.
type ModelPricing struct {
	PromptPer1K     float64 `yaml:"prompt_per_1k,omitempty"`
	CompletionPer1K float64 `yaml:"completion_per_1k,omitempty"`
}

// Lookup returns pricing for adapter/model, falling back to the adapter's "default" entry.
func (p PricingConfig) Lookup(adapterName, model string) (ModelPricing, bool) {
	if p == nil {
		return ModelPricing{}, false
	}
	if adapterPricing, ok := p[adapterName]; ok {
		if entry, ok := adapterPricing[model]; ok {
			return entry, true
		}
		if entry, ok := adapterPricing["default"]; ok {
			return entry, true
		}
	}
	return ModelPricing{}, false
}

// FallbackEnabled reports whether reserve substitution is on (default true).
func (c *WallBounceConfig) FallbackEnabled() bool {
	if c == nil || c.Fallback.Enabled == nil {
		return true
	}
	return *c.Fallback.Enabled
}

// SessionTTL parses the sessions TTL, defaulting to 24h.
func (c *WallBounceConfig) SessionTTL() time.Duration {
	if c == nil || strings.TrimSpace(c.Sessions.TTL) == "" {
		return 24 * time.Hour
	}
	ttl, err := time.ParseDuration(c.Sessions.TTL)
	if err != nil || ttl <= 0 {
		return 24 * time.Hour
	}
	return ttl
}

// Validate checks structural consistency. Kind names are validated by the registry.
func (c *WallBounceConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("orchestration config is nil")
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("no backends configured")
	}
	seen := make(map[string]bool, len(c.Backends))
	for i, b := range c.Backends {
		kind := strings.TrimSpace(b.Kind)
		if kind == "" {
			return fmt.Errorf("backend %d: kind is required", i)
		}
		if seen[kind] {
			return fmt.Errorf("backend %q listed twice", kind)
		}
		seen[kind] = true
		if strings.TrimSpace(b.Adapter) == "" {
			return fmt.Errorf("backend %q: adapter is required", kind)
		}
		if b.Adapter == "cli" && len(b.Command) == 0 {
			return fmt.Errorf("backend %q: cli adapter requires command", kind)
		}
		if c := b.DefaultConfidence; c != nil && (*c < 0 || *c > 1) {
			return fmt.Errorf("backend %q: default_confidence must be within [0,1]", kind)
		}
	}
	for _, kind := range c.Fallback.Reserve {
		if !seen[kind] {
			return fmt.Errorf("fallback reserve %q is not in the backend roster", kind)
		}
	}
	for _, kind := range []string{c.Synthesis.Default, c.Synthesis.Complex} {
		if kind != "" && !seen[kind] {
			return fmt.Errorf("synthesizer %q is not in the backend roster", kind)
		}
	}
	for task, kind := range c.Synthesis.Overrides {
		if !seen[kind] {
			return fmt.Errorf("synthesizer override %s=%q is not in the backend roster", task, kind)
		}
	}
	return nil
}

// LoadWallBounceConfig reads orchestration configuration from a YAML file.
func LoadWallBounceConfig(path string) (*WallBounceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg WallBounceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyWallBounceDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultWallBounceConfig returns the built-in roster and orchestration settings.
func DefaultWallBounceConfig() *WallBounceConfig {
	cfg := &WallBounceConfig{
		Backends: []BackendConfig{
			{Kind: "claude-sonnet", DisplayName: "Claude Sonnet", Adapter: "anthropic", Model: "quality", Tier: "standard", Capabilities: []string{"reasoning", "code", "review"}},
			{Kind: "gpt-codex", DisplayName: "GPT Codex", Adapter: "openai", Model: "fast-code", Tier: "standard", Capabilities: []string{"code", "implementation"}},
			{Kind: "gemini-pro", DisplayName: "Gemini Pro", Adapter: "google", Model: "research", Tier: "standard", Capabilities: []string{"research", "long-context"}},
			{Kind: "deepseek-reasoner", DisplayName: "DeepSeek Reasoner", Adapter: "deepseek", Model: "reason", Tier: "standard", Capabilities: []string{"reasoning", "math"}},
			{Kind: "claude-opus", DisplayName: "Claude Opus", Adapter: "anthropic", Model: "deep", Tier: "premium", Capabilities: []string{"synthesis", "reasoning"}, SynthesisOnly: true},
			{Kind: "claude-haiku", DisplayName: "Claude Haiku", Adapter: "anthropic", Model: "light", Tier: "lightweight", Capabilities: []string{"chat"}},
			{Kind: "gpt-instant", DisplayName: "GPT Instant", Adapter: "openai", Model: "fast", Tier: "lightweight", Capabilities: []string{"chat"}},
			{Kind: "gemini-flash", DisplayName: "Gemini Flash", Adapter: "google", Model: "flash", Tier: "lightweight", Capabilities: []string{"chat", "research"}},
			{Kind: "deepseek-chat", DisplayName: "DeepSeek Chat", Adapter: "deepseek", Model: "cheap", Tier: "lightweight", Capabilities: []string{"chat"}},
		},
		Fallback: FallbackConfig{
			Reserve: []string{"deepseek-chat", "gemini-flash", "claude-haiku"},
		},
		Synthesis: SynthesisConfig{
			Default:   "claude-sonnet",
			Complex:   "claude-opus",
			Overrides: map[string]string{"critical": "claude-opus"},
		},
		Pricing: PricingConfig{
			"anthropic": {
				"claude-sonnet-4-20250514":  {PromptPer1K: 0.003, CompletionPer1K: 0.015},
				"claude-opus-4-20250514":    {PromptPer1K: 0.015, CompletionPer1K: 0.075},
				"claude-3-5-haiku-20241022": {PromptPer1K: 0.0008, CompletionPer1K: 0.004},
			},
			"openai": {
				"default": {PromptPer1K: 0.00125, CompletionPer1K: 0.01},
			},
			"google": {
				"gemini-2.5-pro":   {PromptPer1K: 0.00125, CompletionPer1K: 0.01},
				"gemini-2.5-flash": {PromptPer1K: 0.0003, CompletionPer1K: 0.0025},
			},
			"deepseek": {
				"default": {PromptPer1K: 0.00027, CompletionPer1K: 0.0011},
			},
		},
	}

	applyWallBounceDefaults(cfg)
	return cfg
}

func applyWallBounceDefaults(cfg *WallBounceConfig) {
	if cfg == nil {
		return
	}
	for i := range cfg.Backends {
		b := &cfg.Backends[i]
		b.Kind = strings.TrimSpace(b.Kind)
		if b.Tier == "" {
			b.Tier = "standard"
		}
		if b.DisplayName == "" {
			b.DisplayName = b.Kind
		}
	}
	if cfg.Synthesis.ComplexityThreshold == 0 {
		cfg.Synthesis.ComplexityThreshold = 6
	}
	if cfg.Defaults.MinBackends == 0 {
		cfg.Defaults.MinBackends = 2
	}
	if cfg.Defaults.Mode == "" {
		cfg.Defaults.Mode = "parallel"
	}
	if cfg.Defaults.Depth == 0 {
		cfg.Defaults.Depth = 3
	}
	c := &cfg.Classifier
	if c.SimpleMaxLength == 0 {
		c.SimpleMaxLength = 80
	}
	if len(c.TechnicalKeywords) == 0 {
		c.TechnicalKeywords = []string{
			"api", "bug", "build", "cluster", "code", "config", "container", "cpu", "crash",
			"database", "deploy", "deployment", "docker", "error", "exception", "function",
			"incident", "kubernetes", "latency", "log", "memory", "network", "outage",
			"performance", "query", "script", "security", "server", "sql", "timeout",
		}
	}
	if len(c.SimplePatterns) == 0 {
		c.SimplePatterns = []string{
			`^(hi|hello|hey|yo|howdy|greetings)( there)?[\s!.?]*$`,
			`^good (morning|afternoon|evening|night)[\s!.?]*$`,
			`^(thanks|thank you|thx|ty|cheers)( so much| very much| a lot)?[\s!.?]*$`,
			`^(ok|okay|yes|no|yep|nope|sure|got it|understood|sounds good|great|perfect)[\s!.?]*$`,
			`^(please )?(help|help me|can you help( me)?|what can you do)[\s!.?]*$`,
		}
	}
	if len(c.CriticalTriggers) == 0 {
		c.CriticalTriggers = []string{
			"production outage", "outage", "incident", "data loss", "security breach",
			"breach", "critical", "sev1", "p0", "root cause",
		}
	}
	if len(c.PremiumTriggers) == 0 {
		c.PremiumTriggers = []string{
			"architecture", "design", "strategy", "migration", "compare", "trade-off",
			"evaluate", "capacity planning", "roadmap",
		}
	}
}
