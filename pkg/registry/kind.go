package registry

import (
	"fmt"
	"strings"
)

// Kind identifies a backend. Routing compares kinds, never display strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindClaudeSonnet
	KindClaudeOpus
	KindClaudeHaiku
	KindGPTCodex
	KindGPTInstant
	KindGeminiPro
	KindGeminiFlash
	KindDeepSeekChat
	KindDeepSeekReasoner
)

var kindNames = map[Kind]string{
	KindClaudeSonnet:     "claude-sonnet",
	KindClaudeOpus:       "claude-opus",
	KindClaudeHaiku:      "claude-haiku",
	KindGPTCodex:         "gpt-codex",
	KindGPTInstant:       "gpt-instant",
	KindGeminiPro:        "gemini-pro",
	KindGeminiFlash:      "gemini-flash",
	KindDeepSeekChat:     "deepseek-chat",
	KindDeepSeekReasoner: "deepseek-reasoner",
}

// Kinds returns every known backend kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindClaudeSonnet, KindClaudeOpus, KindClaudeHaiku,
		KindGPTCodex, KindGPTInstant,
		KindGeminiPro, KindGeminiFlash,
		KindDeepSeekChat, KindDeepSeekReasoner,
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a configured backend name to its kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for kind, n := range kindNames {
		if n == name {
			return kind, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown backend kind %q", s)
}

// MarshalText encodes the kind as its configured name.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown backend kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a configured backend name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Tier groups backends by cost and capability.
type Tier int

const (
	TierStandard Tier = iota
	TierLightweight
	TierPremium
)

func (t Tier) String() string {
	switch t {
	case TierLightweight:
		return "lightweight"
	case TierPremium:
		return "premium"
	default:
		return "standard"
	}
}

// ParseTier maps a configured tier name. Empty means standard.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return TierStandard, nil
	case "lightweight":
		return TierLightweight, nil
	case "premium":
		return TierPremium, nil
	default:
		return TierStandard, fmt.Errorf("unknown tier %q", s)
	}
}

// TaskType is the classification that drives backend selection.
type TaskType string

const (
	TaskBasic    TaskType = "basic"
	TaskPremium  TaskType = "premium"
	TaskCritical TaskType = "critical"
	TaskSimple   TaskType = "simple"
)

// ParseTaskType validates a task type name. Empty means basic.
func ParseTaskType(s string) (TaskType, error) {
	switch t := TaskType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TaskBasic, nil
	case TaskBasic, TaskPremium, TaskCritical, TaskSimple:
		return t, nil
	default:
		return TaskBasic, fmt.Errorf("unknown task type %q", s)
	}
}
