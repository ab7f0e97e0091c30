package router

import (
	"fmt"

	"github.com/zen-systems/wallbounce/pkg/config"
	"github.com/zen-systems/wallbounce/pkg/registry"
)

const defaultComplexityThreshold = 6

// SynthesizerSelector picks the backend that merges all votes.
type SynthesizerSelector struct {
	defaultKind registry.Kind
	complexKind registry.Kind
	overrides   map[registry.TaskType]registry.Kind
	threshold   int
}

// NewSynthesizerSelector parses the synthesis configuration. A missing
// complex synthesizer falls back to the default one.
func NewSynthesizerSelector(cfg config.SynthesisConfig) (*SynthesizerSelector, error) {
	if cfg.Default == "" {
		return nil, fmt.Errorf("no default synthesizer configured")
	}
	defaultKind, err := registry.ParseKind(cfg.Default)
	if err != nil {
		return nil, fmt.Errorf("default synthesizer: %w", err)
	}
	complexKind := defaultKind
	if cfg.Complex != "" {
		if complexKind, err = registry.ParseKind(cfg.Complex); err != nil {
			return nil, fmt.Errorf("complex synthesizer: %w", err)
		}
	}

	s := &SynthesizerSelector{
		defaultKind: defaultKind,
		complexKind: complexKind,
		overrides:   make(map[registry.TaskType]registry.Kind, len(cfg.Overrides)),
		threshold:   cfg.ComplexityThreshold,
	}
	if s.threshold <= 0 {
		s.threshold = defaultComplexityThreshold
	}
	for task, name := range cfg.Overrides {
		taskType, err := registry.ParseTaskType(task)
		if err != nil {
			return nil, fmt.Errorf("synthesizer override: %w", err)
		}
		kind, err := registry.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("synthesizer override %s: %w", task, err)
		}
		s.overrides[taskType] = kind
	}
	return s, nil
}

// Select returns the synthesizer for a prompt. Critical tasks and tasks with
// a static override skip scoring; critical without an override uses the
// complex synthesizer. The result depends only on the inputs.
func (s *SynthesizerSelector) Select(prompt string, taskType registry.TaskType) SynthesizerChoice {
	if kind, ok := s.overrides[taskType]; ok {
		return SynthesizerChoice{Kind: kind, Override: true}
	}
	if taskType == registry.TaskCritical {
		return SynthesizerChoice{Kind: s.complexKind, Override: true}
	}

	score := ScoreComplexity(prompt)
	kind := s.defaultKind
	if score.Total() >= s.threshold {
		kind = s.complexKind
	}
	return SynthesizerChoice{Kind: kind, Score: &score}
}

// SelectSynthesizer returns only the chosen kind.
func (s *SynthesizerSelector) SelectSynthesizer(prompt string, taskType registry.TaskType) registry.Kind {
	return s.Select(prompt, taskType).Kind
}

// Kinds returns every synthesizer this selector may return.
func (s *SynthesizerSelector) Kinds() []registry.Kind {
	kinds := []registry.Kind{s.defaultKind}
	seen := map[registry.Kind]bool{s.defaultKind: true}
	add := func(k registry.Kind) {
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	add(s.complexKind)
	for _, task := range []registry.TaskType{registry.TaskBasic, registry.TaskPremium, registry.TaskCritical, registry.TaskSimple} {
		if k, ok := s.overrides[task]; ok {
			add(k)
		}
	}
	return kinds
}
