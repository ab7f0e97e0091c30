package router

import "github.com/zen-systems/wallbounce/pkg/registry"

// Candidate captures a task type whose triggers matched the prompt.
type Candidate struct {
	TaskType registry.TaskType `json:"task_type"`
	Score    int               `json:"score"`
	Triggers []string          `json:"triggers,omitempty"`
}

// Classification is the outcome of classifying one prompt.
type Classification struct {
	TaskType   registry.TaskType `json:"task_type"`
	IsSimple   bool              `json:"is_simple"`
	Reasons    []string          `json:"reasons,omitempty"`
	Candidates []Candidate       `json:"candidates,omitempty"`
}

// ComplexityScore holds the capped sub-scores of a prompt.
type ComplexityScore struct {
	Structural int      `json:"structural"`
	Cognitive  int      `json:"cognitive"`
	Domain     int      `json:"domain"`
	Buckets    []string `json:"buckets,omitempty"`
}

// Total sums the sub-scores (0-9).
func (s ComplexityScore) Total() int {
	return s.Structural + s.Cognitive + s.Domain
}

// SynthesizerChoice records how the synthesizer was picked.
type SynthesizerChoice struct {
	Kind     registry.Kind    `json:"kind"`
	Override bool             `json:"override"`
	Score    *ComplexityScore `json:"score,omitempty"`
}
