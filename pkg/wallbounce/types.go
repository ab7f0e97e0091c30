package wallbounce

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zen-systems/wallbounce/pkg/registry"
	"github.com/zen-systems/wallbounce/pkg/router"
)

// TaskType is the classification that drives backend selection.
type TaskType = registry.TaskType

const (
	TaskBasic    = registry.TaskBasic
	TaskPremium  = registry.TaskPremium
	TaskCritical = registry.TaskCritical
	TaskSimple   = registry.TaskSimple
)

// Mode selects how primary backends are dispatched.
type Mode string

const (
	ModeParallel   Mode = "parallel"
	ModeSequential Mode = "sequential"
)

// ParseMode validates a mode name. Empty means parallel.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeParallel, nil
	case ModeParallel, ModeSequential:
		return m, nil
	default:
		return ModeParallel, fmt.Errorf("unknown mode %q", s)
	}
}

const (
	DefaultMinBackends = 2
	DefaultDepth       = 3
	MinDepth           = 3
	MaxDepth           = 5
)

// ExecutionOptions tunes one ExecuteAnalysis call. Zero values take the
// orchestrator defaults.
type ExecutionOptions struct {
	// TaskType overrides classification when set.
	TaskType    TaskType `json:"task_type,omitempty"`
	Mode        Mode     `json:"mode,omitempty"`
	Depth       int      `json:"depth,omitempty"`
	MinBackends int      `json:"min_backends,omitempty"`
	// MaxBackends caps the primary selection; 0 means no cap.
	MaxBackends     int  `json:"max_backends,omitempty"`
	DisableFallback bool `json:"disable_fallback,omitempty"`
}

// Vote is one primary backend's answer.
type Vote struct {
	Backend        string          `json:"backend"`
	Kind           registry.Kind   `json:"-"`
	DisplayName    string          `json:"display_name"`
	Step           int             `json:"step,omitempty"`
	Content        string          `json:"content"`
	Confidence     float64         `json:"confidence"`
	Reasoning      string          `json:"reasoning,omitempty"`
	Cost           decimal.Decimal `json:"cost"`
	Tokens         registry.Tokens `json:"tokens"`
	AgreementScore float64         `json:"agreement_score"`
	Fallback       bool            `json:"fallback,omitempty"`
}

// ID identifies the vote within one result. Sequential chains may consult
// the same backend at several steps, so the step is part of the identity.
func (v Vote) ID() string {
	if v.Step > 0 {
		return fmt.Sprintf("%s#%d", v.Backend, v.Step)
	}
	return v.Backend
}

// Consensus is the synthesizer's merged answer.
type Consensus struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// Debug is the diagnostic trail of one call. It is returned on success and
// attached to every fatal error.
type Debug struct {
	Verified         bool                    `json:"verified"`
	BackendsUsed     []string                `json:"backends_used"`
	Errors           []string                `json:"errors"`
	DepthExecuted    *int                    `json:"depth_executed,omitempty"`
	FallbackUsed     bool                    `json:"fallback_used"`
	FallbackBackends []string                `json:"fallback_backends,omitempty"`
	Mode             Mode                    `json:"mode"`
	TaskType         TaskType                `json:"task_type"`
	Simple           bool                    `json:"simple"`
	Selected         []string                `json:"selected,omitempty"`
	Synthesizer      string                  `json:"synthesizer,omitempty"`
	SynthesisCost    decimal.Decimal         `json:"synthesis_cost"`
	Complexity       *router.ComplexityScore `json:"complexity,omitempty"`
	ChainSummary     []string                `json:"chain_summary,omitempty"`
}

func (d Debug) clone() Debug {
	out := d
	out.BackendsUsed = append([]string(nil), d.BackendsUsed...)
	out.Errors = append([]string(nil), d.Errors...)
	out.FallbackBackends = append([]string(nil), d.FallbackBackends...)
	out.Selected = append([]string(nil), d.Selected...)
	out.ChainSummary = append([]string(nil), d.ChainSummary...)
	if d.DepthExecuted != nil {
		depth := *d.DepthExecuted
		out.DepthExecuted = &depth
	}
	if d.Complexity != nil {
		score := *d.Complexity
		out.Complexity = &score
	}
	return out
}

// AnalysisResult is the complete outcome of a successful call.
type AnalysisResult struct {
	RunID            string          `json:"run_id"`
	Consensus        Consensus       `json:"consensus"`
	Votes            []Vote          `json:"votes"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	Debug            Debug           `json:"debug"`
}
