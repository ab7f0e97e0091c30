package wallbounce

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/wallbounce/pkg/registry"
)

const (
	chainDigestLimit  = 500
	chainSummaryLimit = 200
)

type chainState int

const (
	chainIdle chainState = iota
	chainStep
	chainRecorded
	chainFailed
	chainComplete
)

func (s chainState) String() string {
	switch s {
	case chainIdle:
		return "idle"
	case chainStep:
		return "step"
	case chainRecorded:
		return "recorded"
	case chainFailed:
		return "failed"
	case chainComplete:
		return "complete"
	default:
		return "unknown"
	}
}

type chainEntry struct {
	step    int
	name    string
	content string
}

// chain drives sequential dispatch: Idle -> Step(i) -> Recorded|Failed ->
// Step(i+1) ... -> Complete. Step i+1 starts only after step i is recorded.
type chain struct {
	depth      int
	candidates []registry.Descriptor
	state      chainState
	step       int
	prior      []chainEntry
	summary    []string
}

func newChain(depth int, candidates []registry.Descriptor) *chain {
	return &chain{depth: depth, candidates: candidates, state: chainIdle}
}

// next moves to the following step and reports whether one remains.
func (c *chain) next() bool {
	switch c.state {
	case chainIdle, chainRecorded, chainFailed:
	default:
		return false
	}
	if c.step >= c.depth || len(c.candidates) == 0 {
		c.state = chainComplete
		return false
	}
	c.step++
	c.state = chainStep
	return true
}

// backend cycles the candidate set; small sets reuse backends.
func (c *chain) backend() registry.Descriptor {
	return c.candidates[(c.step-1)%len(c.candidates)]
}

func (c *chain) tag(name string) string {
	return fmt.Sprintf("[Depth %d/%d - %s]", c.step, c.depth, name)
}

func (c *chain) recorded(desc registry.Descriptor, content string) {
	c.prior = append(c.prior, chainEntry{step: c.step, name: desc.Name(), content: content})
	c.summary = append(c.summary, c.tag(desc.Name())+" "+firstLine(truncate(content, chainSummaryLimit)))
	c.state = chainRecorded
}

func (c *chain) failed(desc registry.Descriptor, err error) {
	c.summary = append(c.summary, c.tag(desc.Name())+" failed: "+err.Error())
	c.state = chainFailed
}

// prompt builds the step prompt from the original prompt, a digest of prior
// responses, the accumulated summary, a progress marker and a continuation
// instruction.
func (c *chain) prompt(original string) string {
	var sb strings.Builder
	sb.WriteString(original)

	if len(c.prior) > 0 {
		sb.WriteString("\n\nPrevious analysis:\n")
		for _, entry := range c.prior {
			fmt.Fprintf(&sb, "[Step %d - %s]\n%s\n", entry.step, entry.name, truncate(entry.content, chainDigestLimit))
		}
	}
	if len(c.summary) > 0 {
		sb.WriteString("\nAccumulated summary:\n")
		for _, line := range c.summary {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	fmt.Fprintf(&sb, "\nProgress: depth %d of %d.\n", c.step, c.depth)
	switch {
	case c.step == 1:
		sb.WriteString("Give an initial analysis that later reviewers will build on.\n")
	case c.step == c.depth:
		sb.WriteString("This is the final step. Consolidate the previous analysis, correct mistakes and close open points.\n")
	default:
		sb.WriteString("Build on the previous analysis. Correct what is wrong and add what is missing without repeating it.\n")
	}
	sb.WriteString(confidenceInstruction)
	return sb.String()
}

// chainCandidates extends the candidate set with the remaining voters when
// diversity is forced and the set is smaller than depth.
func chainCandidates(reg *registry.Registry, selected []registry.Descriptor, depth int, forceDiversity bool) []registry.Descriptor {
	if !forceDiversity || len(selected) >= depth {
		return selected
	}
	out := append([]registry.Descriptor(nil), selected...)
	have := make(map[registry.Kind]bool, len(selected))
	for _, d := range selected {
		have[d.Kind] = true
	}
	for _, kind := range reg.Voters() {
		if len(out) >= depth {
			break
		}
		desc, _ := reg.Get(kind)
		if have[kind] || desc.Tier == registry.TierLightweight {
			continue
		}
		have[kind] = true
		out = append(out, desc)
	}
	return out
}

// dispatchSequential runs exactly depth steps. Failed steps are recorded
// and skipped; they are not backfilled.
func (r *run) dispatchSequential(ctx context.Context, descs []registry.Descriptor, depth int) []Vote {
	c := newChain(depth, descs)
	var votes []Vote

	for c.next() {
		desc := c.backend()
		r.attempted[desc.Kind] = true

		out := r.invoke(ctx, desc, c.prompt(r.prompt), registry.InvokeOptions{
			Role:     "chain",
			Step:     c.step,
			TaskType: r.opts.TaskType,
		})
		if vote, ok := r.record(out); ok {
			votes = append(votes, vote)
			c.recorded(desc, vote.Content)
		} else {
			c.failed(desc, out.err)
		}
		r.emit(Event{Type: EventStepCompleted, Backend: desc.Key(), Step: c.step, Message: c.state.String()})
	}

	executed := c.step
	r.debug.DepthExecuted = &executed
	r.debug.ChainSummary = append([]string(nil), c.summary...)
	return votes
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
