package wallbounce

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zen-systems/wallbounce/pkg/registry"
)

const voteExcerptLimit = 2000

// buildSynthesisPrompt asks the synthesizer to merge every vote into one answer.
func buildSynthesisPrompt(prompt string, votes []Vote) string {
	var sb strings.Builder
	sb.WriteString("You are synthesizing answers from several independent AI models into one response.\n")
	sb.WriteString("Merge points the models agree on and drop duplicates.\n")
	sb.WriteString("Where they contradict each other, resolve the contradiction and say which view you kept.\n")
	sb.WriteString("Structure the answer as: Summary, Recommendation, Risks and follow-ups.\n")
	sb.WriteString("After the answer, add a line REASONING: <one sentence on how you merged the answers>\n")
	sb.WriteString("and a final line CONFIDENCE: <0.0-1.0> for the merged answer.\n\n")

	sb.WriteString("Original question:\n")
	sb.WriteString(prompt)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Model answers (%d):\n", len(votes))
	for i, v := range votes {
		label := v.DisplayName
		if v.Step > 0 {
			label = fmt.Sprintf("%s, step %d", label, v.Step)
		}
		fmt.Fprintf(&sb, "\n--- Answer %d: %s (confidence %.2f) ---\n", i+1, label, v.Confidence)
		sb.WriteString(truncate(v.Content, voteExcerptLimit))
		sb.WriteString("\n")
	}
	return sb.String()
}

// synthesize invokes the synthesizer exactly once.
func (r *run) synthesize(ctx context.Context, synth registry.Descriptor, votes []Vote) (*registry.Response, error) {
	r.emit(Event{
		Type:    EventSynthesisStarted,
		Backend: synth.Key(),
		Message: fmt.Sprintf("%d votes", len(votes)),
	})
	out := r.invoke(ctx, synth, buildSynthesisPrompt(r.prompt, votes), registry.InvokeOptions{
		Role:     "synthesizer",
		TaskType: r.opts.TaskType,
	})
	r.debug.BackendsUsed = append(r.debug.BackendsUsed, synth.Key())
	if out.err != nil {
		return nil, out.err
	}
	return out.resp, nil
}

// assemble builds the final result. Cost is the exact decimal sum of the
// votes plus the synthesizer.
func (r *run) assemble(votes []Vote, resp *registry.Response, elapsedMs int64) *AnalysisResult {
	total := decimal.Zero
	for _, v := range votes {
		total = total.Add(v.Cost)
	}
	total = total.Add(resp.Cost)

	r.debug.Verified = len(votes) >= 2
	r.debug.SynthesisCost = resp.Cost

	return &AnalysisResult{
		RunID: r.id,
		Consensus: Consensus{
			Content:    resp.Content,
			Confidence: resp.Confidence,
			Reasoning:  resp.Reasoning,
		},
		Votes:            votes,
		TotalCost:        total,
		ProcessingTimeMs: elapsedMs,
		Debug:            r.debug.clone(),
	}
}
