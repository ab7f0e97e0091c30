package wallbounce

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zen-systems/wallbounce/pkg/registry"
)

const confidenceInstruction = "Finish with a line of the form CONFIDENCE: <0.0-1.0> rating how sure you are."

var roleInstructions = map[registry.Kind]string{
	registry.KindClaudeSonnet:     "Role: lead reviewer. Reason carefully about correctness and risk.",
	registry.KindGPTCodex:         "Role: implementer. Favor concrete steps, commands and code.",
	registry.KindGeminiPro:        "Role: researcher. Bring in context, prior art and edge cases others may miss.",
	registry.KindDeepSeekReasoner: "Role: skeptic. Check the reasoning chain and challenge weak assumptions.",
	registry.KindClaudeOpus:       "Role: principal reviewer. Weigh long-term consequences and tradeoffs.",
}

var genericInstructions = []string{
	"Answer independently from your own expertise; other models are answering the same question.",
	"State assumptions explicitly. " + confidenceInstruction,
}

// tailorPrompt appends the backend's role lines to the base prompt.
func tailorPrompt(prompt string, kind registry.Kind) string {
	lines := genericInstructions
	if role, ok := roleInstructions[kind]; ok {
		lines = []string{role, confidenceInstruction}
	}
	return prompt + "\n\n" + strings.Join(lines, "\n")
}

func roleName(kind registry.Kind) string {
	if _, ok := roleInstructions[kind]; ok {
		return "specialist"
	}
	return "generalist"
}

// dispatchParallel invokes every backend concurrently and waits for all of
// them to settle. Failures never cancel siblings. Outcomes come back in
// selection order.
func (r *run) dispatchParallel(ctx context.Context, descs []registry.Descriptor) []outcome {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		outcomes = make([]outcome, 0, len(descs))
	)

	for i, desc := range descs {
		r.attempted[desc.Kind] = true
		g.Go(func() error {
			out := r.invoke(ctx, desc, tailorPrompt(r.prompt, desc.Kind), registry.InvokeOptions{
				Role:     roleName(desc.Kind),
				TaskType: r.opts.TaskType,
			})
			out.index = i

			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })
	return outcomes
}
