package wallbounce

import (
	"context"
	"fmt"

	"github.com/zen-systems/wallbounce/pkg/registry"
)

// runFallback tries reserve backends one at a time until quorum is met.
// Backends already attempted in this call are skipped; a failed backend is
// never retried.
func (r *run) runFallback(ctx context.Context, votes []Vote, required int) []Vote {
	reserve := r.reg.Reserve()
	r.emit(Event{
		Type:    EventFallbackStarted,
		Message: fmt.Sprintf("%d of %d votes, %d reserve backends", len(votes), required, len(reserve)),
	})
	r.logger.Info("quorum not met, trying reserve backends",
		"run_id", r.id, "votes", len(votes), "required", required, "reserve", len(reserve))

	for _, kind := range reserve {
		if len(votes) >= required {
			break
		}
		if r.attempted[kind] {
			continue
		}
		desc, ok := r.reg.Get(kind)
		if !ok || desc.SynthesisOnly {
			continue
		}
		r.attempted[kind] = true
		r.debug.FallbackUsed = true
		r.debug.FallbackBackends = append(r.debug.FallbackBackends, desc.Key())

		out := r.invoke(ctx, desc, tailorPrompt(r.prompt, kind), registry.InvokeOptions{
			Role:     "fallback",
			TaskType: r.opts.TaskType,
		})
		out.fallback = true
		if vote, ok := r.record(out); ok {
			votes = append(votes, vote)
		}
	}
	return votes
}
