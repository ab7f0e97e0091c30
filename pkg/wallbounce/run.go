package wallbounce

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zen-systems/wallbounce/pkg/adapter"
	"github.com/zen-systems/wallbounce/pkg/registry"
)

// run holds the state of one call. It is never shared across calls.
type run struct {
	id        string
	prompt    string
	opts      ExecutionOptions
	reg       *registry.Registry
	logger    *slog.Logger
	sink      EventSink
	debug     Debug
	attempted map[registry.Kind]bool
}

// outcome is the settled result of one backend invocation.
type outcome struct {
	index    int
	desc     registry.Descriptor
	step     int
	fallback bool
	resp     *registry.Response
	err      error
}

func (r *run) emit(e Event) {
	if r.sink == nil {
		return
	}
	e.RunID = r.id
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("event sink panicked", "event", string(e.Type), "panic", fmt.Sprint(rec))
		}
	}()
	r.sink.Publish(e)
}

// invoke calls one backend and converts every failure mode into an outcome.
func (r *run) invoke(ctx context.Context, desc registry.Descriptor, prompt string, opts registry.InvokeOptions) (out outcome) {
	out = outcome{desc: desc, step: opts.Step}
	r.emit(Event{Type: EventBackendStarted, Backend: desc.Key(), Step: opts.Step})

	defer func() {
		if rec := recover(); rec != nil {
			out.resp = nil
			out.err = fmt.Errorf("panic: %v", rec)
		}
		if out.err != nil {
			out.err = &BackendError{Backend: desc.Key(), Step: opts.Step, Err: out.err}
			r.logger.Warn("backend failed", "run_id", r.id, "backend", desc.Key(), "step", opts.Step,
				"transient", adapter.IsTransient(out.err), "error", out.err)
			r.emit(Event{Type: EventBackendFailed, Backend: desc.Key(), Step: opts.Step, Err: out.err})
			return
		}
		r.emit(Event{Type: EventBackendSucceeded, Backend: desc.Key(), Step: opts.Step})
	}()

	resp, err := desc.Invoker.Invoke(ctx, prompt, opts)
	switch {
	case err != nil:
		out.err = err
	case resp == nil:
		out.err = fmt.Errorf("no response")
	default:
		out.resp = resp
	}
	return out
}

// record appends an outcome to the diagnostic trail and returns its vote.
func (r *run) record(out outcome) (Vote, bool) {
	r.markUsed(out.desc.Key())
	if out.err != nil {
		r.debug.Errors = append(r.debug.Errors, failureLine(out))
		return Vote{}, false
	}
	resp := out.resp
	return Vote{
		Backend:        out.desc.Key(),
		Kind:           out.desc.Kind,
		DisplayName:    out.desc.Name(),
		Step:           out.step,
		Content:        resp.Content,
		Confidence:     resp.Confidence,
		Reasoning:      resp.Reasoning,
		Cost:           resp.Cost,
		Tokens:         resp.Tokens,
		AgreementScore: resp.Confidence,
		Fallback:       out.fallback,
	}, true
}

// markUsed appends a backend to the trail of backends that ran, in attempt
// order. Chains that revisit a backend list it once.
func (r *run) markUsed(key string) {
	for _, existing := range r.debug.BackendsUsed {
		if existing == key {
			return
		}
	}
	r.debug.BackendsUsed = append(r.debug.BackendsUsed, key)
}

// failureLine formats "key: message" without repeating the backend prefix.
func failureLine(out outcome) string {
	msg := out.err.Error()
	if be, ok := out.err.(*BackendError); ok {
		msg = be.Err.Error()
	}
	if out.step > 0 {
		return fmt.Sprintf("%s (step %d): %s", out.desc.Key(), out.step, msg)
	}
	return fmt.Sprintf("%s: %s", out.desc.Key(), msg)
}

func (r *run) insufficient(required, got int) *InsufficientBackendsError {
	return &InsufficientBackendsError{
		Required: required,
		Got:      got,
		Failures: append([]string(nil), r.debug.Errors...),
		Debug:    r.debug.clone(),
	}
}
