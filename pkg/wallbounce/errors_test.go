package wallbounce

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zen-systems/wallbounce/pkg/adapter"
)

func TestBackendErrorTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "rate limited", err: &adapter.AdapterError{Adapter: "openai", Status: 429}, want: true},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: true},
		{name: "rejected", err: &adapter.AdapterError{Adapter: "openai", Status: 401}, want: false},
		{name: "plain", err: errors.New("bad output"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &BackendError{Backend: "gpt-codex", Err: tt.err}
			assert.Equal(t, tt.want, be.Transient())
			assert.ErrorIs(t, be, ErrBackend)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	be := &BackendError{Backend: "gemini-pro", Step: 2, Err: errors.New("timeout")}
	assert.Equal(t, "backend gemini-pro (step 2): timeout", be.Error())

	ie := &InsufficientBackendsError{Required: 2, Got: 1, Failures: []string{"a: x", "b: y"}}
	assert.Equal(t, "insufficient backends: 1 succeeded, 2 required: a: x; b: y", ie.Error())
	assert.ErrorIs(t, ie, ErrInsufficientBackends)

	se := &SynthesisError{Synthesizer: "claude-opus", Err: errors.New("boom"), Debug: Debug{Errors: []string{"claude-opus: boom"}}}
	assert.ErrorIs(t, se, ErrSynthesis)
	debug, ok := DebugOf(fmt.Errorf("wrapped: %w", se))
	assert.True(t, ok)
	assert.Equal(t, []string{"claude-opus: boom"}, debug.Errors)

	_, ok = DebugOf(be)
	assert.False(t, ok)
}
