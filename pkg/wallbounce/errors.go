package wallbounce

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zen-systems/wallbounce/pkg/adapter"
)

var (
	ErrBackend              = errors.New("backend failed")
	ErrInsufficientBackends = errors.New("insufficient backends")
	ErrSynthesis            = errors.New("synthesis failed")
	ErrConfiguration        = errors.New("invalid configuration")
)

// BackendError is one backend's failure. It is fatal only when it drops the
// call below quorum.
type BackendError struct {
	Backend string
	Step    int
	Err     error
}

func (e *BackendError) Error() string {
	if e.Step > 0 {
		return fmt.Sprintf("backend %s (step %d): %v", e.Backend, e.Step, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// Transient reports whether the failure looked like a rate limit, timeout or
// provider-side outage.
func (e *BackendError) Transient() bool { return adapter.IsTransient(e.Err) }

// InsufficientBackendsError reports fewer successes than the effective minimum.
type InsufficientBackendsError struct {
	Required int
	Got      int
	Failures []string
	Debug    Debug
}

func (e *InsufficientBackendsError) Error() string {
	msg := fmt.Sprintf("insufficient backends: %d succeeded, %d required", e.Got, e.Required)
	if len(e.Failures) > 0 {
		msg += ": " + strings.Join(e.Failures, "; ")
	}
	return msg
}

func (e *InsufficientBackendsError) Is(target error) bool { return target == ErrInsufficientBackends }

// SynthesisError reports a failed consensus step. No other synthesizer is tried.
type SynthesisError struct {
	Synthesizer string
	Err         error
	Debug       Debug
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis by %s failed: %v", e.Synthesizer, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

func (e *SynthesisError) Is(target error) bool { return target == ErrSynthesis }

// ConfigurationError is raised before any backend is invoked.
type ConfigurationError struct {
	Reason string
	Debug  Debug
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// DebugOf extracts the diagnostic trail from an orchestrator error.
func DebugOf(err error) (Debug, bool) {
	var insufficient *InsufficientBackendsError
	if errors.As(err, &insufficient) {
		return insufficient.Debug, true
	}
	var synthesis *SynthesisError
	if errors.As(err, &synthesis) {
		return synthesis.Debug, true
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Debug, true
	}
	return Debug{}, false
}
