package wallbounce

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zen-systems/wallbounce/pkg/registry"
	"github.com/zen-systems/wallbounce/pkg/router"
)

// Orchestrator sends one prompt to several backends and merges their answers.
// It is safe for concurrent calls; all per-call state lives in the call.
type Orchestrator struct {
	registry        *registry.Registry
	classifier      *router.Classifier
	selector        *router.SynthesizerSelector
	logger          *slog.Logger
	sink            EventSink
	fallbackEnabled bool
	forceDiversity  bool
	defaults        ExecutionOptions
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventSink attaches an observer. Results do not depend on it.
func WithEventSink(sink EventSink) Option {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

// WithFallback turns reserve substitution on or off. It is on by default.
func WithFallback(enabled bool) Option {
	return func(o *Orchestrator) {
		o.fallbackEnabled = enabled
	}
}

// WithForceDiversity extends short sequential candidate sets with other
// backends before cycling.
func WithForceDiversity(enabled bool) Option {
	return func(o *Orchestrator) {
		o.forceDiversity = enabled
	}
}

// WithDefaults sets the values used for zero ExecutionOptions fields.
func WithDefaults(defaults ExecutionOptions) Option {
	return func(o *Orchestrator) {
		o.defaults = defaults
	}
}

// New builds an orchestrator over an initialized registry.
func New(reg *registry.Registry, classifier *router.Classifier, selector *router.SynthesizerSelector, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:        reg,
		classifier:      classifier,
		selector:        selector,
		logger:          slog.Default(),
		fallbackEnabled: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks that backends are registered and that every synthesizer
// the selector can choose is among them.
func (o *Orchestrator) Validate() error {
	if o.registry.Len() == 0 {
		return &ConfigurationError{Reason: "no backends registered"}
	}
	if o.selector == nil {
		return &ConfigurationError{Reason: "no synthesizer selector"}
	}
	var missing []string
	for _, kind := range o.selector.Kinds() {
		if _, ok := o.registry.Get(kind); !ok {
			missing = append(missing, kind.String())
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Reason: "synthesizers not registered: " + strings.Join(missing, ", ")}
	}
	return nil
}

// ExecuteAnalysis classifies the prompt, dispatches it to the selected
// backends, enforces quorum and returns the synthesized consensus. It either
// returns a result with at least the effective minimum of votes or fails with
// ErrInsufficientBackends.
func (o *Orchestrator) ExecuteAnalysis(ctx context.Context, prompt string, opts ExecutionOptions) (*AnalysisResult, error) {
	start := time.Now()
	r := &run{
		id:        uuid.NewString(),
		prompt:    prompt,
		reg:       o.registry,
		logger:    o.logger,
		sink:      o.sink,
		attempted: make(map[registry.Kind]bool),
		debug:     Debug{BackendsUsed: []string{}, Errors: []string{}},
	}

	// Classifying
	if o.registry.Len() == 0 {
		return nil, o.fail(r, &ConfigurationError{Reason: "no backends registered", Debug: r.debug.clone()})
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, o.fail(r, &ConfigurationError{Reason: "prompt is empty", Debug: r.debug.clone()})
	}
	cls := o.classifier.Classify(prompt)
	opts, err := o.normalize(opts, cls)
	if err != nil {
		return nil, o.fail(r, &ConfigurationError{Reason: err.Error(), Debug: r.debug.clone()})
	}
	r.opts = opts
	r.debug.Mode = opts.Mode
	r.debug.TaskType = opts.TaskType
	r.debug.Simple = cls.IsSimple
	r.emit(Event{Type: EventClassified, Message: fmt.Sprintf("task=%s simple=%t", opts.TaskType, cls.IsSimple)})

	// Selecting
	if o.selector == nil {
		return nil, o.fail(r, &ConfigurationError{Reason: "no synthesizer selector", Debug: r.debug.clone()})
	}
	choice := o.selector.Select(prompt, opts.TaskType)
	r.debug.Complexity = choice.Score
	synth, ok := o.registry.Get(choice.Kind)
	if !ok {
		return nil, o.fail(r, &ConfigurationError{
			Reason: fmt.Sprintf("synthesizer %s is not registered", choice.Kind),
			Debug:  r.debug.clone(),
		})
	}
	r.debug.Synthesizer = synth.Key()

	selectionTask := opts.TaskType
	if cls.IsSimple {
		selectionTask = TaskSimple
	}
	kinds := o.registry.SelectOrder(selectionTask)
	if opts.MaxBackends > 0 && len(kinds) > opts.MaxBackends {
		kinds = kinds[:opts.MaxBackends]
	}
	if len(kinds) == 0 {
		return nil, o.fail(r, &ConfigurationError{
			Reason: fmt.Sprintf("no backends eligible for task type %s", selectionTask),
			Debug:  r.debug.clone(),
		})
	}
	descs := make([]registry.Descriptor, 0, len(kinds))
	for _, kind := range kinds {
		desc, _ := o.registry.Get(kind)
		descs = append(descs, desc)
		r.debug.Selected = append(r.debug.Selected, desc.Key())
	}
	r.emit(Event{
		Type:    EventSelected,
		Backend: synth.Key(),
		Message: fmt.Sprintf("backends=%s synthesizer=%s", strings.Join(r.debug.Selected, ","), synth.Key()),
	})

	// Dispatching
	var votes []Vote
	required := opts.MinBackends
	switch opts.Mode {
	case ModeSequential:
		if required > opts.Depth {
			required = opts.Depth
		}
		descs = chainCandidates(o.registry, descs, opts.Depth, o.forceDiversity)
		r.emit(Event{Type: EventDispatchStarted, Message: fmt.Sprintf("sequential depth=%d candidates=%d", opts.Depth, len(descs))})
		votes = r.dispatchSequential(ctx, descs, opts.Depth)
	default:
		r.emit(Event{Type: EventDispatchStarted, Message: fmt.Sprintf("parallel backends=%d", len(descs))})
		for _, out := range r.dispatchParallel(ctx, descs) {
			if vote, ok := r.record(out); ok {
				votes = append(votes, vote)
			}
		}
		// FallingBack
		if len(votes) < required && o.fallbackEnabled && !opts.DisableFallback {
			votes = r.runFallback(ctx, votes, required)
		}
	}

	if len(votes) < required {
		return nil, o.fail(r, r.insufficient(required, len(votes)))
	}

	// Synthesizing
	resp, err := r.synthesize(ctx, synth, votes)
	if err != nil {
		r.debug.Errors = append(r.debug.Errors, failureLine(outcome{desc: synth, err: err}))
		return nil, o.fail(r, &SynthesisError{Synthesizer: synth.Key(), Err: err, Debug: r.debug.clone()})
	}
	result := r.assemble(votes, resp, time.Since(start).Milliseconds())

	r.emit(Event{Type: EventCompleted, Message: fmt.Sprintf("votes=%d cost=%s", len(votes), result.TotalCost.String())})
	o.logger.Info("analysis completed",
		"run_id", r.id,
		"mode", string(opts.Mode),
		"task_type", string(opts.TaskType),
		"votes", len(votes),
		"fallback", r.debug.FallbackUsed,
		"synthesizer", synth.Key(),
		"total_cost", result.TotalCost.String(),
		"duration_ms", result.ProcessingTimeMs,
	)
	return result, nil
}

// normalize fills defaults and clamps the options for one call.
func (o *Orchestrator) normalize(opts ExecutionOptions, cls router.Classification) (ExecutionOptions, error) {
	if opts.TaskType == "" {
		opts.TaskType = o.defaults.TaskType
	}
	if opts.TaskType == "" {
		opts.TaskType = cls.TaskType
	}
	taskType, err := registry.ParseTaskType(string(opts.TaskType))
	if err != nil {
		return opts, err
	}
	opts.TaskType = taskType

	if opts.Mode == "" {
		opts.Mode = o.defaults.Mode
	}
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return opts, err
	}
	opts.Mode = mode

	if opts.MinBackends <= 0 {
		opts.MinBackends = o.defaults.MinBackends
	}
	if opts.MinBackends <= 0 {
		opts.MinBackends = DefaultMinBackends
	}
	if opts.MaxBackends <= 0 {
		opts.MaxBackends = o.defaults.MaxBackends
	}
	if opts.MaxBackends > 0 && opts.MaxBackends < opts.MinBackends {
		opts.MaxBackends = opts.MinBackends
	}

	if opts.Mode != ModeSequential {
		opts.Depth = 1
		return opts, nil
	}
	if opts.Depth <= 0 {
		opts.Depth = o.defaults.Depth
	}
	opts.Depth = ClampDepth(opts.Depth)
	return opts, nil
}

// ClampDepth bounds a sequential depth to [MinDepth, MaxDepth]; zero means DefaultDepth.
func ClampDepth(depth int) int {
	switch {
	case depth <= 0:
		return DefaultDepth
	case depth < MinDepth:
		return MinDepth
	case depth > MaxDepth:
		return MaxDepth
	default:
		return depth
	}
}

func (o *Orchestrator) fail(r *run, err error) error {
	o.logger.Error("analysis failed", "run_id", r.id, "error", err)
	r.emit(Event{Type: EventFailed, Err: err})
	return err
}
