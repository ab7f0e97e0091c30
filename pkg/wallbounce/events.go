package wallbounce

import (
	"context"
	"log/slog"
	"time"
)

// EventType names a transition in one call.
type EventType string

const (
	EventClassified       EventType = "classified"
	EventSelected         EventType = "selected"
	EventDispatchStarted  EventType = "dispatch_started"
	EventBackendStarted   EventType = "backend_started"
	EventBackendSucceeded EventType = "backend_succeeded"
	EventBackendFailed    EventType = "backend_failed"
	EventFallbackStarted  EventType = "fallback_started"
	EventStepCompleted    EventType = "step_completed"
	EventSynthesisStarted EventType = "synthesis_started"
	EventCompleted        EventType = "completed"
	EventFailed           EventType = "failed"
)

// Event is published to an EventSink.
type Event struct {
	Type    EventType
	RunID   string
	Time    time.Time
	Backend string
	Step    int
	Message string
	Err     error
}

// EventSink observes a call. Parallel dispatch publishes from several
// goroutines, so implementations must be safe for concurrent use.
type EventSink interface {
	Publish(Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

// Publish calls f.
func (f SinkFunc) Publish(e Event) { f(e) }

type logSink struct {
	logger *slog.Logger
}

// NewLogSink publishes events as debug log records.
func NewLogSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &logSink{logger: logger}
}

func (s *logSink) Publish(e Event) {
	attrs := []slog.Attr{slog.String("event", string(e.Type)), slog.String("run_id", e.RunID)}
	if e.Backend != "" {
		attrs = append(attrs, slog.String("backend", e.Backend))
	}
	if e.Step > 0 {
		attrs = append(attrs, slog.Int("step", e.Step))
	}
	if e.Message != "" {
		attrs = append(attrs, slog.String("detail", e.Message))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "wallbounce event", attrs...)
}
