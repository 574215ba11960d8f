package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/akademia-app/exam-api/internal/observability"
)

// Attempt lifecycle event kinds.
const (
	EventAttemptStarted     = "attempt.started"
	EventAttemptAnswerSaved = "attempt.answer_saved"
	EventAttemptSubmitted   = "attempt.submitted"
	EventAttemptGraded      = "attempt.graded"
)

// AttemptEvent describes one attempt lifecycle transition. Events are
// best-effort: a failed publish never fails the operation that produced it.
type AttemptEvent struct {
	Kind         string     `json:"kind"`
	ExamID       uuid.UUID  `json:"exam_id"`
	AssignmentID uuid.UUID  `json:"assignment_id"`
	AttemptID    uuid.UUID  `json:"attempt_id"`
	StudentID    uuid.UUID  `json:"student_id"`
	State        string     `json:"state"`
	TotalScore   *float64   `json:"total_score,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// EventSink receives attempt lifecycle events.
type EventSink interface {
	Publish(ctx context.Context, event AttemptEvent)
}

// NATSEventPublisher forwards attempt events to NATS for the notification
// subsystem to consume.
type NATSEventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSEventPublisher builds the publisher. The subject base is suffixed
// with the event kind, e.g. akademia.exam.attempt.submitted.
func NewNATSEventPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSEventPublisher {
	return &NATSEventPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish sends the event; failures are logged and swallowed.
func (p *NATSEventPublisher) Publish(_ context.Context, event AttemptEvent) {
	if p == nil || p.conn == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("kind", event.Kind).Msg("failed to encode attempt event")
		return
	}

	subject := p.subject + "." + event.Kind
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish attempt event")
	}
}

// MetricsEventSink counts attempt lifecycle transitions in Prometheus.
type MetricsEventSink struct{}

// Publish increments the transition counter for the event kind.
func (MetricsEventSink) Publish(_ context.Context, event AttemptEvent) {
	observability.AttemptEvents().WithLabelValues(event.Kind).Inc()
}

// MultiEventSink fans an event out to several sinks.
type MultiEventSink []EventSink

// Publish forwards the event to every non-nil sink.
func (m MultiEventSink) Publish(ctx context.Context, event AttemptEvent) {
	for _, sink := range m {
		if sink != nil {
			sink.Publish(ctx, event)
		}
	}
}
