package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects published on the message bus.
const (
	EventProgressUpdated  = "progress.updated"
	EventSubmissionGraded = "submission.graded"
	EventQuizAttempted    = "quiz.attempted"
	EventCourseEnrolled   = "course.enrolled"
)

// EventPublisher emits domain events for downstream consumers (notification
// fan-out, analytics). Publishing is best-effort: failures are logged, never
// surfaced to the request.
type EventPublisher interface {
	Publish(event string, payload interface{})
}

type natsPublisher struct {
	conn        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
	now         func() time.Time
}

type eventEnvelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

// NewEventPublisher constructs a NATS-backed publisher. A nil connection
// yields a publisher that drops every event, so callers never need nil
// checks.
func NewEventPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) EventPublisher {
	base := strings.TrimSuffix(strings.TrimSpace(subjectBase), ".")

	return &natsPublisher{
		conn:        conn,
		subjectBase: base,
		logger:      logger.With().Str("component", "event_publisher").Logger(),
		now:         time.Now,
	}
}

func (p *natsPublisher) Publish(event string, payload interface{}) {
	if p.conn == nil {
		return
	}

	subject := event
	if p.subjectBase != "" {
		subject = p.subjectBase + "." + event
	}

	body, err := json.Marshal(eventEnvelope{
		Event:   event,
		Payload: payload,
		SentAt:  p.now().UTC(),
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("event", event).Msg("failed to encode event payload")
		return
	}

	if err := p.conn.Publish(subject, body); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
