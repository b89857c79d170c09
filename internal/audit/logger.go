package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/org/assetvault/pkg/models"
)

// Sink persists audit events.
type Sink interface {
	InsertAuditEvent(ctx context.Context, e *models.AuditEvent) error
}

// Logger writes structured audit events.
type Logger struct {
	sink Sink
	log  zerolog.Logger
}

// NewLogger creates an audit Logger.
func NewLogger(sink Sink, log zerolog.Logger) *Logger {
	return &Logger{sink: sink, log: log}
}

// LogEvent records one audit event. Secret values must NEVER be passed here,
// only metadata. Fire and forget: a failed write is logged but never fails
// the calling operation.
func (l *Logger) LogEvent(ctx context.Context, e *models.AuditEvent) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := l.sink.InsertAuditEvent(ctx, e); err != nil {
		l.log.Error().Err(err).
			Str("event_type", e.EventType).
			Int64("user_id", e.UserID).
			Msg("audit write failed")
	}
}

// Event is a convenience wrapper composing and logging one event.
func (l *Logger) Event(ctx context.Context, eventType string, actor models.Principal, description string, metadata map[string]any) {
	l.LogEvent(ctx, &models.AuditEvent{
		EventType:   eventType,
		UserID:      actor.UserID,
		Username:    actor.Username,
		Description: description,
		Metadata:    metadata,
	})
}
