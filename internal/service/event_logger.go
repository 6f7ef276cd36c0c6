package service

import (
	"encoding/json"
	"log"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"

	"github.com/google/uuid"
)

// Notifier pushes events to connected admin consoles.
type Notifier interface {
	Publish(eventType string, payload interface{})
}

// EventLogger is the audit trail. Log never returns an error: a failed write
// is reported to the process log and dropped so it cannot fail the business
// operation that triggered it.
type EventLogger interface {
	Log(eventType model.EventType, message string, metadata map[string]interface{}, userID, adminID *uuid.UUID)
	List(filter repository.EventLogFilter) ([]model.EventLog, int64, error)
}

type eventLogger struct {
	events   repository.EventLogRepository
	notifier Notifier
}

func NewEventLogger(events repository.EventLogRepository, notifier Notifier) EventLogger {
	return &eventLogger{events: events, notifier: notifier}
}

func (l *eventLogger) Log(eventType model.EventType, message string, metadata map[string]interface{}, userID, adminID *uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: event log %s panicked: %v", eventType, r)
		}
	}()

	meta := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			meta = string(b)
		}
	}

	entry := &model.EventLog{
		EventType: eventType,
		Message:   message,
		Metadata:  meta,
		UserID:    userID,
		AdminID:   adminID,
	}
	if err := l.events.Create(entry); err != nil {
		log.Printf("Warning: failed to write event log %s (%s): %v", eventType, message, err)
	}

	if l.notifier != nil {
		l.notifier.Publish(string(eventType), map[string]interface{}{
			"message":  message,
			"metadata": metadata,
			"user_id":  userID,
			"admin_id": adminID,
		})
	}
}

func (l *eventLogger) List(filter repository.EventLogFilter) ([]model.EventLog, int64, error) {
	return l.events.FindAll(filter)
}
