package status

import (
	"time"

	"github.com/covgis/meters/internal/pubsub"
)

// Level represents the severity level of a status message
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelDebug Level = "debug"
)

const EventStatusPublished pubsub.EventType = "status_published"

// StatusMessage is a transient line shown in the TUI status bar.
type StatusMessage struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Service interface {
	pubsub.Subscriber[StatusMessage]
	Info(message string)
	Warn(message string)
	Error(message string)
	Debug(message string)
}

type service struct {
	*pubsub.Broker[StatusMessage]
	now func() time.Time
}

func (s *service) Info(message string)  { s.publish(LevelInfo, message) }
func (s *service) Warn(message string)  { s.publish(LevelWarn, message) }
func (s *service) Error(message string) { s.publish(LevelError, message) }
func (s *service) Debug(message string) { s.publish(LevelDebug, message) }

func (s *service) publish(level Level, message string) {
	s.Publish(EventStatusPublished, StatusMessage{
		Level:     level,
		Message:   message,
		Timestamp: s.now(),
	})
}

// NewService creates a status service backed by its own broker.
func NewService() Service {
	return &service{
		Broker: pubsub.NewBroker[StatusMessage](),
		now:    time.Now,
	}
}
