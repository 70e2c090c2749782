// Package logging persists slog records to the database and republishes
// them for the logs page.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/covgis/meters/internal/db"
	"github.com/covgis/meters/internal/pubsub"
)

type Log struct {
	ID         string
	Timestamp  time.Time
	Level      string
	Message    string
	Attributes map[string]string
	CreatedAt  time.Time
}

const (
	EventLogCreated pubsub.EventType = "log_created"
)

type Service interface {
	pubsub.Subscriber[Log]

	Create(ctx context.Context, timestamp time.Time, level, message string, attributes map[string]string) error
	ListAll(ctx context.Context, limit int) ([]Log, error)
}

type service struct {
	db     db.Querier
	broker *pubsub.Broker[Log]
}

var (
	globalMu             sync.RWMutex
	globalLoggingService *service
)

func NewService(q db.Querier) Service {
	return newService(q)
}

func newService(q db.Querier) *service {
	return &service{db: q, broker: pubsub.NewBroker[Log]()}
}

func InitService(dbConn *sql.DB) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLoggingService != nil {
		return fmt.Errorf("logging service already initialized")
	}
	globalLoggingService = newService(db.New(dbConn))
	return nil
}

func GetService() Service {
	s := current()
	if s == nil {
		panic("logging service not initialized. Call logging.InitService() first.")
	}
	return s
}

func current() *service {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLoggingService
}

func (s *service) Create(ctx context.Context, timestamp time.Time, level, message string, attributes map[string]string) error {
	if level == "" {
		level = "info"
	}

	var attributesJSON sql.NullString
	if len(attributes) > 0 {
		attributesBytes, err := json.Marshal(attributes)
		if err != nil {
			return fmt.Errorf("failed to marshal log attributes: %w", err)
		}
		attributesJSON = sql.NullString{String: string(attributesBytes), Valid: true}
	}

	dbLog, err := s.db.CreateLog(ctx, db.CreateLogParams{
		ID:         uuid.New().String(),
		Timestamp:  timestamp.UTC().Format(time.RFC3339Nano),
		Level:      level,
		Message:    message,
		Attributes: attributesJSON,
	})
	if err != nil {
		return fmt.Errorf("db.CreateLog: %w", err)
	}

	s.broker.Publish(EventLogCreated, fromDBItem(dbLog))
	return nil
}

func (s *service) ListAll(ctx context.Context, limit int) ([]Log, error) {
	dbLogs, err := s.db.ListAllLogs(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("db.ListAllLogs: %w", err)
	}
	logs := make([]Log, len(dbLogs))
	for i, item := range dbLogs {
		logs[i] = fromDBItem(item)
	}
	return logs, nil
}

func (s *service) Subscribe(ctx context.Context) <-chan pubsub.Event[Log] {
	return s.broker.Subscribe(ctx)
}

func fromDBItem(item db.Log) Log {
	log := Log{
		ID:         item.ID,
		Level:      item.Level,
		Message:    item.Message,
		Attributes: make(map[string]string),
	}

	if ts, err := time.Parse(time.RFC3339Nano, item.Timestamp); err == nil {
		log.Timestamp = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, item.CreatedAt); err == nil {
		log.CreatedAt = ts
	}

	if item.Attributes.Valid && item.Attributes.String != "" {
		if err := json.Unmarshal([]byte(item.Attributes.String), &log.Attributes); err != nil {
			slog.Error("Failed to unmarshal log attributes", "log_id", item.ID, "error", err)
			log.Attributes = make(map[string]string)
		}
	}
	return log
}

func Create(ctx context.Context, timestamp time.Time, level, message string, attributes map[string]string) error {
	return GetService().Create(ctx, timestamp, level, message, attributes)
}

func ListAll(ctx context.Context, limit int) ([]Log, error) {
	return GetService().ListAll(ctx, limit)
}

func Subscribe(ctx context.Context) <-chan pubsub.Event[Log] {
	return GetService().Subscribe(ctx)
}
