// Package history records finished export jobs and, optionally, archives
// their artifacts.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/covgis/meters/internal/db"
	"github.com/covgis/meters/internal/export"
	"github.com/covgis/meters/internal/pubsub"
	"github.com/covgis/meters/internal/storage"
)

// Record is one finished export.
type Record struct {
	ID           int64
	RunID        string
	JobID        int
	Title        string
	Status       string
	URL          string
	ArtifactPath string
	SubmittedAt  time.Time
	FinishedAt   time.Time
}

const (
	EventExportRecorded pubsub.EventType = "history_export_recorded"
	EventExportArchived pubsub.EventType = "history_export_archived"
)

// Downloader fetches a finished artifact.
type Downloader interface {
	Download(ctx context.Context, rawURL string) (io.ReadCloser, string, error)
}

type Service interface {
	pubsub.Subscriber[Record]

	Record(ctx context.Context, job export.Job) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
}

type service struct {
	db     db.Querier
	runID  string
	store  *storage.Storage
	dl     Downloader
	broker *pubsub.Broker[Record]
}

// NewService returns a history service for one program run. With a nil
// store artifacts are not archived.
func NewService(q db.Querier, runID string, store *storage.Storage, dl Downloader) Service {
	return &service{
		db:     q,
		runID:  runID,
		store:  store,
		dl:     dl,
		broker: pubsub.NewBroker[Record](),
	}
}

// Record stores a terminal job. Archiving problems are returned after the
// record itself has been saved.
func (s *service) Record(ctx context.Context, job export.Job) (Record, error) {
	if !job.Status.Terminal() {
		return Record{}, fmt.Errorf("job %d is still %s", job.ID, job.Status)
	}
	dbRec, err := s.db.CreateExport(ctx, db.CreateExportParams{
		RunID:       s.runID,
		JobID:       int64(job.ID),
		Title:       job.Title,
		Status:      job.Status.String(),
		Url:         sql.NullString{String: job.URL, Valid: job.URL != ""},
		SubmittedAt: job.Submitted.UTC().Format(time.RFC3339Nano),
		FinishedAt:  job.Finished.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return Record{}, fmt.Errorf("db.CreateExport: %w", err)
	}
	rec := fromDBItem(dbRec)
	s.broker.Publish(EventExportRecorded, rec)

	if s.store == nil || s.dl == nil || job.Status != export.Complete {
		return rec, nil
	}
	key, err := s.archive(ctx, rec)
	if err != nil {
		return rec, fmt.Errorf("archive export %d: %w", job.ID, err)
	}
	if err := s.db.SetExportArtifact(ctx, db.SetExportArtifactParams{
		ArtifactPath: sql.NullString{String: key, Valid: true},
		ID:           rec.ID,
	}); err != nil {
		return rec, fmt.Errorf("db.SetExportArtifact: %w", err)
	}
	rec.ArtifactPath = key
	s.broker.Publish(EventExportArchived, rec)
	return rec, nil
}

func (s *service) archive(ctx context.Context, rec Record) (string, error) {
	body, contentType, err := s.dl.Download(ctx, rec.URL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	key := storage.ExportKey(s.runID, rec.JobID, extension(rec.URL))
	n, err := s.store.Put(ctx, key, body, contentType)
	if err != nil {
		return "", err
	}
	slog.Info("export archived", "job", rec.JobID, "key", key, "bytes", n)
	return key, nil
}

func extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(path.Ext(u.Path), ".")
}

func (s *service) List(ctx context.Context, limit int) ([]Record, error) {
	items, err := s.db.ListExports(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("db.ListExports: %w", err)
	}
	out := make([]Record, len(items))
	for i, item := range items {
		out[i] = fromDBItem(item)
	}
	return out, nil
}

func (s *service) Subscribe(ctx context.Context) <-chan pubsub.Event[Record] {
	return s.broker.Subscribe(ctx)
}

func fromDBItem(item db.Export) Record {
	rec := Record{
		ID:           item.ID,
		RunID:        item.RunID,
		JobID:        int(item.JobID),
		Title:        item.Title,
		Status:       item.Status,
		URL:          item.Url.String,
		ArtifactPath: item.ArtifactPath.String,
	}
	if t, err := time.Parse(time.RFC3339Nano, item.SubmittedAt); err == nil {
		rec.SubmittedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, item.FinishedAt); err == nil {
		rec.FinishedAt = t
	}
	return rec
}
