package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Queries {
	t.Helper()
	conn, err := Connect(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return New(conn)
}

func TestLogs(t *testing.T) {
	q := openTest(t)
	ctx := t.Context()

	for i, ts := range []string{"2025-05-01T10:00:00Z", "2025-05-01T11:00:00Z"} {
		_, err := q.CreateLog(ctx, CreateLogParams{
			ID:        string(rune('a' + i)),
			Timestamp: ts,
			Level:     "info",
			Message:   "layer loaded",
		})
		require.NoError(t, err)
	}

	logs, err := q.ListAllLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "b", logs[0].ID)
	assert.NotEmpty(t, logs[0].CreatedAt)
	assert.False(t, logs[0].Attributes.Valid)
}

func TestExports(t *testing.T) {
	q := openTest(t)
	ctx := t.Context()

	rec, err := q.CreateExport(ctx, CreateExportParams{
		RunID:       "run-1",
		JobID:       1,
		Title:       "Water Meters 1",
		Status:      "complete",
		Url:         sql.NullString{String: "https://print.example/a.pdf", Valid: true},
		SubmittedAt: "2025-05-01T10:00:00Z",
		FinishedAt:  "2025-05-01T10:00:05Z",
	})
	require.NoError(t, err)
	assert.False(t, rec.ArtifactPath.Valid)

	require.NoError(t, q.SetExportArtifact(ctx, SetExportArtifactParams{
		ArtifactPath: sql.NullString{String: "exports/1.pdf", Valid: true},
		ID:           rec.ID,
	}))

	_, err = q.CreateExport(ctx, CreateExportParams{
		RunID: "run-1", JobID: 1, Title: "dup", Status: "error",
		SubmittedAt: "2025-05-01T10:00:00Z", FinishedAt: "2025-05-01T10:00:06Z",
	})
	assert.Error(t, err, "a job is recorded once per run")

	_, err = q.CreateExport(ctx, CreateExportParams{
		RunID: "run-1", JobID: 2, Title: "bad", Status: "pending",
		SubmittedAt: "2025-05-01T10:00:00Z", FinishedAt: "2025-05-01T10:00:06Z",
	})
	assert.Error(t, err, "only terminal jobs are recorded")

	list, err := q.ListExports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "exports/1.pdf", list[0].ArtifactPath.String)
}
