package db

import (
	"context"
	"database/sql"
)

const createExport = `-- name: CreateExport :one
INSERT INTO exports (
    run_id,
    job_id,
    title,
    status,
    url,
    submitted_at,
    finished_at
) VALUES (
    ?, ?, ?, ?, ?, ?, ?
) RETURNING id, run_id, job_id, title, status, url, artifact_path, submitted_at, finished_at
`

type CreateExportParams struct {
	RunID       string         `json:"run_id"`
	JobID       int64          `json:"job_id"`
	Title       string         `json:"title"`
	Status      string         `json:"status"`
	Url         sql.NullString `json:"url"`
	SubmittedAt string         `json:"submitted_at"`
	FinishedAt  string         `json:"finished_at"`
}

func (q *Queries) CreateExport(ctx context.Context, arg CreateExportParams) (Export, error) {
	row := q.db.QueryRowContext(ctx, createExport,
		arg.RunID,
		arg.JobID,
		arg.Title,
		arg.Status,
		arg.Url,
		arg.SubmittedAt,
		arg.FinishedAt,
	)
	var i Export
	err := row.Scan(
		&i.ID,
		&i.RunID,
		&i.JobID,
		&i.Title,
		&i.Status,
		&i.Url,
		&i.ArtifactPath,
		&i.SubmittedAt,
		&i.FinishedAt,
	)
	return i, err
}

const listExports = `-- name: ListExports :many
SELECT id, run_id, job_id, title, status, url, artifact_path, submitted_at, finished_at FROM exports
ORDER BY finished_at DESC, id DESC
LIMIT ?
`

func (q *Queries) ListExports(ctx context.Context, limit int64) ([]Export, error) {
	rows, err := q.db.QueryContext(ctx, listExports, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Export{}
	for rows.Next() {
		var i Export
		if err := rows.Scan(
			&i.ID,
			&i.RunID,
			&i.JobID,
			&i.Title,
			&i.Status,
			&i.Url,
			&i.ArtifactPath,
			&i.SubmittedAt,
			&i.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setExportArtifact = `-- name: SetExportArtifact :exec
UPDATE exports
SET artifact_path = ?
WHERE id = ?
`

type SetExportArtifactParams struct {
	ArtifactPath sql.NullString `json:"artifact_path"`
	ID           int64          `json:"id"`
}

func (q *Queries) SetExportArtifact(ctx context.Context, arg SetExportArtifactParams) error {
	_, err := q.db.ExecContext(ctx, setExportArtifact, arg.ArtifactPath, arg.ID)
	return err
}
