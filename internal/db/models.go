package db

import "database/sql"

type Log struct {
	ID         string         `json:"id"`
	Timestamp  string         `json:"timestamp"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Attributes sql.NullString `json:"attributes"`
	CreatedAt  string         `json:"created_at"`
}

type Export struct {
	ID           int64          `json:"id"`
	RunID        string         `json:"run_id"`
	JobID        int64          `json:"job_id"`
	Title        string         `json:"title"`
	Status       string         `json:"status"`
	Url          sql.NullString `json:"url"`
	ArtifactPath sql.NullString `json:"artifact_path"`
	SubmittedAt  string         `json:"submitted_at"`
	FinishedAt   string         `json:"finished_at"`
}
