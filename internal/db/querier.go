package db

import (
	"context"
)

type Querier interface {
	CreateExport(ctx context.Context, arg CreateExportParams) (Export, error)
	CreateLog(ctx context.Context, arg CreateLogParams) (Log, error)
	ListAllLogs(ctx context.Context, limit int64) ([]Log, error)
	ListExports(ctx context.Context, limit int64) ([]Export, error)
	SetExportArtifact(ctx context.Context, arg SetExportArtifactParams) error
}

var _ Querier = (*Queries)(nil)
