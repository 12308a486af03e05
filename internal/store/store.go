// Package store persists run records and per-point audit rows.
package store

import (
	"context"

	"github.com/geoandina/hazmap/internal/model"
)

// RunFilter narrows ListRuns results.
type RunFilter struct {
	Status model.RunStatus
	Region string
	Limit  int
	Offset int
}

// Store is the run registry. Runs are written at start, finalized exactly
// once as completed or failed, and audited per input point.
type Store interface {
	Migrate(ctx context.Context) error

	CreateRun(ctx context.Context, region string, params model.RunParams) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summaryJSON string) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	RecordPointAudits(ctx context.Context, runID string, audits []model.PointAudit) error
	GetPointAudits(ctx context.Context, runID string) ([]model.PointAudit, error)

	Close() error
}
