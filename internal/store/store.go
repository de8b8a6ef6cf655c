// Package store persists the pipeline run ledger: one row per invocation
// and one row per stage, so operators can see what ran, what it wrote,
// and where a failed run stopped.
package store

import (
	"context"
	"time"

	"github.com/open-asset-data/asset-pipeline/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the run ledger.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, runErr string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stages
	StartStage(ctx context.Context, runID, stage string) (*model.StageResult, error)
	FinishStage(ctx context.Context, stageID string, status model.RunStatus, rowsWritten int, elapsed time.Duration, stageErr string) error
	ListStages(ctx context.Context, runID string) ([]model.StageResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
