// Package store persists extraction runs, their phases, accuracy reports,
// and the OCR page cache. Two drivers are provided: SQLite for single-host
// use and Postgres for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/sells-group/finextract/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status     model.RunStatus `json:"status,omitempty"`
	SourceFile string          `json:"source_file,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the extraction pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, doc model.Document) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Phases
	CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error)
	CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error

	// Accuracy reports
	SaveAccuracyReport(ctx context.Context, report *model.AccuracyReport) error
	ListAccuracyReports(ctx context.Context, sourceFile string, limit int) ([]model.AccuracyReport, error)

	// OCR page cache
	GetCachedPages(ctx context.Context, sourceFile string) (*model.PageCache, error)
	SetCachedPages(ctx context.Context, sourceFile string, pages []model.PageText, ttl time.Duration) error
	DeleteExpiredPages(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
