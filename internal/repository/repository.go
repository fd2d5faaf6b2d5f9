// Package repository persists reconciliation results and job bookkeeping.
package repository

import (
	"context"
	"errors"
	"time"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/importer"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrJobRunning: another run for the same tenant and property has not finished.
	ErrJobRunning = errors.New("import job already running")
)

// PersistOutcome counts what Persist wrote.
type PersistOutcome struct {
	LotsUpserted     int
	ContactsUpserted int
	UnitsUpserted    int
	// RowsCreated counts new lot, contact, unit and unit member rows;
	// rows that already existed under their natural key are not counted.
	RowsCreated int
	// ReviewIDs is aligned with the result's review cases.
	ReviewIDs []string
}

// ImportRepository writes a reconciliation result. Lots, contacts, units,
// addresses and parcels are upserted by natural key and unit member links are
// idempotent, so persisting the same result twice creates no new row.
// Review cases and data issues are plain inserts.
type ImportRepository interface {
	Persist(ctx context.Context, jobID string, res *importer.Result) (*PersistOutcome, error)
	InsertIssues(ctx context.Context, jobID, tenantID string, issues []domain.DataIssue) error
	ListReviews(ctx context.Context, tenantID, jobID string) ([]domain.ReviewCase, error)
}

// JobRecorder tracks the lifecycle of import jobs.
type JobRecorder interface {
	// CreateJob stores a running job and fills job.JobID.
	CreateJob(ctx context.Context, job *domain.ImportJob) error
	FinishJob(ctx context.Context, jobID string, status domain.JobStatus, stats *domain.ImportStats) error
	GetJob(ctx context.Context, jobID string) (*domain.ImportJob, error)
}

// running jobs older than this are considered abandoned
const DefaultStaleAfter = 30 * time.Minute
