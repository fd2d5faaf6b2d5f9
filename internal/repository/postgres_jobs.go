package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"copro-edd-import/internal/domain"

	"go.uber.org/zap"
)

type PostgresJobRecorder struct {
	db         *sql.DB
	logger     *zap.Logger
	staleAfter time.Duration
	now        func() time.Time
}

func NewPostgresJobRecorder(db *sql.DB, logger *zap.Logger, staleAfter time.Duration) *PostgresJobRecorder {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &PostgresJobRecorder{db: db, logger: logger, staleAfter: staleAfter, now: time.Now}
}

// CreateJob inserts a running job. Running jobs of the same property older
// than staleAfter are failed first; a fresher one yields ErrJobRunning.
func (r *PostgresJobRecorder) CreateJob(ctx context.Context, job *domain.ImportJob) error {
	now := r.now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE import_jobs
		SET status = $4, ended_at = $5
		WHERE tenant_id = $1 AND copro_id = $2 AND status = 'running' AND started_at < $3
	`, job.TenantID, job.CoproID, now.Add(-r.staleAfter), string(domain.JobFailed), now)
	if err != nil {
		return wrapPQ("failed to expire stale jobs", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		r.logger.Warn("stale running import jobs marked failed",
			zap.String("tenant_id", job.TenantID),
			zap.String("copro_id", job.CoproID),
			zap.Int64("count", n),
		)
	}

	var id string
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO import_jobs (tenant_id, copro_id, status, edd_path, lot_ref_path, contacts_path, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text
	`, job.TenantID, job.CoproID, string(domain.JobRunning),
		job.Files.EDDPath, job.Files.LotRefPath, job.Files.ContactsPath, now,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrJobRunning
		}
		return wrapPQ("failed to create import job", err)
	}

	job.JobID = id
	job.Status = domain.JobRunning
	job.StartedAt = now
	return nil
}

func (r *PostgresJobRecorder) FinishJob(ctx context.Context, jobID string, status domain.JobStatus, stats *domain.ImportStats) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	statsArg, err := jsonArg(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE import_jobs SET status = $2, stats = $3, ended_at = $4
		WHERE id = $1
	`, jobID, string(status), statsArg, r.now().UTC())
	if err != nil {
		if isInvalidText(err) {
			return fmt.Errorf("import job %s: %w", jobID, ErrNotFound)
		}
		return wrapPQ("failed to finish import job", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("import job %s: %w", jobID, ErrNotFound)
	}
	return nil
}

func (r *PostgresJobRecorder) GetJob(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	var job domain.ImportJob
	var status string
	var stats []byte
	var endedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id::text, tenant_id, copro_id, status, edd_path, lot_ref_path, contacts_path,
		       stats, started_at, ended_at
		FROM import_jobs
		WHERE id = $1
	`, jobID).Scan(
		&job.JobID, &job.TenantID, &job.CoproID, &status,
		&job.Files.EDDPath, &job.Files.LotRefPath, &job.Files.ContactsPath,
		&stats, &job.StartedAt, &endedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, fmt.Errorf("import job %s: %w", jobID, ErrNotFound)
		}
		return nil, wrapPQ("failed to load import job", err)
	}

	job.Status = domain.JobStatus(status)
	if endedAt.Valid {
		t := endedAt.Time
		job.EndedAt = &t
	}
	if len(stats) > 0 {
		var s domain.ImportStats
		if err := json.Unmarshal(stats, &s); err != nil {
			return nil, fmt.Errorf("failed to decode stats of job %s: %w", jobID, err)
		}
		job.Stats = &s
	}
	return &job, nil
}
