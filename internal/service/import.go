// Package service drives the reconciliation core with its collaborators:
// blob retrieval, decoding, persistence, job bookkeeping, caching and
// notification.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/importer"
	"copro-edd-import/internal/notify"
	"copro-edd-import/internal/repository"
	"copro-edd-import/internal/sheet"
	"copro-edd-import/internal/storage"
	"copro-edd-import/internal/store"

	"go.uber.org/zap"
)

// cleanupTimeout bounds the bookkeeping done after a run, even when the
// request context is gone.
const cleanupTimeout = 5 * time.Second

type Options struct {
	Source   storage.Source
	Repo     repository.ImportRepository
	Jobs     repository.JobRecorder
	Cache    *store.JobCache
	Lock     *store.ImportLock
	Notifier notify.Notifier
	Logger   *zap.Logger
}

type ImportService struct {
	source   storage.Source
	repo     repository.ImportRepository
	jobs     repository.JobRecorder
	cache    *store.JobCache
	lock     *store.ImportLock
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewImportService(opts Options) *ImportService {
	n := opts.Notifier
	if n == nil {
		n = notify.Nop{}
	}
	return &ImportService{
		source:   opts.Source,
		repo:     opts.Repo,
		jobs:     opts.Jobs,
		cache:    opts.Cache,
		lock:     opts.Lock,
		notifier: n,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// Run executes one import. The response is never nil; the error tells the
// caller which status to answer with (ErrInvalidRequest, ErrImportInProgress,
// anything else is internal).
func (s *ImportService) Run(ctx context.Context, req ImportRequest) (*ImportResponse, error) {
	if err := req.Validate(); err != nil {
		return invalidRequestResponse(err), err
	}

	release, ok, err := s.lock.Acquire(ctx, req.TenantID, req.CoproID)
	if err != nil {
		s.logger.Error("import lock unavailable", zap.Error(err))
		return internalErrorResponse(nil), err
	}
	if !ok {
		return inProgressResponse(), ErrImportInProgress
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if err := release(rctx); err != nil {
			s.logger.Warn("failed to release import lock", zap.Error(err))
		}
	}()

	job := &domain.ImportJob{TenantID: req.TenantID, CoproID: req.CoproID, Files: req.Files}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		if errors.Is(err, repository.ErrJobRunning) {
			return inProgressResponse(), ErrImportInProgress
		}
		s.logger.Error("failed to create import job", zap.Error(err))
		return internalErrorResponse(nil), err
	}

	logger := s.logger.With(
		zap.String("job_id", job.JobID),
		zap.String("tenant_id", job.TenantID),
		zap.String("copro_id", job.CoproID),
	)
	logger.Info("import started")

	resp, snap, err := s.execute(ctx, job, req)
	if err != nil {
		logger.Error("import failed", zap.Error(err))
		s.abort(ctx, job, logger)
		return internalErrorResponse(&job.JobID), err
	}

	s.publish(ctx, snap, logger)
	logger.Info("import finished",
		zap.String("status", string(resp.Status)),
		zap.Int("reviews", len(resp.Reviews)),
	)
	return resp, nil
}

func (s *ImportService) execute(ctx context.Context, job *domain.ImportJob, req ImportRequest) (*ImportResponse, jobSnapshot, error) {
	in, err := s.load(ctx, req)
	if err != nil {
		return nil, jobSnapshot{}, err
	}

	res := importer.Reconcile(in)

	if res.Status == domain.JobFailed {
		if err := s.repo.InsertIssues(ctx, job.JobID, job.TenantID, res.Issues); err != nil {
			return nil, jobSnapshot{}, fmt.Errorf("failed to save data issues: %w", err)
		}
		if err := s.jobs.FinishJob(ctx, job.JobID, domain.JobFailed, nil); err != nil {
			return nil, jobSnapshot{}, fmt.Errorf("failed to finish import job: %w", err)
		}
		s.markEnded(job, domain.JobFailed, nil)
		snap := jobSnapshot{Job: *job, Reviews: []domain.ReviewCase{}, Errors: res.Errors}
		return failedResponse(&job.JobID, res.Errors...), snap, nil
	}

	out, err := s.repo.Persist(ctx, job.JobID, res)
	if err != nil {
		return nil, jobSnapshot{}, fmt.Errorf("failed to persist import result: %w", err)
	}
	if len(out.ReviewIDs) != len(res.Reviews) {
		return nil, jobSnapshot{}, fmt.Errorf("persisted %d reviews, expected %d", len(out.ReviewIDs), len(res.Reviews))
	}
	for i := range res.Reviews {
		res.Reviews[i].ID = out.ReviewIDs[i]
	}

	stats := res.Stats
	stats.LotsUpserted = out.LotsUpserted
	stats.ContactsUpserted = out.ContactsUpserted
	stats.UnitsUpserted = out.UnitsUpserted
	stats.RowsCreated = out.RowsCreated

	if err := s.repo.InsertIssues(ctx, job.JobID, job.TenantID, res.Issues); err != nil {
		return nil, jobSnapshot{}, fmt.Errorf("failed to save data issues: %w", err)
	}
	if err := s.jobs.FinishJob(ctx, job.JobID, res.Status, &stats); err != nil {
		return nil, jobSnapshot{}, fmt.Errorf("failed to finish import job: %w", err)
	}
	s.markEnded(job, res.Status, &stats)

	resp := &ImportResponse{
		JobID:   &job.JobID,
		Status:  res.Status,
		Stats:   &stats,
		Reviews: res.ReviewSummaries(),
		Errors:  []domain.BlockingError{},
	}
	return resp, jobSnapshot{Job: *job, Reviews: res.Reviews, Errors: []domain.BlockingError{}}, nil
}

// load downloads and decodes the three workbooks.
func (s *ImportService) load(ctx context.Context, req ImportRequest) (importer.Input, error) {
	files := []struct {
		name string
		path string
	}{
		{"EDD", req.Files.EDDPath},
		{"lot_ref", req.Files.LotRefPath},
		{"contacts", req.Files.ContactsPath},
	}

	sets := make([]sheet.Dataset, len(files))
	for i, f := range files {
		data, err := s.source.Fetch(ctx, f.path)
		if err != nil {
			return importer.Input{}, fmt.Errorf("failed to download %s file: %w", f.name, err)
		}
		ds, err := sheet.Decode(data)
		if err != nil {
			return importer.Input{}, fmt.Errorf("failed to read %s file: %w", f.name, err)
		}
		sets[i] = ds
	}

	return importer.Input{
		TenantID:      req.TenantID,
		CoproID:       req.CoproID,
		Lots:          sets[0],
		OwnerRefs:     sets[1],
		Contacts:      sets[2],
		Addresses:     req.Addresses,
		CadastralRefs: req.CadastralRefs,
	}, nil
}

func (s *ImportService) markEnded(job *domain.ImportJob, status domain.JobStatus, stats *domain.ImportStats) {
	ended := s.now().UTC()
	job.Status = status
	job.EndedAt = &ended
	job.Stats = stats
}

// abort marks the job failed after an internal error.
func (s *ImportService) abort(ctx context.Context, job *domain.ImportJob, logger *zap.Logger) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := s.jobs.FinishJob(cctx, job.JobID, domain.JobFailed, nil); err != nil {
		logger.Error("failed to mark import job failed", zap.Error(err))
	}
	s.markEnded(job, domain.JobFailed, nil)
	s.publish(cctx, jobSnapshot{
		Job:     *job,
		Reviews: []domain.ReviewCase{},
		Errors:  internalErrorResponse(nil).Errors,
	}, logger)
}

// publish caches the snapshot and announces the end of the run. Both are
// best effort.
func (s *ImportService) publish(ctx context.Context, snap jobSnapshot, logger *zap.Logger) {
	if err := s.cache.Put(ctx, snap.Job.JobID, snap); err != nil {
		logger.Warn("failed to cache job snapshot", zap.Error(err))
	}
	ev := notify.JobEvent{
		JobID:    snap.Job.JobID,
		TenantID: snap.Job.TenantID,
		CoproID:  snap.Job.CoproID,
		Status:   snap.Job.Status,
		Stats:    snap.Job.Stats,
	}
	if err := s.notifier.JobFinished(ctx, ev); err != nil {
		logger.Warn("failed to publish job event", zap.Error(err))
	}
}

// GetJob serves the cached snapshot, falling back to the job table.
func (s *ImportService) GetJob(ctx context.Context, jobID string) (*JobView, error) {
	var snap jobSnapshot
	err := s.cache.Get(ctx, jobID, &snap)
	if err == nil {
		return snap.view(), nil
	}
	if !errors.Is(err, store.ErrMiss) {
		s.logger.Warn("job cache read failed", zap.String("job_id", jobID), zap.Error(err))
	}

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	reviews, err := s.repo.ListReviews(ctx, job.TenantID, jobID)
	if err != nil {
		return nil, err
	}
	return &JobView{ImportJob: *job, Reviews: summaries(reviews), Errors: []domain.BlockingError{}}, nil
}

// ReviewsWorkbook exports the review cases of a job as xlsx.
func (s *ImportService) ReviewsWorkbook(ctx context.Context, jobID string) ([]byte, error) {
	var snap jobSnapshot
	reviews := []domain.ReviewCase{}
	if err := s.cache.Get(ctx, jobID, &snap); err == nil {
		reviews = snap.Reviews
	} else {
		job, err := s.jobs.GetJob(ctx, jobID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrJobNotFound
			}
			return nil, err
		}
		reviews, err = s.repo.ListReviews(ctx, job.TenantID, jobID)
		if err != nil {
			return nil, err
		}
	}
	return sheet.ExportReviews(reviews)
}
