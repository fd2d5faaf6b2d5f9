package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/importer"

	"github.com/google/uuid"
)

// MemoryImportRepository: DB 未就绪时使用（本地联调 / CLI / 测试）
// - 与 Postgres 相同的自然键与幂等语义
// - IDs 使用 uuid
type MemoryImportRepository struct {
	mu sync.RWMutex

	ids   map[string]string // natural key -> id
	links map[string]bool   // composite key of link rows

	lots     map[string]domain.ParsedLot
	contacts map[string]domain.ParsedContact
	units    map[string]domain.Unit

	reviews []storedReview
	issues  []StoredIssue
}

type storedReview struct {
	tenantID string
	jobID    string
	review   domain.ReviewCase
}

// StoredIssue is a data issue as recorded for a job.
type StoredIssue struct {
	JobID    string
	TenantID string
	Issue    domain.DataIssue
}

func NewMemoryImportRepository() *MemoryImportRepository {
	return &MemoryImportRepository{
		ids:      map[string]string{},
		links:    map[string]bool{},
		lots:     map[string]domain.ParsedLot{},
		contacts: map[string]domain.ParsedContact{},
		units:    map[string]domain.Unit{},
	}
}

func key(parts ...string) string {
	return strings.Join(parts, "\x00")
}

// upsert must be called with mu held.
func (r *MemoryImportRepository) upsert(k string) (id string, created bool) {
	if id, ok := r.ids[k]; ok {
		return id, false
	}
	id = uuid.NewString()
	r.ids[k] = id
	return id, true
}

func (r *MemoryImportRepository) link(k string) bool {
	if r.links[k] {
		return false
	}
	r.links[k] = true
	return true
}

func (r *MemoryImportRepository) Persist(ctx context.Context, jobID string, res *importer.Result) (*PersistOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, c := res.TenantID, res.CoproID
	out := &PersistOutcome{ReviewIDs: []string{}}
	count := func(created bool) {
		if created {
			out.RowsCreated++
		}
	}

	addressIDs := map[string]string{}
	for _, a := range res.Addresses {
		id, _ := r.upsert(key("address", t, a.Label))
		addressIDs[a.Label] = id
		r.link(key("copro_address", t, c, id))
	}
	parcelIDs := map[string]string{}
	for _, ref := range res.CadastralRefs {
		id, _ := r.upsert(key("parcel", t, ref))
		parcelIDs[ref] = id
		r.link(key("copro_parcel", t, c, id))
	}

	lotIDs := map[string]string{}
	for _, l := range res.Lots {
		k := key("lot", t, c, l.LotNumber)
		id, created := r.upsert(k)
		r.lots[k] = l
		lotIDs[l.LotNumber] = id
		out.LotsUpserted++
		count(created)
	}

	contactIDs := map[string]string{}
	for _, ct := range res.Contacts {
		k := key("contact", t, ct.ExternalRef)
		id, created := r.upsert(k)
		r.contacts[k] = ct
		contactIDs[ct.ExternalRef] = id
		out.ContactsUpserted++
		count(created)
	}

	for _, u := range res.Units {
		k := key("unit", t, c, u.OwnerRef, u.MainLotNumber)
		unitID, created := r.upsert(k)
		r.units[k] = u
		out.UnitsUpserted++
		count(created)

		for _, m := range u.Lots {
			lotID, ok := lotIDs[m.LotNumber]
			if !ok {
				return nil, fmt.Errorf("unit %s/%s references unknown lot %q", u.OwnerRef, u.MainLotNumber, m.LotNumber)
			}
			count(r.link(key("unit_lot", unitID, lotID)))
		}
		if u.OwnerContactRef != nil {
			if contactID, ok := contactIDs[*u.OwnerContactRef]; ok {
				count(r.link(key("unit_owner", unitID, contactID)))
			}
		}
		if u.Address != nil {
			if addressID, ok := addressIDs[u.Address.Label]; ok {
				count(r.link(key("unit_address", unitID, addressID)))
			}
		}
		for _, ref := range u.Parcels {
			if parcelID, ok := parcelIDs[ref]; ok {
				count(r.link(key("unit_parcel", unitID, parcelID)))
			}
		}
	}

	for _, rc := range res.Reviews {
		rc.ID = uuid.NewString()
		r.reviews = append(r.reviews, storedReview{tenantID: t, jobID: jobID, review: rc})
		out.ReviewIDs = append(out.ReviewIDs, rc.ID)
	}
	return out, nil
}

func (r *MemoryImportRepository) InsertIssues(ctx context.Context, jobID, tenantID string, issues []domain.DataIssue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, is := range issues {
		r.issues = append(r.issues, StoredIssue{JobID: jobID, TenantID: tenantID, Issue: is})
	}
	return nil
}

func (r *MemoryImportRepository) ListReviews(ctx context.Context, tenantID, jobID string) ([]domain.ReviewCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.ReviewCase{}
	for _, s := range r.reviews {
		if s.tenantID == tenantID && s.jobID == jobID {
			out = append(out, s.review)
		}
	}
	return out, nil
}

// Issues returns the issues recorded for a job.
func (r *MemoryImportRepository) Issues(jobID string) []StoredIssue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []StoredIssue{}
	for _, s := range r.issues {
		if s.JobID == jobID {
			out = append(out, s)
		}
	}
	return out
}

// Counts reports the number of stored lots, contacts and units.
func (r *MemoryImportRepository) Counts() (lots, contacts, units int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lots), len(r.contacts), len(r.units)
}

// MemoryJobRecorder keeps jobs in memory with the same running-job guard as Postgres.
type MemoryJobRecorder struct {
	mu         sync.RWMutex
	jobs       map[string]*domain.ImportJob
	staleAfter time.Duration
	now        func() time.Time
}

func NewMemoryJobRecorder() *MemoryJobRecorder {
	return &MemoryJobRecorder{
		jobs:       map[string]*domain.ImportJob{},
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
}

func (r *MemoryJobRecorder) CreateJob(ctx context.Context, job *domain.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	for _, j := range r.jobs {
		if j.TenantID != job.TenantID || j.CoproID != job.CoproID || j.Status != domain.JobRunning {
			continue
		}
		if j.StartedAt.Before(now.Add(-r.staleAfter)) {
			j.Status = domain.JobFailed
			ended := now
			j.EndedAt = &ended
			continue
		}
		return ErrJobRunning
	}

	job.JobID = uuid.NewString()
	job.Status = domain.JobRunning
	job.StartedAt = now
	stored := *job
	r.jobs[job.JobID] = &stored
	return nil
}

func (r *MemoryJobRecorder) FinishJob(ctx context.Context, jobID string, status domain.JobStatus, stats *domain.ImportStats) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[jobID]
	if !ok {
		return fmt.Errorf("import job %s: %w", jobID, ErrNotFound)
	}
	ended := r.now().UTC()
	j.Status = status
	j.EndedAt = &ended
	if stats != nil {
		s := *stats
		j.Stats = &s
	}
	return nil
}

func (r *MemoryJobRecorder) GetJob(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("import job %s: %w", jobID, ErrNotFound)
	}
	out := *j
	return &out, nil
}
