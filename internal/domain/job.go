package domain

import "time"

// JobStatus 导入任务状态：running -> failed | completed | completed_with_review_required
type JobStatus string

const (
	JobRunning                     JobStatus = "running"
	JobCompleted                   JobStatus = "completed"
	JobCompletedWithReviewRequired JobStatus = "completed_with_review_required"
	JobFailed                      JobStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobCompletedWithReviewRequired || s == JobFailed
}

type ImportFiles struct {
	EDDPath      string `json:"edd_path"`
	LotRefPath   string `json:"lot_ref_path"`
	ContactsPath string `json:"contacts_path"`
}

type ImportJob struct {
	JobID     string       `json:"job_id"`
	TenantID  string       `json:"tenant_id"`
	CoproID   string       `json:"copro_id"`
	Status    JobStatus    `json:"status"`
	Files     ImportFiles  `json:"files"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
	Stats     *ImportStats `json:"stats,omitempty"`
}

// ImportStats aggregates the counters of one run.
type ImportStats struct {
	LotsParsed     int `json:"lots_parsed"`
	ContactsParsed int `json:"contacts_parsed"`
	OwnerLinks     int `json:"owner_links"`
	UnitsBuilt     int `json:"units_built"`
	UnitLots       int `json:"unit_lots"`
	UnitOwners     int `json:"unit_owners"`
	Reviews        int `json:"reviews_created"`
	IssuesWarning  int `json:"issues_warning"`
	IssuesError    int `json:"issues_error"`

	// filled by the persistence step
	LotsUpserted     int `json:"lots_upserted"`
	ContactsUpserted int `json:"contacts_upserted"`
	UnitsUpserted    int `json:"units_upserted"`
	RowsCreated      int `json:"rows_created"`
}
