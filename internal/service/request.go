package service

import (
	"errors"
	"fmt"
	"strings"

	"copro-edd-import/internal/domain"
)

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrImportInProgress = errors.New("import already in progress")
	ErrJobNotFound      = errors.New("import job not found")
)

// ImportRequest is the body of POST /api/v1/edd-import.
type ImportRequest struct {
	TenantID      string                   `json:"tenant_id"`
	CoproID       string                   `json:"copro_id"`
	Addresses     []domain.PropertyAddress `json:"copro_addresses"`
	CadastralRefs []string                 `json:"copro_cadastral_refs"`
	Files         domain.ImportFiles       `json:"files"`
}

func (r ImportRequest) Validate() error {
	required := []string{r.TenantID, r.CoproID, r.Files.EDDPath, r.Files.LotRefPath, r.Files.ContactsPath}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: Missing required fields", ErrInvalidRequest)
		}
	}
	for _, a := range r.Addresses {
		if a.Role != domain.AddressMain && a.Role != domain.AddressSecondary {
			return fmt.Errorf("%w: Invalid address role %q", ErrInvalidRequest, a.Role)
		}
	}
	return nil
}

// ImportResponse is returned for every outcome of a run, including failures.
type ImportResponse struct {
	JobID   *string                `json:"job_id"`
	Status  domain.JobStatus       `json:"status"`
	Stats   *domain.ImportStats    `json:"stats"`
	Reviews []domain.ReviewSummary `json:"reviews"`
	Errors  []domain.BlockingError `json:"errors"`
}

func failedResponse(jobID *string, errs ...domain.BlockingError) *ImportResponse {
	return &ImportResponse{
		JobID:   jobID,
		Status:  domain.JobFailed,
		Reviews: []domain.ReviewSummary{},
		Errors:  errs,
	}
}

func invalidRequestResponse(err error) *ImportResponse {
	msg := strings.TrimPrefix(err.Error(), ErrInvalidRequest.Error()+": ")
	return failedResponse(nil, domain.BlockingError{
		Code:    domain.CodeInvalidRequest,
		Message: msg,
		Entity:  domain.EntityRequest,
	})
}

func inProgressResponse() *ImportResponse {
	return failedResponse(nil, domain.BlockingError{
		Code:    domain.CodeImportInProgress,
		Message: "Another import is running for this property",
		Entity:  domain.EntityRequest,
	})
}

// internalErrorResponse never carries the cause.
func internalErrorResponse(jobID *string) *ImportResponse {
	return failedResponse(jobID, domain.BlockingError{
		Code:    domain.CodeInternalError,
		Message: "An internal error occurred during import",
		Entity:  domain.EntitySystem,
	})
}

// JobView is the state of one job as served by GET /jobs/{id}.
type JobView struct {
	domain.ImportJob
	Reviews []domain.ReviewSummary `json:"reviews"`
	Errors  []domain.BlockingError `json:"errors"`
}

// jobSnapshot is what the cache keeps per job.
type jobSnapshot struct {
	Job     domain.ImportJob       `json:"job"`
	Reviews []domain.ReviewCase    `json:"reviews"`
	Errors  []domain.BlockingError `json:"errors"`
}

func (s jobSnapshot) view() *JobView {
	return &JobView{ImportJob: s.Job, Reviews: summaries(s.Reviews), Errors: s.Errors}
}

func summaries(reviews []domain.ReviewCase) []domain.ReviewSummary {
	out := make([]domain.ReviewSummary, 0, len(reviews))
	for _, rc := range reviews {
		out = append(out, rc.Summary())
	}
	return out
}
