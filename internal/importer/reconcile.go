// Package importer reconciles a lot registry, an owner reference list and a
// contact directory into lots, contacts, units and review cases.
//
// The pipeline is pure and sequential: header validation, lot parsing,
// contact parsing, owner linking, then unit building owner by owner.
// Diagnostics go to an issues.Sink; nothing here performs I/O.
package importer

import (
	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"
)

// Result is the outcome of one reconciliation run.
type Result struct {
	TenantID      string                   `json:"tenant_id"`
	CoproID       string                   `json:"copro_id"`
	Status        domain.JobStatus         `json:"status"`
	Stats         domain.ImportStats       `json:"stats"`
	Lots          []domain.ParsedLot       `json:"lots"`
	Contacts      []domain.ParsedContact   `json:"contacts"`
	Links         []domain.OwnerLotLink    `json:"links"`
	Units         []domain.Unit            `json:"units"`
	Reviews       []domain.ReviewCase      `json:"reviews"`
	Issues        []domain.DataIssue       `json:"issues"`
	Errors        []domain.BlockingError   `json:"errors"`
	Addresses     []domain.PropertyAddress `json:"addresses"`
	CadastralRefs []string                 `json:"cadastral_refs"`
}

// Reconcile runs the whole pipeline over in. A missing required header fails
// the run before any row is read.
func Reconcile(in Input) *Result {
	ledger := issues.NewLedger()
	res := &Result{
		TenantID:      in.TenantID,
		CoproID:       in.CoproID,
		Lots:          []domain.ParsedLot{},
		Contacts:      []domain.ParsedContact{},
		Links:         []domain.OwnerLotLink{},
		Units:         []domain.Unit{},
		Reviews:       []domain.ReviewCase{},
		Errors:        []domain.BlockingError{},
		Addresses:     cleanAddresses(in.Addresses),
		CadastralRefs: cleanRefs(in.CadastralRefs),
	}

	if blocking := ValidateHeaders(in, ledger); len(blocking) > 0 {
		res.Status = domain.JobFailed
		res.Errors = blocking
		res.finish(ledger)
		return res
	}

	lots := ParseLots(in.Lots, ledger)
	contacts := ParseContacts(in.Contacts, ledger)
	ownership := LinkOwners(in.OwnerRefs, lots, contacts, ledger)

	builder := NewUnitBuilder(lots, contacts, PrimaryAddress(res.Addresses), res.CadastralRefs, ledger)
	for _, owner := range ownership.Owners() {
		res.collect(builder.Build(owner, ownership.LotsOf(owner)))
	}

	res.Lots = lots.All()
	res.Contacts = contacts.All()
	res.Links = append(res.Links, ownership.Links...)
	res.Stats.LotsParsed = lots.Len()
	res.Stats.ContactsParsed = contacts.Len()
	res.Stats.OwnerLinks = len(ownership.Links)

	res.Status = domain.JobCompleted
	if len(res.Reviews) > 0 {
		res.Status = domain.JobCompletedWithReviewRequired
	}
	res.finish(ledger)
	return res
}

func (r *Result) collect(o Outcome) {
	switch o.Kind {
	case OutcomeReview:
		r.Reviews = append(r.Reviews, *o.Review)
		r.Stats.Reviews++
	case OutcomeUnits:
		for _, u := range o.Units {
			r.Units = append(r.Units, u)
			r.Stats.UnitsBuilt++
			r.Stats.UnitLots += len(u.Lots)
			if u.OwnerContactRef != nil {
				r.Stats.UnitOwners++
			}
		}
	}
}

func (r *Result) finish(ledger *issues.Ledger) {
	r.Issues = ledger.Entries()
	r.Stats.IssuesWarning = ledger.Count(domain.SeverityWarning)
	r.Stats.IssuesError = ledger.Count(domain.SeverityError)
}

// ReviewSummaries renders the review cases for the API response.
func (r *Result) ReviewSummaries() []domain.ReviewSummary {
	out := make([]domain.ReviewSummary, 0, len(r.Reviews))
	for _, rc := range r.Reviews {
		out = append(out, rc.Summary())
	}
	return out
}
