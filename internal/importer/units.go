package importer

import (
	"fmt"

	"copro-edd-import/internal/classify"
	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"
)

// OutcomeKind tags what the builder decided for one owner.
type OutcomeKind int

const (
	OutcomeSkipped OutcomeKind = iota
	OutcomeUnits
	OutcomeReview
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeUnits:
		return "units"
	case OutcomeReview:
		return "review"
	default:
		return "skipped"
	}
}

// Outcome is the result for one owner: units, a review case, or nothing.
type Outcome struct {
	Kind     OutcomeKind
	OwnerRef string
	Units    []domain.Unit
	Review   *domain.ReviewCase
}

// UnitBuilder decides, owner by owner, which units the owned lots form.
// It reads only immutable inputs; its single side effect is appending to the sink.
type UnitBuilder struct {
	lots     *LotSet
	contacts *ContactSet
	address  *domain.PropertyAddress
	parcels  []string
	sink     issues.Sink
}

func NewUnitBuilder(lots *LotSet, contacts *ContactSet, address *domain.PropertyAddress, parcels []string, sink issues.Sink) *UnitBuilder {
	return &UnitBuilder{
		lots:     lots,
		contacts: contacts,
		address:  address,
		parcels:  parcels,
		sink:     sink,
	}
}

type buckets struct {
	mainHab  []domain.ParsedLot
	mainComm []domain.ParsedLot
	dep      []domain.ParsedLot
	all      []domain.ParsedLot
}

// partition dedupes the owner's lots (first occurrence wins) and splits them by family.
func (b *UnitBuilder) partition(lotNumbers []string) buckets {
	var out buckets
	seen := map[string]bool{}
	for _, n := range lotNumbers {
		if seen[n] {
			continue
		}
		lot, ok := b.lots.Get(n)
		if !ok {
			continue
		}
		seen[n] = true
		out.all = append(out.all, lot)
		switch lot.LotFamily {
		case domain.LotFamilyMainHabitation:
			out.mainHab = append(out.mainHab, lot)
		case domain.LotFamilyMainCommerce:
			out.mainComm = append(out.mainComm, lot)
		default:
			out.dep = append(out.dep, lot)
		}
	}
	return out
}

// Build runs the decision for one owner:
//   - two or more habitation lots: review case, no unit
//   - one main lot (habitation first, else first commerce): one unit, dependances as annex
//   - only dependances: one dependance unit per normalized type label
//   - no lot: skipped
func (b *UnitBuilder) Build(ownerRef string, lotNumbers []string) Outcome {
	bk := b.partition(lotNumbers)

	switch {
	case len(bk.mainHab) >= 2:
		review := b.review(ownerRef, bk)
		return Outcome{Kind: OutcomeReview, OwnerRef: ownerRef, Review: &review}

	case len(bk.mainHab) == 1 || len(bk.mainComm) >= 1:
		var main domain.ParsedLot
		var unitType domain.UnitType
		var unattached []domain.ParsedLot
		if len(bk.mainHab) == 1 {
			main, unitType = bk.mainHab[0], domain.UnitHabitation
			unattached = bk.mainComm
		} else {
			main, unitType = bk.mainComm[0], domain.UnitCommercial
			unattached = bk.mainComm[1:]
		}
		if len(unattached) > 0 {
			b.flagUnattachedCommerce(ownerRef, main.LotNumber, unattached)
		}

		members := []domain.UnitLot{{LotNumber: main.LotNumber, Role: domain.LotRoleMain}}
		for _, d := range bk.dep {
			members = append(members, domain.UnitLot{LotNumber: d.LotNumber, Role: domain.LotRoleAnnex})
		}
		return Outcome{
			Kind:     OutcomeUnits,
			OwnerRef: ownerRef,
			Units:    []domain.Unit{b.unit(ownerRef, unitType, main.LotNumber, members)},
		}

	case len(bk.dep) > 0:
		var order []string
		groups := map[string][]domain.ParsedLot{}
		for _, d := range bk.dep {
			key := classify.NormalizeLabel(d.LotTypeLabel)
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], d)
		}

		units := make([]domain.Unit, 0, len(order))
		for _, key := range order {
			group := groups[key]
			members := make([]domain.UnitLot, 0, len(group))
			for _, l := range group {
				members = append(members, domain.UnitLot{LotNumber: l.LotNumber, Role: domain.LotRoleMain})
			}
			units = append(units, b.unit(ownerRef, domain.UnitDependance, group[0].LotNumber, members))
		}
		return Outcome{Kind: OutcomeUnits, OwnerRef: ownerRef, Units: units}
	}

	return Outcome{Kind: OutcomeSkipped, OwnerRef: ownerRef}
}

func (b *UnitBuilder) unit(ownerRef string, unitType domain.UnitType, mainLot string, members []domain.UnitLot) domain.Unit {
	u := domain.Unit{
		Type:          unitType,
		MainLotNumber: mainLot,
		OwnerRef:      ownerRef,
		Lots:          members,
		Parcels:       append([]string{}, b.parcels...),
	}
	if b.contacts.Has(ownerRef) {
		ref := ownerRef
		u.OwnerContactRef = &ref
	}
	if b.address != nil {
		addr := *b.address
		u.Address = &addr
	}
	return u
}

func (b *UnitBuilder) review(ownerRef string, bk buckets) domain.ReviewCase {
	depNumbers := numbersOf(bk.dep)

	split := make([]domain.SplitProposal, 0, len(bk.mainHab))
	for _, l := range bk.mainHab {
		split = append(split, domain.SplitProposal{
			MainLot:  l.LotNumber,
			UnitType: domain.UnitHabitation,
			DepLots:  append([]string{}, depNumbers...),
		})
	}

	rc := domain.ReviewCase{
		OwnerRef:        ownerRef,
		Reason:          domain.ReviewMultipleHabitationMainLots,
		Status:          domain.ReviewStatusPending,
		DisplayName:     ownerRef,
		ContactCategory: domain.ContactPhysical,
		LotsInScope: domain.LotsInScope{
			MainHabitation: reviewLots(bk.mainHab),
			MainCommerce:   reviewLots(bk.mainComm),
			Dependance:     reviewLots(bk.dep),
		},
		Proposals: domain.Proposals{
			Split: split,
			Merge: domain.MergeProposal{
				MainLot:  bk.mainHab[0].LotNumber,
				UnitType: domain.UnitHabitation,
				AllLots:  numbersOf(bk.all),
			},
		},
	}
	if c, ok := b.contacts.Get(ownerRef); ok {
		if c.DisplayName != "" {
			rc.DisplayName = c.DisplayName
		}
		rc.ContactCategory = c.Category
		rc.LegalForm = c.LegalForm
		rc.GroupType = c.GroupType
	}
	return rc
}

func (b *UnitBuilder) flagUnattachedCommerce(ownerRef, mainLot string, lots []domain.ParsedLot) {
	numbers := numbersOf(lots)
	b.sink.Add(issues.Warning(
		domain.CodeMainCommerceLotsNotAttached,
		domain.EntityOwner,
		ownerRef,
		fmt.Sprintf("Owner %q: %d main commerce lot(s) not attached to the unit of lot %q", ownerRef, len(numbers), mainLot),
		map[string]any{"owner_ref": ownerRef, "main_lot": mainLot, "lot_numbers": numbers},
	))
}

func numbersOf(lots []domain.ParsedLot) []string {
	out := make([]string, 0, len(lots))
	for _, l := range lots {
		out = append(out, l.LotNumber)
	}
	return out
}

func reviewLots(lots []domain.ParsedLot) []domain.ReviewLot {
	out := make([]domain.ReviewLot, 0, len(lots))
	for _, l := range lots {
		out = append(out, domain.ReviewLot{LotNumber: l.LotNumber, LotTypeLabel: l.LotTypeLabel})
	}
	return out
}
