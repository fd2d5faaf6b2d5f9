package importer

import (
	"fmt"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"
	"copro-edd-import/internal/normalize"
	"copro-edd-import/internal/sheet"
)

// Ownership is the owner → lots mapping built from the reference list.
// Links keeps every retained pair, duplicates included, in file order.
type Ownership struct {
	Links   []domain.OwnerLotLink
	owners  []string
	byOwner map[string][]string
}

// Owners returns owner refs in first-encounter order.
func (o *Ownership) Owners() []string {
	out := make([]string, len(o.owners))
	copy(out, o.owners)
	return out
}

// LotsOf returns the owner's linked lot numbers, duplicates included.
func (o *Ownership) LotsOf(ownerRef string) []string {
	lots := o.byOwner[ownerRef]
	out := make([]string, len(lots))
	copy(out, lots)
	return out
}

// LinkOwners correlates the reference list with the parsed lots and contacts.
// The checks are independent and never fatal:
//   - a pair whose lot is not in the registry is dropped (owner_link_without_lot)
//   - a lot no pair points to is reported (missing_owner_link)
//   - an owner with lots but without contact is reported (missing_contact_for_owner_ref)
func LinkOwners(ds sheet.Dataset, lots *LotSet, contacts *ContactSet, sink issues.Sink) *Ownership {
	own := &Ownership{byOwner: map[string][]string{}}
	linked := map[string]bool{}
	seen := map[domain.OwnerLotLink]int{}

	for i, row := range ds.Rows {
		rowNum := i + 2
		ownerRef := normalize.String(row.Get(ColRefOwner))
		lotNumber := normalize.String(row.Get(ColRefLotNumber))

		if ownerRef == "" || lotNumber == "" {
			key := lotNumber
			if key == "" {
				key = ownerRef
			}
			sink.Add(issues.Warning(
				domain.CodeLotRefRowIncomplete,
				domain.EntityLotRef,
				key,
				fmt.Sprintf("Row %d of lot_ref is missing %s or %s, skipped", rowNum, ColRefOwner, ColRefLotNumber),
				map[string]any{"row": rowNum, "owner_ref": ownerRef, "lot_number": lotNumber},
			))
			continue
		}

		if !lots.Has(lotNumber) {
			sink.Add(issues.Warning(
				domain.CodeOwnerLinkWithoutLot,
				domain.EntityLotRef,
				lotNumber,
				fmt.Sprintf("Lot %q referenced in lot_ref but not found in EDD", lotNumber),
				map[string]any{"owner_ref": ownerRef, "lot_number": lotNumber},
			))
			continue
		}

		link := domain.OwnerLotLink{OwnerRef: ownerRef, LotNumber: lotNumber}
		if first, dup := seen[link]; dup {
			sink.Add(issues.Warning(
				domain.CodeDuplicateOwnerLink,
				domain.EntityLotRef,
				lotNumber,
				fmt.Sprintf("Owner %q is linked to lot %q more than once (rows %d and %d)", ownerRef, lotNumber, first, rowNum),
				map[string]any{"owner_ref": ownerRef, "lot_number": lotNumber, "row": rowNum, "first_row": first},
			))
		} else {
			seen[link] = rowNum
		}

		if _, ok := own.byOwner[ownerRef]; !ok {
			own.owners = append(own.owners, ownerRef)
		}
		own.byOwner[ownerRef] = append(own.byOwner[ownerRef], lotNumber)
		own.Links = append(own.Links, link)
		linked[lotNumber] = true
	}

	for _, n := range lots.Numbers() {
		if linked[n] {
			continue
		}
		sink.Add(issues.Warning(
			domain.CodeMissingOwnerLink,
			domain.EntityLot,
			n,
			fmt.Sprintf("Lot %q has no owner reference in lot_ref", n),
			map[string]any{"lot_number": n},
		))
	}

	for _, ref := range own.owners {
		if contacts.Has(ref) {
			continue
		}
		sink.Add(issues.Warning(
			domain.CodeMissingContactForOwnerRef,
			domain.EntityContact,
			ref,
			fmt.Sprintf("Owner reference %q from lot_ref has no matching contact", ref),
			map[string]any{"owner_ref": ref},
		))
	}
	return own
}
