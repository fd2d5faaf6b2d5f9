package importer

import (
	"fmt"

	"copro-edd-import/internal/classify"
	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"
	"copro-edd-import/internal/normalize"
	"copro-edd-import/internal/sheet"
)

// ContactSet is the parsed contact directory keyed by external reference.
type ContactSet struct {
	order    []string
	contacts map[string]domain.ParsedContact
}

func (s *ContactSet) Get(ref string) (domain.ParsedContact, bool) {
	c, ok := s.contacts[ref]
	return c, ok
}

func (s *ContactSet) Has(ref string) bool {
	_, ok := s.contacts[ref]
	return ok
}

func (s *ContactSet) Len() int {
	return len(s.order)
}

func (s *ContactSet) All() []domain.ParsedContact {
	out := make([]domain.ParsedContact, 0, len(s.order))
	for _, r := range s.order {
		out = append(out, s.contacts[r])
	}
	return out
}

// ParseContacts normalizes the contact directory. Rows missing the reference
// or the name are skipped; a repeated reference keeps the latest values.
func ParseContacts(ds sheet.Dataset, sink issues.Sink) *ContactSet {
	set := &ContactSet{contacts: make(map[string]domain.ParsedContact, len(ds.Rows))}
	firstRow := map[string]int{}

	for i, row := range ds.Rows {
		rowNum := i + 2
		ref := normalize.String(row.Get(ColContactRef))
		name := normalize.String(row.Get(ColContactName))
		if ref == "" || name == "" {
			sink.Add(issues.Warning(
				domain.CodeContactsRowMissingValue,
				domain.EntityContacts,
				ref,
				fmt.Sprintf("Row %d is missing %s or %s, skipped", rowNum, ColContactRef, ColContactName),
				map[string]any{"row": rowNum, "external_ref": ref, "name": name},
			))
			continue
		}

		civilityRaw := normalize.String(row.Get(ColContactCivility))
		info := classify.Civility(civilityRaw, ref, sink)
		firstName := normalize.OptionalString(row.Get(ColContactFirst))

		contact := domain.ParsedContact{
			ExternalRef:    ref,
			CivilityRaw:    civilityRaw,
			Category:       info.Category,
			LegalForm:      info.LegalForm,
			GroupType:      info.GroupType,
			FirstName:      firstName,
			LastNameOrName: name,
			DisplayName:    classify.DisplayName(info.Category, firstName, name),
			AddressLine1:   normalize.OptionalString(row.Get(ColContactAddress1)),
			AddressLine2:   normalize.OptionalString(row.Get(ColContactAddress2)),
			Postcode:       normalize.OptionalString(row.Get(ColContactPostcode)),
			City:           normalize.OptionalString(row.Get(ColContactCity)),
			Country:        normalize.OptionalString(row.Get(ColContactCountry)),
			Email:          normalize.OptionalString(row.Get(ColContactEmail)),
			Phone1:         normalize.OptionalString(row.Get(ColContactPhone1)),
			Phone2:         normalize.OptionalString(row.Get(ColContactPhone2)),
		}

		if first, dup := firstRow[ref]; dup {
			sink.Add(issues.Warning(
				domain.CodeContactsDuplicateReference,
				domain.EntityContact,
				ref,
				fmt.Sprintf("Contact %q appears more than once; row %d replaces row %d", ref, rowNum, first),
				map[string]any{"external_ref": ref, "row": rowNum, "first_row": first},
			))
		} else {
			firstRow[ref] = rowNum
			set.order = append(set.order, ref)
		}
		set.contacts[ref] = contact
	}
	return set
}
