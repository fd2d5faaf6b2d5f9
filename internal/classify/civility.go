package classify

import (
	"fmt"
	"strings"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"
)

var physicalCivilities = map[string]bool{
	"Monsieur":           true,
	"Madame":             true,
	"Monsieur ou Madame": true,
}

var legalForms = map[string]domain.LegalForm{
	"STE": domain.LegalFormSTE,
	"SCI": domain.LegalFormSCI,
	"SDC": domain.LegalFormSDC,
}

var groupTypes = map[string]domain.GroupType{
	"INDIV":  domain.GroupIndivision,
	"CONSOR": domain.GroupConsortium,
	"SUCESS": domain.GroupSuccession,
}

// CivilityInfo is what a civility code says about a contact.
type CivilityInfo struct {
	Category  domain.ContactCategory
	LegalForm *domain.LegalForm
	GroupType *domain.GroupType
	Known     bool
}

// LookupCivility matches the trimmed civility code exactly (case-sensitive).
// Unknown codes come back as physical with Known=false.
func LookupCivility(raw string) CivilityInfo {
	code := strings.TrimSpace(raw)
	if physicalCivilities[code] {
		return CivilityInfo{Category: domain.ContactPhysical, Known: true}
	}
	if lf, ok := legalForms[code]; ok {
		return CivilityInfo{Category: domain.ContactLegalEntity, LegalForm: &lf, Known: true}
	}
	if gt, ok := groupTypes[code]; ok {
		return CivilityInfo{Category: domain.ContactGroup, GroupType: &gt, Known: true}
	}
	return CivilityInfo{Category: domain.ContactPhysical}
}

// Civility classifies a contact and raises contacts_unknown_civility_value on fallback.
func Civility(raw, externalRef string, sink issues.Sink) CivilityInfo {
	info := LookupCivility(raw)
	if !info.Known {
		sink.Add(issues.Warning(
			domain.CodeContactsUnknownCivility,
			domain.EntityContact,
			externalRef,
			fmt.Sprintf("Unknown civility value: %q, defaulting to physical", raw),
			map[string]any{"civility": raw},
		))
	}
	return info
}

// DisplayName is "First Last" for a physical person with a first name,
// otherwise the name field as given.
func DisplayName(category domain.ContactCategory, firstName *string, lastName string) string {
	last := strings.TrimSpace(lastName)
	if category == domain.ContactPhysical && firstName != nil {
		if first := strings.TrimSpace(*firstName); first != "" {
			return first + " " + last
		}
	}
	return last
}
