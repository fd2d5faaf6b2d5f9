// Package classify maps free-text labels of the source extracts onto fixed vocabularies.
package classify

import (
	"fmt"
	"strings"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var habitationLabels = []string{
	"appartement",
	"studio",
	"chambre",
	"chambre de service",
	"maison",
	"logement",
	"habitation",
}

var commerceLabels = []string{
	"commerce",
	"boutique",
	"local commercial",
	"local d'activité",
	"bureaux",
}

var dependanceLabels = []string{
	"cave",
	"parking",
	"box",
	"stationnement",
	"stationnement double",
	"emplacement de stationnement",
	"emplacement de stationnement double",
}

var lotFamilies = buildLotFamilies()

func buildLotFamilies() map[string]domain.LotFamily {
	m := map[string]domain.LotFamily{}
	for _, k := range habitationLabels {
		m[NormalizeLabel(k)] = domain.LotFamilyMainHabitation
	}
	for _, k := range commerceLabels {
		m[NormalizeLabel(k)] = domain.LotFamilyMainCommerce
	}
	for _, k := range dependanceLabels {
		m[NormalizeLabel(k)] = domain.LotFamilyDependance
	}
	return m
}

// NormalizeLabel trims and lower-cases a label. A Caser is stateful, so one is built per call.
func NormalizeLabel(s string) string {
	return cases.Lower(language.French).String(strings.TrimSpace(s))
}

// LookupLotFamily reports the family of a type label without side effects.
func LookupLotFamily(typeLabel string) (domain.LotFamily, bool) {
	f, ok := lotFamilies[NormalizeLabel(typeLabel)]
	return f, ok
}

// LotFamily classifies a lot type label. Unknown labels fall back to DEPENDANCE
// and raise unknown_lot_type_mapping.
func LotFamily(typeLabel, lotNumber string, sink issues.Sink) domain.LotFamily {
	if f, ok := LookupLotFamily(typeLabel); ok {
		return f
	}
	sink.Add(issues.Warning(
		domain.CodeUnknownLotTypeMapping,
		domain.EntityLot,
		lotNumber,
		fmt.Sprintf("Unknown TypeLot mapping: %q, defaulting to DEPENDANCE", typeLabel),
		map[string]any{"type_lot": typeLabel},
	))
	return domain.LotFamilyDependance
}
