package classify

import (
	"testing"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotFamily_KnownLabels(t *testing.T) {
	l := issues.NewLedger()

	assert.Equal(t, domain.LotFamilyMainHabitation, LotFamily("Appartement", "1", l))
	assert.Equal(t, domain.LotFamilyMainHabitation, LotFamily("  CHAMBRE DE SERVICE ", "2", l))
	assert.Equal(t, domain.LotFamilyMainCommerce, LotFamily("Local d'activité", "3", l))
	assert.Equal(t, domain.LotFamilyMainCommerce, LotFamily("LOCAL D'ACTIVITÉ", "3b", l))
	assert.Equal(t, domain.LotFamilyDependance, LotFamily("Cave", "4", l))
	assert.Equal(t, domain.LotFamilyDependance, LotFamily("Emplacement de stationnement double", "5", l))
	assert.Equal(t, 0, l.Len())
}

func TestLotFamily_UnknownDefaultsToDependance(t *testing.T) {
	l := issues.NewLedger()

	assert.Equal(t, domain.LotFamilyDependance, LotFamily("Garage", "9", l))

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CodeUnknownLotTypeMapping, entries[0].Code)
	assert.Equal(t, domain.SeverityWarning, entries[0].Severity)
	assert.Equal(t, domain.EntityLot, entries[0].EntityType)
	assert.Equal(t, "9", *entries[0].EntityKey)
	assert.Equal(t, "Garage", entries[0].Payload["type_lot"])
}

func TestKeywordSetsAreDisjoint(t *testing.T) {
	seen := map[string]bool{}
	for _, set := range [][]string{habitationLabels, commerceLabels, dependanceLabels} {
		for _, k := range set {
			n := NormalizeLabel(k)
			assert.False(t, seen[n], "label %q appears twice", k)
			seen[n] = true
		}
	}
}

func TestLookupCivility(t *testing.T) {
	info := LookupCivility(" Monsieur ou Madame ")
	assert.True(t, info.Known)
	assert.Equal(t, domain.ContactPhysical, info.Category)
	assert.Nil(t, info.LegalForm)
	assert.Nil(t, info.GroupType)

	info = LookupCivility("SCI")
	assert.Equal(t, domain.ContactLegalEntity, info.Category)
	require.NotNil(t, info.LegalForm)
	assert.Equal(t, domain.LegalFormSCI, *info.LegalForm)
	assert.Nil(t, info.GroupType)

	info = LookupCivility("SUCESS")
	assert.Equal(t, domain.ContactGroup, info.Category)
	require.NotNil(t, info.GroupType)
	assert.Equal(t, domain.GroupSuccession, *info.GroupType)
	assert.Nil(t, info.LegalForm)
}

func TestCivility_UnknownFallsBackToPhysical(t *testing.T) {
	l := issues.NewLedger()
	info := Civility("sci", "C42", l)

	assert.False(t, info.Known)
	assert.Equal(t, domain.ContactPhysical, info.Category)
	assert.Nil(t, info.LegalForm)

	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CodeContactsUnknownCivility, entries[0].Code)
	assert.Equal(t, "C42", *entries[0].EntityKey)
}

func TestDisplayName(t *testing.T) {
	first := " Jeanne "
	empty := "  "

	assert.Equal(t, "Jeanne Martin", DisplayName(domain.ContactPhysical, &first, " Martin"))
	assert.Equal(t, "Martin", DisplayName(domain.ContactPhysical, &empty, "Martin"))
	assert.Equal(t, "Martin", DisplayName(domain.ContactPhysical, nil, "Martin"))
	assert.Equal(t, "SCI Les Tilleuls", DisplayName(domain.ContactLegalEntity, &first, "SCI Les Tilleuls"))
	assert.Equal(t, "Indivision Durand", DisplayName(domain.ContactGroup, nil, "Indivision Durand"))
}
