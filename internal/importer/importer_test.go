package importer

import (
	"testing"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"
	"copro-edd-import/internal/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	eddHeader      = []string{ColLotNumber, ColFloor, ColLotType, ColSurface, ColSharesGeneral, ColAcquiredAt, ColWorksFund}
	lotRefHeader   = []string{ColRefOwner, ColRefLotNumber}
	contactsHeader = []string{ColContactRef, ColContactCivility, ColContactName, ColContactFirst}
)

// lotRow builds an EDD row with only the required columns filled.
func lotRow(number, typeLabel string) []string {
	return []string{number, "RDC", typeLabel, "", "", "", ""}
}

func newInput(lots, refs, contacts [][]string) Input {
	return Input{
		TenantID:  "t1",
		CoproID:   "c1",
		Lots:      sheet.NewDataset(eddHeader, lots),
		OwnerRefs: sheet.NewDataset(lotRefHeader, refs),
		Contacts:  sheet.NewDataset(contactsHeader, contacts),
		Addresses: []domain.PropertyAddress{
			{Label: "2 rue Annexe", Role: domain.AddressSecondary},
			{Label: "1 rue Principale", Role: domain.AddressMain},
		},
		CadastralRefs: []string{"AB12", "AB13"},
	}
}

func codes(list []domain.DataIssue) []string {
	out := make([]string, 0, len(list))
	for _, i := range list {
		out = append(out, i.Code)
	}
	return out
}

func issuesWithCode(list []domain.DataIssue, code string) []domain.DataIssue {
	var out []domain.DataIssue
	for _, i := range list {
		if i.Code == code {
			out = append(out, i)
		}
	}
	return out
}

func TestReconcile_HabitationWithDependance(t *testing.T) {
	in := newInput(
		[][]string{lotRow("A", "Appartement"), lotRow("B", "Cave")},
		[][]string{{"O1", "A"}, {"O1", "B"}},
		[][]string{{"O1", "Monsieur", "Martin", "Paul"}},
	)

	res := Reconcile(in)

	assert.Equal(t, domain.JobCompleted, res.Status)
	require.Len(t, res.Units, 1)
	assert.Empty(t, res.Reviews)

	u := res.Units[0]
	assert.Equal(t, domain.UnitHabitation, u.Type)
	assert.Equal(t, "A", u.MainLotNumber)
	assert.Equal(t, []domain.UnitLot{
		{LotNumber: "A", Role: domain.LotRoleMain},
		{LotNumber: "B", Role: domain.LotRoleAnnex},
	}, u.Lots)
	require.NotNil(t, u.OwnerContactRef)
	assert.Equal(t, "O1", *u.OwnerContactRef)
	require.NotNil(t, u.Address)
	assert.Equal(t, "1 rue Principale", u.Address.Label)
	assert.Equal(t, []string{"AB12", "AB13"}, u.Parcels)

	assert.Equal(t, 2, res.Stats.LotsParsed)
	assert.Equal(t, 1, res.Stats.ContactsParsed)
	assert.Equal(t, 2, res.Stats.OwnerLinks)
	assert.Equal(t, 1, res.Stats.UnitsBuilt)
	assert.Equal(t, 2, res.Stats.UnitLots)
	assert.Equal(t, 1, res.Stats.UnitOwners)
	assert.Equal(t, 0, res.Stats.Reviews)
	assert.Equal(t, 0, res.Stats.IssuesWarning)
	assert.Empty(t, res.Issues)
}

func TestReconcile_MultipleHabitationLotsNeedReview(t *testing.T) {
	in := newInput(
		[][]string{lotRow("A", "Appartement"), lotRow("B", "Studio")},
		[][]string{{"O1", "A"}, {"O1", "B"}},
		[][]string{{"O1", "SCI", "SCI Les Tilleuls", ""}},
	)

	res := Reconcile(in)

	assert.Equal(t, domain.JobCompletedWithReviewRequired, res.Status)
	assert.Empty(t, res.Units)
	require.Len(t, res.Reviews, 1)

	rc := res.Reviews[0]
	assert.Equal(t, domain.ReviewMultipleHabitationMainLots, rc.Reason)
	assert.Equal(t, domain.ReviewStatusPending, rc.Status)
	assert.Equal(t, "SCI Les Tilleuls", rc.DisplayName)
	assert.Equal(t, domain.ContactLegalEntity, rc.ContactCategory)
	require.NotNil(t, rc.LegalForm)
	assert.Equal(t, domain.LegalFormSCI, *rc.LegalForm)
	assert.Nil(t, rc.GroupType)

	require.Len(t, rc.Proposals.Split, 2)
	assert.Equal(t, "A", rc.Proposals.Split[0].MainLot)
	assert.Equal(t, "B", rc.Proposals.Split[1].MainLot)
	assert.Equal(t, "A", rc.Proposals.Merge.MainLot)
	assert.Equal(t, []string{"A", "B"}, rc.Proposals.Merge.AllLots)
	assert.Equal(t, 1, res.Stats.Reviews)
	assert.Equal(t, 0, res.Stats.UnitsBuilt)

	summaries := res.ReviewSummaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, []string{"A", "B"}, summaries[0].MainHabLots)
	assert.Equal(t, []string{}, summaries[0].DepLots)
}

func TestReconcile_ReviewCarriesDependancesInEverySplit(t *testing.T) {
	in := newInput(
		[][]string{lotRow("A", "Appartement"), lotRow("B", "Appartement"), lotRow("C", "Cave"), lotRow("D", "Boutique")},
		[][]string{{"O1", "A"}, {"O1", "C"}, {"O1", "B"}, {"O1", "D"}},
		nil,
	)

	res := Reconcile(in)

	require.Len(t, res.Reviews, 1)
	rc := res.Reviews[0]
	assert.Equal(t, "O1", rc.DisplayName)
	assert.Equal(t, domain.ContactPhysical, rc.ContactCategory)
	for _, p := range rc.Proposals.Split {
		assert.Equal(t, []string{"C"}, p.DepLots)
	}
	assert.Equal(t, []string{"A", "C", "B", "D"}, rc.Proposals.Merge.AllLots)
	assert.Len(t, rc.LotsInScope.MainCommerce, 1)
	assert.Contains(t, codes(res.Issues), domain.CodeMissingContactForOwnerRef)
}

func TestReconcile_DependanceOnlyGroupsByType(t *testing.T) {
	in := newInput(
		[][]string{lotRow("C", "Cave"), lotRow("D", " CAVE "), lotRow("E", "Parking")},
		[][]string{{"O1", "C"}, {"O1", "D"}, {"O1", "E"}},
		[][]string{{"O1", "Madame", "Durand", ""}},
	)

	res := Reconcile(in)

	assert.Equal(t, domain.JobCompleted, res.Status)
	require.Len(t, res.Units, 2)

	assert.Equal(t, domain.UnitDependance, res.Units[0].Type)
	assert.Equal(t, "C", res.Units[0].MainLotNumber)
	assert.Equal(t, []domain.UnitLot{
		{LotNumber: "C", Role: domain.LotRoleMain},
		{LotNumber: "D", Role: domain.LotRoleMain},
	}, res.Units[0].Lots)

	assert.Equal(t, "E", res.Units[1].MainLotNumber)
	assert.Equal(t, []domain.UnitLot{{LotNumber: "E", Role: domain.LotRoleMain}}, res.Units[1].Lots)
	assert.Equal(t, 3, res.Stats.UnitLots)
	assert.Equal(t, 2, res.Stats.UnitOwners)
}

func TestReconcile_CommercialUnitFlagsExtraCommerceLots(t *testing.T) {
	in := newInput(
		[][]string{lotRow("K1", "Commerce"), lotRow("K2", "Boutique"), lotRow("P", "Parking")},
		[][]string{{"O1", "K1"}, {"O1", "K2"}, {"O1", "P"}},
		[][]string{{"O1", "STE", "ACME", ""}},
	)

	res := Reconcile(in)

	require.Len(t, res.Units, 1)
	u := res.Units[0]
	assert.Equal(t, domain.UnitCommercial, u.Type)
	assert.Equal(t, "K1", u.MainLotNumber)
	assert.Equal(t, []string{"P"}, u.LotNumbers(domain.LotRoleAnnex))

	flagged := issuesWithCode(res.Issues, domain.CodeMainCommerceLotsNotAttached)
	require.Len(t, flagged, 1)
	assert.Equal(t, domain.EntityOwner, flagged[0].EntityType)
	assert.Equal(t, []string{"K2"}, flagged[0].Payload["lot_numbers"])
	assert.Equal(t, "K1", flagged[0].Payload["main_lot"])
}

func TestReconcile_HabitationWinsOverCommerce(t *testing.T) {
	in := newInput(
		[][]string{lotRow("K", "Commerce"), lotRow("A", "Appartement")},
		[][]string{{"O1", "K"}, {"O1", "A"}},
		[][]string{{"O1", "Monsieur", "Martin", ""}},
	)

	res := Reconcile(in)

	require.Len(t, res.Units, 1)
	assert.Equal(t, domain.UnitHabitation, res.Units[0].Type)
	assert.Equal(t, "A", res.Units[0].MainLotNumber)
	assert.Equal(t, []string{"A"}, res.Units[0].LotNumbers(domain.LotRoleMain))

	flagged := issuesWithCode(res.Issues, domain.CodeMainCommerceLotsNotAttached)
	require.Len(t, flagged, 1)
	assert.Equal(t, []string{"K"}, flagged[0].Payload["lot_numbers"])
}

func TestReconcile_MissingHeadersFail(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(in *Input)
		wantCode string
	}{
		{
			name: "edd",
			mutate: func(in *Input) {
				in.Lots = sheet.NewDataset([]string{ColLotNumber, ColLotType}, [][]string{{"A", "Appartement"}})
			},
			wantCode: domain.CodeEDDMissingRequiredColumn,
		},
		{
			name: "lot_ref",
			mutate: func(in *Input) {
				in.OwnerRefs = sheet.NewDataset([]string{ColRefOwner}, [][]string{{"O1"}})
			},
			wantCode: domain.CodeLotRefMissingRequiredColumn,
		},
		{
			name: "contacts",
			mutate: func(in *Input) {
				in.Contacts = sheet.NewDataset([]string{ColContactRef, ColContactName}, [][]string{{"O1", "Martin"}})
			},
			wantCode: domain.CodeContactsMissingRequiredColumn,
		},
		{
			name: "empty inputs",
			mutate: func(in *Input) {
				in.Lots = sheet.Dataset{}
			},
			wantCode: domain.CodeEDDMissingRequiredColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newInput(
				[][]string{lotRow("A", "Appartement")},
				[][]string{{"O1", "A"}},
				[][]string{{"O1", "Monsieur", "Martin", ""}},
			)
			tt.mutate(&in)

			res := Reconcile(in)

			assert.Equal(t, domain.JobFailed, res.Status)
			assert.Empty(t, res.Units)
			assert.Empty(t, res.Lots)
			assert.Empty(t, res.Reviews)
			require.NotEmpty(t, res.Errors)
			assert.Equal(t, tt.wantCode, res.Errors[0].Code)
			assert.NotEmpty(t, res.Errors[0].Column)
			assert.Contains(t, codes(res.Issues), tt.wantCode)
			assert.GreaterOrEqual(t, res.Stats.IssuesError, 1)
			for _, i := range res.Issues {
				assert.Equal(t, domain.SeverityError, i.Severity)
			}
		})
	}
}

func TestReconcile_EveryMissingColumnIsReported(t *testing.T) {
	in := Input{}
	res := Reconcile(in)

	assert.Equal(t, domain.JobFailed, res.Status)
	assert.Len(t, res.Errors, len(RequiredEDDColumns)+len(RequiredLotRefColumns)+len(RequiredContactsColumns))
	assert.Equal(t, "Missing required column: NumLot", res.Errors[0].Message)
	assert.Equal(t, domain.EntityEDD, res.Errors[0].Entity)
}

func TestLinkOwners(t *testing.T) {
	ledger := issues.NewLedger()
	lots := ParseLots(sheet.NewDataset(eddHeader, [][]string{
		lotRow("A", "Appartement"),
		lotRow("B", "Cave"),
		lotRow("Z", "Cave"),
	}), ledger)
	contacts := ParseContacts(sheet.NewDataset(contactsHeader, [][]string{
		{"O1", "Monsieur", "Martin", ""},
	}), ledger)

	own := LinkOwners(sheet.NewDataset(lotRefHeader, [][]string{
		{"O1", "A"},
		{"O2", "B"},
		{"O1", "X"},
		{"O1", "A"},
		{"", "B"},
	}), lots, contacts, ledger)

	assert.Equal(t, []string{"O1", "O2"}, own.Owners())
	assert.Equal(t, []string{"A", "A"}, own.LotsOf("O1"))
	assert.Len(t, own.Links, 3)

	assert.Equal(t, []string{
		domain.CodeOwnerLinkWithoutLot,
		domain.CodeDuplicateOwnerLink,
		domain.CodeLotRefRowIncomplete,
		domain.CodeMissingOwnerLink,
		domain.CodeMissingContactForOwnerRef,
	}, codes(ledger.Entries()))

	entries := ledger.Entries()
	require.NotNil(t, entries[0].EntityKey)
	assert.Equal(t, "X", *entries[0].EntityKey)
	assert.Equal(t, `Lot "X" referenced in lot_ref but not found in EDD`, entries[0].Message)
	assert.Equal(t, "Z", *entries[3].EntityKey)
	assert.Equal(t, "O2", *entries[4].EntityKey)
}

func TestReconcile_DuplicateLinkDoesNotTriggerReview(t *testing.T) {
	in := newInput(
		[][]string{lotRow("A", "Appartement")},
		[][]string{{"O1", "A"}, {"O1", "A"}},
		[][]string{{"O1", "Monsieur", "Martin", ""}},
	)

	res := Reconcile(in)

	assert.Equal(t, domain.JobCompleted, res.Status)
	require.Len(t, res.Units, 1)
	assert.Len(t, res.Units[0].Lots, 1)
	assert.Len(t, res.Links, 2)
	assert.Equal(t, []string{domain.CodeDuplicateOwnerLink}, codes(res.Issues))
}

func TestParseLots(t *testing.T) {
	ledger := issues.NewLedger()
	set := ParseLots(sheet.NewDataset(eddHeader, [][]string{
		{"1", "RDC", "Appartement", "45,5", "411/10000", "45000", "1 200,00"},
		{"", "1", "Cave", "", "", "", ""},
		{"2", "SS", "Garage", "abc", "411", "31/02/2024", "x"},
		{"1", "1er", "Studio", "20", "", "2024-03-01", ""},
	}), ledger)

	require.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"1", "2"}, set.Numbers())

	lot1, ok := set.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Studio", lot1.LotTypeLabel)
	assert.Equal(t, "1er", lot1.FloorLabel)
	require.NotNil(t, lot1.SurfaceM2)
	assert.Equal(t, 20.0, *lot1.SurfaceM2)
	require.NotNil(t, lot1.AcquiredAt)
	assert.Equal(t, "2024-03-01", lot1.AcquiredAt.String())

	lot2, _ := set.Get("2")
	assert.Equal(t, domain.LotFamilyDependance, lot2.LotFamily)
	assert.Nil(t, lot2.SurfaceM2)
	assert.Nil(t, lot2.AcquiredAt)
	assert.Nil(t, lot2.WorksFundAmount)
	require.NotNil(t, lot2.TantiemesGeneral.Num)
	assert.Equal(t, int64(411), *lot2.TantiemesGeneral.Num)
	assert.Nil(t, lot2.TantiemesGeneral.Den)

	assert.Equal(t, []string{
		domain.CodeEDDRowMissingLotNumber,
		domain.CodeUnknownLotTypeMapping,
		domain.CodeTantiemeDenominatorMissing,
		domain.CodeEDDSurfaceLotInvalid,
		domain.CodeEDDWorksFundAmountInvalid,
		domain.CodeEDDDateArriveeInvalid,
		domain.CodeEDDDuplicateLotNumber,
	}, codes(ledger.Entries()))
	assert.Equal(t, 0, ledger.Count(domain.SeverityError))
}

func TestParseContacts(t *testing.T) {
	ledger := issues.NewLedger()
	set := ParseContacts(sheet.NewDataset(contactsHeader, [][]string{
		{"C1", "Monsieur", "Martin", "Paul"},
		{"C2", "Docteur", "House", "Greg"},
		{"C3", "INDIV", "Indivision Durand", "Ignored"},
		{"C4", "Madame", "", ""},
		{"C1", "Madame", "Martin", "Julie"},
	}), ledger)

	require.Equal(t, 3, set.Len())

	c1, _ := set.Get("C1")
	assert.Equal(t, "Julie Martin", c1.DisplayName)

	c2, _ := set.Get("C2")
	assert.Equal(t, domain.ContactPhysical, c2.Category)
	assert.Equal(t, "Greg House", c2.DisplayName)

	c3, _ := set.Get("C3")
	assert.Equal(t, domain.ContactGroup, c3.Category)
	require.NotNil(t, c3.GroupType)
	assert.Equal(t, domain.GroupIndivision, *c3.GroupType)
	assert.Nil(t, c3.LegalForm)
	assert.Equal(t, "Indivision Durand", c3.DisplayName)

	assert.Equal(t, []string{"C1", "C2", "C3"}, []string{set.All()[0].ExternalRef, set.All()[1].ExternalRef, set.All()[2].ExternalRef})
	assert.Equal(t, []string{
		domain.CodeContactsUnknownCivility,
		domain.CodeContactsRowMissingValue,
		domain.CodeContactsDuplicateReference,
	}, codes(ledger.Entries()))
}

func TestUnitBuilder_Outcomes(t *testing.T) {
	ledger := issues.NewLedger()
	lots := ParseLots(sheet.NewDataset(eddHeader, [][]string{
		lotRow("A", "Appartement"),
		lotRow("B", "Appartement"),
		lotRow("C", "Cave"),
	}), ledger)
	contacts := ParseContacts(sheet.Dataset{}, ledger)
	b := NewUnitBuilder(lots, contacts, nil, nil, ledger)

	assert.Equal(t, OutcomeSkipped, b.Build("O0", nil).Kind)
	assert.Equal(t, OutcomeSkipped, b.Build("O0", []string{"unknown"}).Kind)

	review := b.Build("O1", []string{"A", "B"})
	assert.Equal(t, OutcomeReview, review.Kind)
	require.NotNil(t, review.Review)
	assert.Empty(t, review.Units)

	units := b.Build("O2", []string{"C"})
	assert.Equal(t, OutcomeUnits, units.Kind)
	require.Len(t, units.Units, 1)
	assert.Nil(t, units.Units[0].Address)
	assert.Nil(t, units.Units[0].OwnerContactRef)
	assert.Empty(t, units.Units[0].Parcels)
	assert.Equal(t, "units", units.Kind.String())
}

func TestPrimaryAddress(t *testing.T) {
	assert.Nil(t, PrimaryAddress(nil))
	assert.Nil(t, PrimaryAddress([]domain.PropertyAddress{{Label: "x", Role: domain.AddressSecondary}}))

	addr := PrimaryAddress([]domain.PropertyAddress{
		{Label: "x", Role: domain.AddressSecondary},
		{Label: "y", Role: domain.AddressMain},
		{Label: "z", Role: domain.AddressMain},
	})
	require.NotNil(t, addr)
	assert.Equal(t, "y", addr.Label)
}

func TestReconcile_Deterministic(t *testing.T) {
	in := newInput(
		[][]string{lotRow("A", "Appartement"), lotRow("B", "Appartement"), lotRow("C", "Cave"), lotRow("D", "Garage")},
		[][]string{{"O2", "C"}, {"O1", "A"}, {"O1", "B"}, {"O3", "D"}},
		[][]string{{"O1", "Monsieur", "Martin", ""}},
	)

	first := Reconcile(in)
	second := Reconcile(in)
	assert.Equal(t, first, second)
	assert.Equal(t, "C", first.Units[0].MainLotNumber)
	assert.Equal(t, "D", first.Units[1].MainLotNumber)
}
