package domain

type ReviewReason string

const ReviewMultipleHabitationMainLots ReviewReason = "multiple_habitation_main_lots"

const ReviewStatusPending = "pending_review"

type ReviewLot struct {
	LotNumber    string `json:"lot_number"`
	LotTypeLabel string `json:"lot_type_label"`
}

// LotsInScope is every lot of the owner, grouped by family.
type LotsInScope struct {
	MainHabitation []ReviewLot `json:"main_habitation"`
	MainCommerce   []ReviewLot `json:"main_commerce"`
	Dependance     []ReviewLot `json:"dependance"`
}

// SplitProposal: one candidate unit per main habitation lot, each carrying every dependance.
type SplitProposal struct {
	MainLot  string   `json:"main_lot"`
	UnitType UnitType `json:"unit_type"`
	DepLots  []string `json:"dep_lots"`
}

// MergeProposal: a single unit anchored on the first main habitation lot.
type MergeProposal struct {
	MainLot  string   `json:"main_lot"`
	UnitType UnitType `json:"unit_type"`
	AllLots  []string `json:"all_lots"`
}

type Proposals struct {
	Split []SplitProposal `json:"P1_split"`
	Merge MergeProposal   `json:"P2_merge"`
}

// ReviewCase replaces the units of an owner whose ownership is ambiguous.
// It stays pending; resolution happens outside the import.
type ReviewCase struct {
	ID              string          `json:"review_id,omitempty"`
	OwnerRef        string          `json:"owner_ref"`
	Reason          ReviewReason    `json:"reason"`
	Status          string          `json:"status"`
	DisplayName     string          `json:"display_name"`
	ContactCategory ContactCategory `json:"contact_category"`
	LegalForm       *LegalForm      `json:"legal_form"`
	GroupType       *GroupType      `json:"group_type"`
	LotsInScope     LotsInScope     `json:"lots_in_scope"`
	Proposals       Proposals       `json:"proposals"`
}

// ReviewSummary is the API rendering of a review case.
type ReviewSummary struct {
	ReviewID        string          `json:"review_id"`
	OwnerRef        string          `json:"owner_ref"`
	DisplayName     string          `json:"display_name"`
	ContactCategory ContactCategory `json:"contact_category"`
	LegalForm       *LegalForm      `json:"legal_form"`
	GroupType       *GroupType      `json:"group_type"`
	MainHabLots     []string        `json:"main_hab_lots"`
	DepLots         []string        `json:"dep_lots"`
	Reason          ReviewReason    `json:"reason"`
}

func (r ReviewCase) Summary() ReviewSummary {
	return ReviewSummary{
		ReviewID:        r.ID,
		OwnerRef:        r.OwnerRef,
		DisplayName:     r.DisplayName,
		ContactCategory: r.ContactCategory,
		LegalForm:       r.LegalForm,
		GroupType:       r.GroupType,
		MainHabLots:     lotNumbers(r.LotsInScope.MainHabitation),
		DepLots:         lotNumbers(r.LotsInScope.Dependance),
		Reason:          r.Reason,
	}
}

func lotNumbers(lots []ReviewLot) []string {
	out := make([]string, 0, len(lots))
	for _, l := range lots {
		out = append(out, l.LotNumber)
	}
	return out
}
