package domain

// ContactCategory 联系人类别（仅由 Civilité 推导）
type ContactCategory string

const (
	ContactPhysical    ContactCategory = "physical"
	ContactLegalEntity ContactCategory = "legal_entity"
	ContactGroup       ContactCategory = "group"
)

type LegalForm string

const (
	LegalFormSTE LegalForm = "STE"
	LegalFormSCI LegalForm = "SCI"
	LegalFormSDC LegalForm = "SDC"
)

type GroupType string

const (
	GroupIndivision GroupType = "INDIV"
	GroupConsortium GroupType = "CONSOR"
	GroupSuccession GroupType = "SUCESS"
)

// ParsedContact is one row of the contact directory after normalization.
// Category, LegalForm and GroupType are mutually exclusive: LegalForm is set
// only for legal entities, GroupType only for groups.
type ParsedContact struct {
	ExternalRef    string          `json:"external_ref"`
	CivilityRaw    string          `json:"civility_raw"`
	Category       ContactCategory `json:"contact_category"`
	LegalForm      *LegalForm      `json:"legal_form"`
	GroupType      *GroupType      `json:"group_type"`
	FirstName      *string         `json:"first_name"`
	LastNameOrName string          `json:"last_name_or_name"`
	DisplayName    string          `json:"display_name"`
	AddressLine1   *string         `json:"address_line1"`
	AddressLine2   *string         `json:"address_line2"`
	Postcode       *string         `json:"postcode"`
	City           *string         `json:"city"`
	Country        *string         `json:"country"`
	Email          *string         `json:"email"`
	Phone1         *string         `json:"phone1"`
	Phone2         *string         `json:"phone2"`
}
