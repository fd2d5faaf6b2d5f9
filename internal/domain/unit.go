package domain

type UnitType string

const (
	UnitHabitation UnitType = "habitation"
	UnitCommercial UnitType = "commercial"
	UnitDependance UnitType = "dependance"
)

// LotRole 单元内地块角色
type LotRole string

const (
	LotRoleMain  LotRole = "main"
	LotRoleAnnex LotRole = "annex"
)

type AddressRole string

const (
	AddressMain      AddressRole = "main"
	AddressSecondary AddressRole = "secondary"
)

// PropertyAddress is an address label configured for the property.
type PropertyAddress struct {
	Label string      `json:"label"`
	Role  AddressRole `json:"role"`
}

type UnitLot struct {
	LotNumber string  `json:"lot_number"`
	Role      LotRole `json:"role"`
}

// Unit groups one main lot (or one dependance group) with its annex lots,
// its owner, the property's primary address and every cadastral parcel.
type Unit struct {
	Type            UnitType         `json:"unit_type"`
	MainLotNumber   string           `json:"main_lot_number"`
	OwnerRef        string           `json:"source_owner_external_ref"`
	OwnerContactRef *string          `json:"owner_contact_ref"` // nil when no contact matches the owner ref
	Lots            []UnitLot        `json:"lots"`
	Address         *PropertyAddress `json:"address"`
	Parcels         []string         `json:"parcels"`
}

// LotNumbers returns the member lot numbers with the given role, in order.
func (u Unit) LotNumbers(role LotRole) []string {
	out := []string{}
	for _, l := range u.Lots {
		if l.Role == role {
			out = append(out, l.LotNumber)
		}
	}
	return out
}
