package domain

// LotFamily 由 TypeLot 文本派生的地块分类
type LotFamily string

const (
	LotFamilyMainHabitation LotFamily = "MAIN_HABITATION"
	LotFamilyMainCommerce   LotFamily = "MAIN_COMMERCE"
	LotFamilyDependance     LotFamily = "DEPENDANCE"
)

// Fraction is an ownership share (tantieme). Either side may be unknown.
type Fraction struct {
	Num *int64 `json:"num"`
	Den *int64 `json:"den"`
}

// Exterior is one exterior attached to a lot (terrace, balcony, garden...).
type Exterior struct {
	Type      string   `json:"type"`
	SurfaceM2 *float64 `json:"surface_m2"`
}

// ParsedLot is one row of the lot registry after normalization.
// lot_number is unique within a property.
type ParsedLot struct {
	LotNumber         string     `json:"lot_number"`
	FloorLabel        string     `json:"floor_label"`
	LotTypeLabel      string     `json:"lot_type_label"`
	LotFamily         LotFamily  `json:"lot_family"`
	SurfaceM2         *float64   `json:"surface_m2"`
	Exteriors         []Exterior `json:"exteriors"` // nil when the row lists no exterior
	TantiemesGeneral  Fraction   `json:"tantiemes_general"`
	TantiemesElevator Fraction   `json:"tantiemes_elevator"`
	TantiemesStairs   Fraction   `json:"tantiemes_stairs"`
	TantiemesHeating  Fraction   `json:"tantiemes_heating"`
	Observations      *string    `json:"observations"`
	AcquiredAt        *Date      `json:"acquired_at"`
	Building          *string    `json:"building"`
	Staircase         *string    `json:"staircase"`
	Rooms             *string    `json:"nb_rooms"`
	DoorNumber        *string    `json:"door_number"`
	AnnexLot          *string    `json:"annex_lot"`
	WorksFundAmount   *float64   `json:"works_fund_amount"`
}

// OwnerLotLink is one (owner_ref, lot_number) pair of the reference extract.
type OwnerLotLink struct {
	OwnerRef  string `json:"owner_ref"`
	LotNumber string `json:"lot_number"`
}
