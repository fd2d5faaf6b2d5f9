package domain

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Entity types carried by data issues.
const (
	EntityLot      = "lot"
	EntityLotRef   = "lot_ref"
	EntityContact  = "contact"
	EntityOwner    = "owner"
	EntityEDD      = "edd"
	EntityContacts = "contacts"
	EntitySystem   = "system"
	EntityRequest  = "request"
)

// Issue codes.
const (
	// header validation (fatal)
	CodeEDDMissingRequiredColumn      = "edd_missing_required_column"
	CodeLotRefMissingRequiredColumn   = "lot_ref_missing_required_column"
	CodeContactsMissingRequiredColumn = "contacts_missing_required_column"

	// lot registry
	CodeEDDRowMissingLotNumber     = "edd_row_missing_lot_number"
	CodeEDDDuplicateLotNumber      = "edd_duplicate_lot_number"
	CodeUnknownLotTypeMapping      = "unknown_lot_type_mapping"
	CodeEDDSurfaceLotInvalid       = "edd_surface_lot_invalid"
	CodeEDDDateArriveeInvalid      = "edd_date_arrivee_invalid"
	CodeEDDWorksFundAmountInvalid  = "edd_works_fund_amount_invalid"
	CodeTantiemeDenominatorMissing = "tantieme_denominator_missing"
	CodeEDDTantiemeInvalidFormat   = "edd_tantieme_invalid_format"
	CodeEDDExteriorsCountMismatch  = "edd_exteriors_surface_count_mismatch"

	// contact directory
	CodeContactsRowMissingValue    = "contacts_row_missing_required_value"
	CodeContactsDuplicateReference = "contacts_duplicate_reference"
	CodeContactsUnknownCivility    = "contacts_unknown_civility_value"

	// owner links
	CodeLotRefRowIncomplete         = "lot_ref_row_incomplete"
	CodeOwnerLinkWithoutLot         = "owner_link_without_lot"
	CodeDuplicateOwnerLink          = "duplicate_owner_link"
	CodeMissingOwnerLink            = "missing_owner_link"
	CodeMissingContactForOwnerRef   = "missing_contact_for_owner_ref"
	CodeMainCommerceLotsNotAttached = "main_commerce_lots_not_attached"

	// API-level
	CodeInvalidRequest   = "invalid_request"
	CodeImportInProgress = "import_in_progress"
	CodeInternalError    = "internal_error"
)

// DataIssue is one severity-tagged diagnostic. Warnings never block a run;
// errors only come from header validation and are fatal.
type DataIssue struct {
	Severity   Severity       `json:"severity"`
	Code       string         `json:"code"`
	EntityType string         `json:"entity_type"`
	EntityKey  *string        `json:"entity_key"`
	Message    string         `json:"message"`
	Payload    map[string]any `json:"payload"`
}

// BlockingError is the API rendering of a fatal problem.
type BlockingError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Entity  string `json:"entity"`
	Column  string `json:"column,omitempty"`
}
