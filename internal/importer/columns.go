package importer

import (
	"fmt"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"
	"copro-edd-import/internal/sheet"
)

// Lot registry (EDD) headers.
const (
	ColLotNumber       = "NumLot"
	ColFloor           = "Etage"
	ColLotType         = "TypeLot"
	ColSurface         = "SurfaceLot"
	ColExteriors       = "Exterieurs"
	ColExteriorSurface = "SurfaceExterieurs"
	ColSharesGeneral   = "QuotesPartsGenerales"
	ColSharesElevator  = "Quotes-parts Ascenseurs"
	ColSharesStairs    = "Quotes-parts Escaliers"
	ColSharesHeating   = "Quotes-parts Chauffage"
	ColObservations    = "Observations"
	ColAcquiredAt      = "DateArrivee"
	ColBuilding        = "Batiment"
	ColStaircase       = "Escalier"
	ColRooms           = "NbPieces"
	ColDoorNumber      = "NumPorte"
	ColAnnexLot        = "AnnexeLot"
	ColWorksFund       = "Montant Fond travaux"
)

// Reference list (lot_ref) headers.
const (
	ColRefOwner     = "Référence"
	ColRefLotNumber = "N° lot"
)

// Contact directory headers.
const (
	ColContactRef      = "Référence"
	ColContactCivility = "Civilité"
	ColContactName     = "Nom"
	ColContactFirst    = "Prénom"
	ColContactAddress1 = "Adresse 1"
	ColContactAddress2 = "Adresse 2"
	ColContactPostcode = "Code postal"
	ColContactCity     = "Ville"
	ColContactCountry  = "Pays"
	ColContactEmail    = "e-mail"
	ColContactPhone1   = "Téléphone 1"
	ColContactPhone2   = "Téléphone 2"
)

var (
	RequiredEDDColumns      = []string{ColLotNumber, ColFloor, ColLotType}
	RequiredLotRefColumns   = []string{ColRefOwner, ColRefLotNumber}
	RequiredContactsColumns = []string{ColContactRef, ColContactCivility, ColContactName}
)

type headerCheck struct {
	dataset  sheet.Dataset
	required []string
	code     string
	entity   string
}

// ValidateHeaders checks the three inputs against their required header sets.
// Every missing column is reported, as an error issue and as a blocking error.
func ValidateHeaders(in Input, sink issues.Sink) []domain.BlockingError {
	checks := []headerCheck{
		{in.Lots, RequiredEDDColumns, domain.CodeEDDMissingRequiredColumn, domain.EntityEDD},
		{in.OwnerRefs, RequiredLotRefColumns, domain.CodeLotRefMissingRequiredColumn, domain.EntityLotRef},
		{in.Contacts, RequiredContactsColumns, domain.CodeContactsMissingRequiredColumn, domain.EntityContacts},
	}

	var blocking []domain.BlockingError
	for _, c := range checks {
		for _, col := range c.required {
			if c.dataset.HasHeader(col) {
				continue
			}
			msg := fmt.Sprintf("Missing required column: %s", col)
			sink.Add(issues.Error(c.code, c.entity, "", msg, map[string]any{"column": col}))
			blocking = append(blocking, domain.BlockingError{
				Code:    c.code,
				Message: msg,
				Entity:  c.entity,
				Column:  col,
			})
		}
	}
	return blocking
}
