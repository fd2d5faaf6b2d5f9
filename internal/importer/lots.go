package importer

import (
	"fmt"

	"copro-edd-import/internal/classify"
	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/issues"
	"copro-edd-import/internal/normalize"
	"copro-edd-import/internal/sheet"
)

// LotSet is the parsed lot registry keyed by lot number, in file order.
// It is built once by ParseLots and never mutated afterwards.
type LotSet struct {
	order []string
	lots  map[string]domain.ParsedLot
}

func (s *LotSet) Get(lotNumber string) (domain.ParsedLot, bool) {
	l, ok := s.lots[lotNumber]
	return l, ok
}

func (s *LotSet) Has(lotNumber string) bool {
	_, ok := s.lots[lotNumber]
	return ok
}

func (s *LotSet) Len() int {
	return len(s.order)
}

// Numbers returns the lot numbers in file order.
func (s *LotSet) Numbers() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// All returns the lots in file order.
func (s *LotSet) All() []domain.ParsedLot {
	out := make([]domain.ParsedLot, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.lots[n])
	}
	return out
}

// ParseLots normalizes every EDD row. Rows without a lot number are skipped;
// a repeated lot number replaces the earlier values and keeps its position.
func ParseLots(ds sheet.Dataset, sink issues.Sink) *LotSet {
	set := &LotSet{lots: make(map[string]domain.ParsedLot, len(ds.Rows))}
	firstRow := map[string]int{}

	for i, row := range ds.Rows {
		rowNum := i + 2 // 第1行是表头
		lotNumber := normalize.String(row.Get(ColLotNumber))
		if lotNumber == "" {
			sink.Add(issues.Warning(
				domain.CodeEDDRowMissingLotNumber,
				domain.EntityEDD,
				"",
				fmt.Sprintf("Row %d has no %s, skipped", rowNum, ColLotNumber),
				map[string]any{"row": rowNum},
			))
			continue
		}

		lot := parseLot(lotNumber, row, sink)

		if first, dup := firstRow[lotNumber]; dup {
			sink.Add(issues.Warning(
				domain.CodeEDDDuplicateLotNumber,
				domain.EntityLot,
				lotNumber,
				fmt.Sprintf("Lot %q appears more than once in EDD; row %d replaces row %d", lotNumber, rowNum, first),
				map[string]any{"lot_number": lotNumber, "row": rowNum, "first_row": first},
			))
		} else {
			firstRow[lotNumber] = rowNum
			set.order = append(set.order, lotNumber)
		}
		set.lots[lotNumber] = lot
	}
	return set
}

func parseLot(lotNumber string, row sheet.Row, sink issues.Sink) domain.ParsedLot {
	typeLabel := normalize.String(row.Get(ColLotType))

	lot := domain.ParsedLot{
		LotNumber:    lotNumber,
		FloorLabel:   normalize.String(row.Get(ColFloor)),
		LotTypeLabel: typeLabel,
		LotFamily:    classify.LotFamily(typeLabel, lotNumber, sink),
		Exteriors: normalize.Exteriors(
			row.Get(ColExteriors), row.Get(ColExteriorSurface), lotNumber, sink,
		),
		TantiemesGeneral:  normalize.Tantieme(row.Get(ColSharesGeneral), ColSharesGeneral, lotNumber, sink),
		TantiemesElevator: normalize.Tantieme(row.Get(ColSharesElevator), ColSharesElevator, lotNumber, sink),
		TantiemesStairs:   normalize.Tantieme(row.Get(ColSharesStairs), ColSharesStairs, lotNumber, sink),
		TantiemesHeating:  normalize.Tantieme(row.Get(ColSharesHeating), ColSharesHeating, lotNumber, sink),
		Observations:      normalize.OptionalString(row.Get(ColObservations)),
		Building:          normalize.OptionalString(row.Get(ColBuilding)),
		Staircase:         normalize.OptionalString(row.Get(ColStaircase)),
		Rooms:             normalize.OptionalString(row.Get(ColRooms)),
		DoorNumber:        normalize.OptionalString(row.Get(ColDoorNumber)),
		AnnexLot:          normalize.OptionalString(row.Get(ColAnnexLot)),
	}

	lot.SurfaceM2 = numericField(row, ColSurface, domain.CodeEDDSurfaceLotInvalid, lotNumber, sink)
	lot.WorksFundAmount = numericField(row, ColWorksFund, domain.CodeEDDWorksFundAmountInvalid, lotNumber, sink)

	if raw := normalize.String(row.Get(ColAcquiredAt)); raw != "" {
		if t, ok := normalize.Date(raw); ok {
			d := domain.NewDate(t)
			lot.AcquiredAt = &d
		} else {
			sink.Add(issues.Warning(
				domain.CodeEDDDateArriveeInvalid,
				domain.EntityLot,
				lotNumber,
				fmt.Sprintf("Invalid %s value: %q", ColAcquiredAt, raw),
				map[string]any{"value": raw},
			))
		}
	}
	return lot
}

// numericField parses an optional decimal column; a non-empty cell that
// does not parse is reported under code and left null.
func numericField(row sheet.Row, column, code, lotNumber string, sink issues.Sink) *float64 {
	raw := normalize.String(row.Get(column))
	if raw == "" {
		return nil
	}
	if v, ok := normalize.Number(raw); ok {
		return &v
	}
	sink.Add(issues.Warning(
		code,
		domain.EntityLot,
		lotNumber,
		fmt.Sprintf("Invalid %s value: %q", column, raw),
		map[string]any{"column": column, "value": raw},
	))
	return nil
}
