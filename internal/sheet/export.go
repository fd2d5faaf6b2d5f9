package sheet

import (
	"bytes"
	"fmt"
	"strings"

	"copro-edd-import/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Table is one worksheet to render.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	Widths []float64
}

var reviewHeader = []string{
	"Review ID",
	"Owner Ref",
	"Display Name",
	"Contact Category",
	"Legal Form",
	"Group Type",
	"Main Habitation Lots",
	"Main Commerce Lots",
	"Dependance Lots",
	"Reason",
}

var proposalHeader = []string{
	"Owner Ref",
	"Proposal",
	"Main Lot",
	"Unit Type",
	"Lots",
}

// ExportReviews renders review cases as a workbook: one "Reviews" sheet with
// a row per case and one "Proposals" sheet with a row per candidate unit.
func ExportReviews(reviews []domain.ReviewCase) ([]byte, error) {
	reviewRows := make([][]string, 0, len(reviews))
	proposalRows := [][]string{}
	for _, r := range reviews {
		reviewRows = append(reviewRows, []string{
			r.ID,
			r.OwnerRef,
			r.DisplayName,
			string(r.ContactCategory),
			optional(r.LegalForm),
			optional(r.GroupType),
			joinLots(r.LotsInScope.MainHabitation),
			joinLots(r.LotsInScope.MainCommerce),
			joinLots(r.LotsInScope.Dependance),
			string(r.Reason),
		})
		for _, p := range r.Proposals.Split {
			proposalRows = append(proposalRows, []string{
				r.OwnerRef, "P1_split", p.MainLot, string(p.UnitType), strings.Join(append([]string{p.MainLot}, p.DepLots...), ", "),
			})
		}
		m := r.Proposals.Merge
		proposalRows = append(proposalRows, []string{
			r.OwnerRef, "P2_merge", m.MainLot, string(m.UnitType), strings.Join(m.AllLots, ", "),
		})
	}

	return BuildWorkbook(
		Table{Name: "Reviews", Header: reviewHeader, Rows: reviewRows, Widths: []float64{38, 15, 30, 18, 12, 12, 25, 25, 25, 32}},
		Table{Name: "Proposals", Header: proposalHeader, Rows: proposalRows, Widths: []float64{15, 12, 12, 14, 40}},
	)
}

// BuildWorkbook writes every table to its own sheet with a styled, frozen header row.
func BuildWorkbook(tables ...Table) ([]byte, error) {
	f := excelize.NewFile()
	// 不使用 defer Close: WriteTo 需要文件保持打开

	if len(tables) == 0 {
		f.Close()
		return nil, fmt.Errorf("no table to write")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for _, t := range tables {
		if err := writeTable(f, t, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}
	if !hasTable(tables, "Sheet1") {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}
	if idx, err := f.GetSheetIndex(tables[0].Name); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, t Table, headerStyle int) error {
	if _, err := f.NewSheet(t.Name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
	}

	for col, h := range t.Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(t.Name, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(t.Name, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i, w := range t.Widths {
		if i >= len(t.Header) || w <= 0 {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(t.Name, col, col, w); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for r, row := range t.Rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellStr(t.Name, cell, v); err != nil {
				return fmt.Errorf("failed to set cell value at row %d, col %d: %w", r+2, c+1, err)
			}
		}
	}

	if err := f.SetPanes(t.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func hasTable(tables []Table, name string) bool {
	for _, t := range tables {
		if t.Name == name {
			return true
		}
	}
	return false
}

func joinLots(lots []domain.ReviewLot) string {
	parts := make([]string, 0, len(lots))
	for _, l := range lots {
		parts = append(parts, l.LotNumber)
	}
	return strings.Join(parts, ", ")
}

func optional[T ~string](v *T) string {
	if v == nil {
		return ""
	}
	return string(*v)
}
