package sheet

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Decode reads the first sheet of an xlsx workbook. The first row is the
// header row. Cells are read raw (no number formats), so dates arrive as
// day serials and decimals keep their precision.
func Decode(data []byte) (Dataset, error) {
	return DecodeReader(bytes.NewReader(data))
}

func DecodeReader(r io.Reader) (Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to parse Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return Dataset{}, fmt.Errorf("excel file has no sheets")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read rows of %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return Dataset{}, nil
	}
	return NewDataset(rows[0], rows[1:]), nil
}
