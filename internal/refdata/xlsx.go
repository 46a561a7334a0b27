package refdata

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/HabtB/Pharmacy-Pickup/internal/locate"
)

// LoadXLSX reads a reference table from an Excel workbook. An empty sheet
// name selects the first sheet.
func LoadXLSX(path, sheet string) ([]locate.ReferenceRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open reference workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readWorkbook(f, sheet)
}

// ReadXLSX reads a reference table from workbook bytes.
func ReadXLSX(r io.Reader, sheet string) ([]locate.ReferenceRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open reference workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readWorkbook(f, sheet)
}

func readWorkbook(f *excelize.File, sheet string) ([]locate.ReferenceRow, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoReferenceRows
		}
		sheet = sheets[0]
	}
	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return fromRecords(records)
}
