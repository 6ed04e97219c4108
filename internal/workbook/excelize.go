package workbook

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// LoadWorkbook reads an XLSX file from disk into a Grid. Open or read
// failures mean the input is not a usable workbook; they are reported to
// the caller and are distinct from the engine's structural errors.
func LoadWorkbook(path string) (*Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	return gridFromFile(f)
}

// LoadWorkbookReader reads an XLSX stream (for example an HTTP upload body)
// into a Grid.
func LoadWorkbookReader(r io.Reader) (*Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook stream: %w", err)
	}
	defer f.Close()

	return gridFromFile(f)
}

func gridFromFile(f *excelize.File) (*Grid, error) {
	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, fmt.Errorf("workbook contains no sheets")
	}

	sheets := make([]Sheet, 0, len(sheetNames))
	for _, name := range sheetNames {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}

	grid := NewGrid(sheets...)
	slog.Debug("workbook loaded",
		slog.Int("sheet_count", len(sheets)),
		slog.String("fingerprint", shortDigest(grid.Fingerprint())))

	return grid, nil
}
