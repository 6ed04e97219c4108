// Package workbook is the tabular input boundary of the extraction engine.
//
// A Grid is a snapshot of one workbook: per sheet, a 2-D slice of raw cell
// strings with row/column addressing. The engine consumes Grids and never
// touches the loader libraries directly, so the same pipeline runs over an
// uploaded XLSX file, a Google spreadsheet, or an in-memory table built in
// a test.
package workbook

import (
	"fmt"
	"strings"
)

// Sheet holds one worksheet's raw cells. Rows may be ragged: a missing
// trailing cell reads as blank through Cell.
type Sheet struct {
	Name string
	Rows [][]string
}

// Cell returns the raw text at (row, col), or "" when the address falls
// outside the sheet. Addressing is zero-based.
func (s Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// RowCount reports the number of rows in the sheet.
func (s Sheet) RowCount() int {
	return len(s.Rows)
}

// MaxCols reports the widest row in the sheet.
func (s Sheet) MaxCols() int {
	max := 0
	for _, row := range s.Rows {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// IsEmpty reports whether the sheet has no non-blank cell.
func (s Sheet) IsEmpty() bool {
	for _, row := range s.Rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return false
			}
		}
	}
	return true
}

// Grid is one workbook snapshot. It is immutable after construction; the
// fingerprint is computed once over the raw content.
type Grid struct {
	sheets      []Sheet
	fingerprint string
}

// NewGrid builds a grid from already-loaded sheets.
func NewGrid(sheets ...Sheet) *Grid {
	g := &Grid{sheets: sheets}
	g.fingerprint = fingerprintSheets(sheets)
	return g
}

// NewGridFromRows builds a single-sheet grid from raw rows. This is the
// entry point for tests and for callers that already hold tabular data.
func NewGridFromRows(name string, rows [][]string) *Grid {
	return NewGrid(Sheet{Name: name, Rows: rows})
}

// Sheets returns the workbook's sheets in workbook order.
func (g *Grid) Sheets() []Sheet {
	return g.sheets
}

// SheetNames returns the sheet names in workbook order.
func (g *Grid) SheetNames() []string {
	names := make([]string, len(g.sheets))
	for i, s := range g.sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet returns the named sheet.
func (g *Grid) Sheet(name string) (Sheet, bool) {
	for _, s := range g.sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// IsEmpty reports whether the grid holds no non-blank cell on any sheet.
func (g *Grid) IsEmpty() bool {
	for _, s := range g.sheets {
		if !s.IsEmpty() {
			return false
		}
	}
	return true
}

// Fingerprint returns the content digest of the grid, stable across loads
// of identical content regardless of source. It is the designated cache key
// for any layer that wants to memoize extraction results.
func (g *Grid) Fingerprint() string {
	return g.fingerprint
}

// String describes the grid for logs.
func (g *Grid) String() string {
	rows := 0
	for _, s := range g.sheets {
		rows += len(s.Rows)
	}
	return fmt.Sprintf("workbook{sheets: %d, rows: %d, fingerprint: %s}", len(g.sheets), rows, shortDigest(g.fingerprint))
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
