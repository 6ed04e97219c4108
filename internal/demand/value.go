package demand

import (
	"math"
	"strconv"
	"strings"
)

// CellValue is a normalized numeric reading with explicit absence. Absence
// means the cell was empty or unparseable; it is never coerced to zero
// anywhere in the engine. The one sanctioned exception is the overall
// aggregation in dataset.go, which skips absent values when summing.
type CellValue struct {
	Float float64
	Valid bool
}

// Value wraps a present reading.
func Value(f float64) CellValue {
	return CellValue{Float: f, Valid: true}
}

// Absent is the explicit no-data marker.
func Absent() CellValue {
	return CellValue{}
}

// Ptr converts to the wire representation: a pointer that is nil when the
// value is absent, so JSON renders null rather than 0.
func (v CellValue) Ptr() *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float
	return &f
}

// currencyStripper removes currency symbols and digit separators before
// numeric parsing.
var currencyStripper = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	"¥", "",
	",", "",
	"%", "",
)

// NormalizeValue parses one raw cell into a CellValue. Rules, in order:
// blank input is absent; currency symbols and thousands separators are
// stripped; a parenthesized value is negative; trailing percent signs are
// stripped without rescaling; anything that still fails to parse as a
// finite number is absent. The function never returns an error — a bad
// cell is missing data, not a fault.
func NormalizeValue(raw string) CellValue {
	text := strings.TrimSpace(raw)
	if text == "" || text == "-" {
		return Absent()
	}

	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		negative = true
		text = strings.TrimSpace(text[1 : len(text)-1])
	}

	text = strings.TrimSpace(currencyStripper.Replace(text))
	if text == "" {
		return Absent()
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Absent()
	}
	if negative {
		f = -f
	}

	return Value(f)
}
