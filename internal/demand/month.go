package demand

import (
	"fmt"
	"strconv"
	"strings"
)

// monthNames holds the canonical month names in calendar order.
var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// fiscalOrdinals lists calendar ordinals in fiscal-year order, April first.
// Planning workbooks lay their twelve month columns out in this order.
var fiscalOrdinals = [12]int{4, 5, 6, 7, 8, 9, 10, 11, 12, 1, 2, 3}

// monthVariants maps lowered, stripped spellings to calendar ordinals.
// Covers full names, three-letter abbreviations plus "sept", and zero-padded
// or bare numeric forms.
var monthVariants = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// Positional fallback layout: when a sheet carries no recognizable month
// headers at all, spreadsheet columns D..O (zero-based 3..14) hold
// April..March.
const (
	firstFiscalColumn = 3
	fiscalColumnCount = 12
)

// MonthKey identifies one calendar month within a series. Month is the
// calendar ordinal 1..12. Year is zero for bare keys ("April") and set for
// absolute keys ("2025-04"); one form is used consistently within one
// dataset. The zero MonthKey is invalid.
type MonthKey struct {
	Month int
	Year  int
}

// IsZero reports whether the key is unset.
func (k MonthKey) IsZero() bool {
	return k.Month == 0
}

// Absolute reports whether the key carries year context.
func (k MonthKey) Absolute() bool {
	return k.Year != 0
}

// Name returns the canonical month name.
func (k MonthKey) Name() string {
	if k.Month < 1 || k.Month > 12 {
		return ""
	}
	return monthNames[k.Month-1]
}

// String renders the wire form: the bare name, or "YYYY-MM" when year
// context is known.
func (k MonthKey) String() string {
	if k.Absolute() {
		return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
	}
	return k.Name()
}

// FiscalIndex positions the month in the fiscal year: April is 0, March 11.
func (k MonthKey) FiscalIndex() int {
	return (k.Month + 8) % 12
}

// Next advances the key by one month. Bare keys wrap around the fiscal
// list; absolute keys roll the year at December.
func (k MonthKey) Next() MonthKey {
	next := MonthKey{Month: k.Month%12 + 1, Year: k.Year}
	if k.Absolute() && k.Month == 12 {
		next.Year = k.Year + 1
	}
	return next
}

// Before orders keys for series assembly: absolute keys by (year, month),
// bare keys by fiscal position.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Absolute() && other.Absolute() {
		if k.Year != other.Year {
			return k.Year < other.Year
		}
		return k.Month < other.Month
	}
	return k.FiscalIndex() < other.FiscalIndex()
}

// NormalizeMonth parses a raw header or label into a MonthKey. It is
// case-insensitive, trims whitespace, strips trailing periods and the
// Japanese 月 suffix, and accepts full names, abbreviations, numeric forms
// ("4", "04"), and absolute "YYYY-MM" forms. A false return means the input
// is not a month — callers skip the column, they never fail on it.
func NormalizeMonth(raw string) (MonthKey, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return MonthKey{}, false
	}

	if key, ok := parseAbsoluteMonth(text); ok {
		return key, true
	}

	text = strings.ToLower(text)
	text = strings.TrimSuffix(text, "月")
	text = strings.TrimRight(text, ". ")
	if text == "" {
		return MonthKey{}, false
	}

	if ordinal, ok := monthVariants[text]; ok {
		return MonthKey{Month: ordinal}, true
	}
	if ordinal, err := strconv.Atoi(text); err == nil && ordinal >= 1 && ordinal <= 12 {
		return MonthKey{Month: ordinal}, true
	}

	return MonthKey{}, false
}

// parseAbsoluteMonth recognizes "YYYY-MM" and "YYYY/MM".
func parseAbsoluteMonth(text string) (MonthKey, bool) {
	sep := strings.IndexAny(text, "-/")
	if sep != 4 {
		return MonthKey{}, false
	}

	year, err := strconv.Atoi(text[:sep])
	if err != nil || year < 1900 || year > 2999 {
		return MonthKey{}, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(text[sep+1:]))
	if err != nil || month < 1 || month > 12 {
		return MonthKey{}, false
	}

	return MonthKey{Month: month, Year: year}, true
}

// MonthFromColumn maps a zero-based column index to its fiscal-layout
// month. Only columns D..O resolve; everything else is not a month column.
func MonthFromColumn(col int) (MonthKey, bool) {
	idx := col - firstFiscalColumn
	if idx < 0 || idx >= fiscalColumnCount {
		return MonthKey{}, false
	}
	return MonthKey{Month: fiscalOrdinals[idx]}, true
}
