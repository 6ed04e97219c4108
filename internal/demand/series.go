package demand

import (
	"log/slog"
	"sort"
	"strings"
)

// SeriesPoint is one month's reading in a series.
type SeriesPoint struct {
	Month MonthKey
	Value CellValue
}

// Series is an ordered mapping from month to value for one product:
// calendar order, one entry per month encountered, values possibly absent.
type Series []SeriesPoint

// Present counts the entries holding an actual value.
func (s Series) Present() int {
	n := 0
	for _, p := range s {
		if p.Value.Valid {
			n++
		}
	}
	return n
}

// PresentValues returns the present values in series order.
func (s Series) PresentValues() []float64 {
	values := make([]float64, 0, len(s))
	for _, p := range s {
		if p.Value.Valid {
			values = append(values, p.Value.Float)
		}
	}
	return values
}

// LastMonth returns the final month of the series.
func (s Series) LastMonth() (MonthKey, bool) {
	if len(s) == 0 {
		return MonthKey{}, false
	}
	return s[len(s)-1].Month, true
}

// sortSeries orders points by month: fiscal position for bare keys,
// ascending year-month for absolute keys.
func sortSeries(s Series) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Month.Before(s[j].Month)
	})
}

// ProductResult pairs a detected product with its extracted series and,
// when the sheet carried one, its per-unit consumption reading.
type ProductResult struct {
	Product Product
	Series  Series
	PerUnit CellValue
}

// Extractor turns detected blocks into gap-aware series. Stateless apart
// from the logger; safe for concurrent use.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger.With(slog.String("component", "extractor"))}
}

// Extract builds the per-product results for one block. A wide block
// yields exactly one result; a long block yields one result per distinct
// product found in its rows. Malformed cells become absent values — the
// extractor never fails.
func (e *Extractor) Extract(block Block) []ProductResult {
	if block.Kind == KindLong {
		return e.extractLong(block)
	}
	return []ProductResult{{
		Product: block.Product,
		Series:  e.extractWide(block),
	}}
}

// extractWide reads one product's months from its column region. Each
// month's value is the sum of the present cells in that column between the
// product row and the block end; a column with no present cell stays
// absent. Duplicate month headers resolve last-column-wins with a warning.
func (e *Extractor) extractWide(block Block) Series {
	order := make([]MonthKey, 0, len(block.Columns))
	values := make(map[MonthKey]CellValue, len(block.Columns))

	for _, mc := range block.Columns {
		value := Absent()
		for row := block.Row; row < block.EndRow; row++ {
			cell := NormalizeValue(block.Sheet.Cell(row, mc.Col))
			if !cell.Valid {
				continue
			}
			if value.Valid {
				value = Value(value.Float + cell.Float)
			} else {
				value = cell
			}
		}

		if _, dup := values[mc.Month]; dup {
			e.logger.Warn("duplicate month column, later column wins",
				slog.String("product", block.Product.Code),
				slog.String("sheet", block.Sheet.Name),
				slog.String("month", mc.Month.String()),
				slog.Int("column", mc.Col))
		} else {
			order = append(order, mc.Month)
		}
		values[mc.Month] = value
	}

	series := make(Series, 0, len(order))
	for _, key := range order {
		series = append(series, SeriesPoint{Month: key, Value: values[key]})
	}
	sortSeries(series)
	return series
}

// extractLong splits a tidy table into per-product series. Rows with an
// unresolvable month are skipped; rows with an unparseable demand become
// absent entries. Duplicate (product, month) rows resolve last-seen-wins
// with a warning, the same law as duplicate columns in wide blocks.
func (e *Extractor) extractLong(block Block) []ProductResult {
	type state struct {
		result ProductResult
		seen   map[MonthKey]int // month → index into result.Series
	}

	var order []string
	byCode := make(map[string]*state)

	for row := block.Row; row < block.EndRow; row++ {
		code := strings.TrimSpace(block.Sheet.Cell(row, block.ProductCol))
		if code == "" {
			continue
		}
		month, ok := NormalizeMonth(block.Sheet.Cell(row, block.MonthCol))
		if !ok {
			continue
		}
		value := NormalizeValue(block.Sheet.Cell(row, block.DemandCol))

		upper := strings.ToUpper(code)
		st := byCode[upper]
		if st == nil {
			st = &state{
				result: ProductResult{
					Product: Product{Code: code, Sheet: block.Sheet.Name},
					PerUnit: Absent(),
				},
				seen: make(map[MonthKey]int),
			}
			byCode[upper] = st
			order = append(order, upper)
		}

		if idx, dup := st.seen[month]; dup {
			e.logger.Warn("duplicate product month row, later row wins",
				slog.String("product", code),
				slog.String("sheet", block.Sheet.Name),
				slog.String("month", month.String()),
				slog.Int("row", row))
			st.result.Series[idx].Value = value
		} else {
			st.seen[month] = len(st.result.Series)
			st.result.Series = append(st.result.Series, SeriesPoint{Month: month, Value: value})
		}

		if block.PerUnitCol >= 0 {
			if perUnit := NormalizeValue(block.Sheet.Cell(row, block.PerUnitCol)); perUnit.Valid {
				st.result.PerUnit = perUnit
			}
		}
	}

	results := make([]ProductResult, 0, len(order))
	for _, upper := range order {
		st := byCode[upper]
		sortSeries(st.result.Series)
		results = append(results, st.result)
	}
	return results
}
