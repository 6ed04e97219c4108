package domain

import (
	"time"
)

// SeriesPoint is one month's reading in a chart series. A nil Value is an
// absent month: the cell(s) behind it were empty or unparseable, which is
// different from zero and must stay different all the way to the consumer.
type SeriesPoint struct {
	Month string   `json:"month"`
	Value *float64 `json:"value"`
}

// ProductSeries carries one detected product's historical and predicted
// series. The same product code found on two sheets produces two entries,
// each tagged with its sheet name.
type ProductSeries struct {
	ProductCode    string        `json:"product_code"`
	SheetName      string        `json:"sheet_name"`
	ForecastMethod string        `json:"forecast_method,omitempty"`
	Historical     []SeriesPoint `json:"historical"`
	Predicted      []SeriesPoint `json:"predicted"`
}

// OverallSeries is the aggregate across all detected products: per month,
// the sum of present product values. A month is absent here only when every
// product is absent for that month.
type OverallSeries struct {
	Historical []SeriesPoint `json:"historical"`
	Predicted  []SeriesPoint `json:"predicted"`
}

// ExtractionSummary holds the headline totals for one extraction.
type ExtractionSummary struct {
	Products         int     `json:"products"`
	TotalForecast    float64 `json:"total_forecast"`
	TotalRawMaterial float64 `json:"total_raw_material"`
}

// PlanLine is one product's raw material requirement derived from its
// next-period forecast. Nil fields mean the figure could not be computed
// from the data on hand (no forecast, or no per-unit consumption rate).
type PlanLine struct {
	ProductCode        string   `json:"product_code"`
	ForecastDemand     *float64 `json:"forecast_demand"`
	PerUnitConsumption *float64 `json:"per_unit_consumption"`
	RawMaterialNeeded  *float64 `json:"raw_material_needed"`
	Method             string   `json:"method"`
}

// ChartDataset is the externally consumed result of one extraction run.
// It is constructed fresh per request, immutable once returned, and owned
// by the caller. Month strings are either bare month names ("April") or
// absolute "YYYY-MM" keys, consistently within one dataset.
type ChartDataset struct {
	Products    []ProductSeries   `json:"products"`
	Overall     OverallSeries     `json:"overall"`
	Summary     ExtractionSummary `json:"summary"`
	Plan        []PlanLine        `json:"plan,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	ProcessedAt time.Time         `json:"processed_at"`
}

// GridSheet is one sheet of raw tabular cells submitted directly, bypassing
// workbook parsing. Rows may be ragged; missing trailing cells read as blank.
type GridSheet struct {
	Name string     `json:"name" validate:"required,min=1,max=100"`
	Rows [][]string `json:"rows" validate:"required,min=1"`
}

// GridExtractionRequest asks for an extraction over an in-memory table.
type GridExtractionRequest struct {
	Sheets  []GridSheet `json:"sheets" validate:"required,min=1,dive"`
	Horizon int         `json:"horizon" validate:"omitempty,min=1,max=24"`
}

// SheetExtractionRequest asks for an extraction over a Google spreadsheet.
type SheetExtractionRequest struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required,min=10"`
	Horizon       int    `json:"horizon" validate:"omitempty,min=1,max=24"`
}
