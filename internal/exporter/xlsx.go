package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"demandcli/pkg/contracts/domain"
)

const (
	forecastSheet = "Forecast"
	seriesSheet   = "Series"
)

// WriteDatasetXLSX renders the dataset as a two-sheet workbook: "Forecast"
// holds the requirement plan, "Series" the per-product history and
// predictions in long form.
func WriteDatasetXLSX(w io.Writer, dataset *domain.ChartDataset) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), forecastSheet)
	if err := writeForecastSheet(f, dataset); err != nil {
		return err
	}

	if _, err := f.NewSheet(seriesSheet); err != nil {
		return fmt.Errorf("creating series sheet: %w", err)
	}
	if err := writeSeriesSheet(f, dataset); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeForecastSheet(f *excelize.File, dataset *domain.ChartDataset) error {
	headers := []any{"Product", "Forecast Demand", "Per Unit Consumption", "Raw Material Needed", "Method"}
	if err := f.SetSheetRow(forecastSheet, "A1", &headers); err != nil {
		return fmt.Errorf("writing forecast headers: %w", err)
	}

	for i, line := range dataset.Plan {
		row := []any{
			line.ProductCode,
			cellValue(line.ForecastDemand),
			cellValue(line.PerUnitConsumption),
			cellValue(line.RawMaterialNeeded),
			line.Method,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(forecastSheet, cell, &row); err != nil {
			return fmt.Errorf("writing forecast row %d: %w", i+2, err)
		}
	}

	// Totals footer
	footerRow := len(dataset.Plan) + 2
	cell, err := excelize.CoordinatesToCellName(1, footerRow)
	if err != nil {
		return err
	}
	footer := []any{"TOTAL", dataset.Summary.TotalForecast, nil, dataset.Summary.TotalRawMaterial, ""}
	if err := f.SetSheetRow(forecastSheet, cell, &footer); err != nil {
		return fmt.Errorf("writing forecast totals: %w", err)
	}
	return nil
}

func writeSeriesSheet(f *excelize.File, dataset *domain.ChartDataset) error {
	headers := []any{"Product", "Sheet", "Kind", "Month", "Value"}
	if err := f.SetSheetRow(seriesSheet, "A1", &headers); err != nil {
		return fmt.Errorf("writing series headers: %w", err)
	}

	rowNum := 2
	write := func(code, sheet, kind string, points []domain.SeriesPoint) error {
		for _, point := range points {
			cell, err := excelize.CoordinatesToCellName(1, rowNum)
			if err != nil {
				return err
			}
			row := []any{code, sheet, kind, point.Month, cellValue(point.Value)}
			if err := f.SetSheetRow(seriesSheet, cell, &row); err != nil {
				return fmt.Errorf("writing series row %d: %w", rowNum, err)
			}
			rowNum++
		}
		return nil
	}

	for _, product := range dataset.Products {
		if err := write(product.ProductCode, product.SheetName, "historical", product.Historical); err != nil {
			return err
		}
		if err := write(product.ProductCode, product.SheetName, "predicted", product.Predicted); err != nil {
			return err
		}
	}
	if err := write("OVERALL", "", "historical", dataset.Overall.Historical); err != nil {
		return err
	}
	return write("OVERALL", "", "predicted", dataset.Overall.Predicted)
}

// cellValue maps an absent value to an empty cell
func cellValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
