package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"demandcli/pkg/contracts/domain"
)

// utf8BOM helps Excel recognize UTF-8 CSV files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var seriesHeaders = []string{"product_code", "sheet_name", "kind", "month", "value"}

var planHeaders = []string{"product_code", "forecast_demand", "per_unit_consumption", "raw_material_needed", "method"}

// WriteDatasetCSV writes the per-product series in long form: one row per
// (product, kind, month), where kind is "historical" or "predicted". The
// overall aggregate is appended under the product code "OVERALL".
func WriteDatasetCSV(w io.Writer, dataset *domain.ChartDataset) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeaders); err != nil {
		return fmt.Errorf("writing headers: %w", err)
	}

	for _, product := range dataset.Products {
		if err := writeSeriesRows(cw, product.ProductCode, product.SheetName, "historical", product.Historical); err != nil {
			return err
		}
		if err := writeSeriesRows(cw, product.ProductCode, product.SheetName, "predicted", product.Predicted); err != nil {
			return err
		}
	}

	if err := writeSeriesRows(cw, "OVERALL", "", "historical", dataset.Overall.Historical); err != nil {
		return err
	}
	if err := writeSeriesRows(cw, "OVERALL", "", "predicted", dataset.Overall.Predicted); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// WritePlanCSV writes the requirement plan, one row per product.
func WritePlanCSV(w io.Writer, plan []domain.PlanLine) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(planHeaders); err != nil {
		return fmt.Errorf("writing headers: %w", err)
	}

	for _, line := range plan {
		record := []string{
			line.ProductCode,
			formatValue(line.ForecastDemand),
			formatValue(line.PerUnitConsumption),
			formatValue(line.RawMaterialNeeded),
			line.Method,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing plan row for %s: %w", line.ProductCode, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeSeriesRows(cw *csv.Writer, code, sheet, kind string, points []domain.SeriesPoint) error {
	for _, point := range points {
		record := []string{code, sheet, kind, point.Month, formatValue(point.Value)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing series row for %s: %w", code, err)
		}
	}
	return nil
}

// formatValue renders a possibly absent value. Absent stays empty.
func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
