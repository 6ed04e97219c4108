package demand

import (
	"time"

	"demandcli/pkg/contracts/domain"
)

// ForecastedProduct is one product's full pipeline output: the extracted
// history, the predictions, and the method label.
type ForecastedProduct struct {
	Result    ProductResult
	Predicted Series
	Method    string
}

// BuildDataset flattens the per-product results into the externally
// consumed chart structure: parallel month/value lists per product, the
// overall aggregate, the requirement plan, and the summary totals. Every
// value in the output is a plain finite float64 or null — the engine's
// CellValue wrapper never leaks past this point.
func BuildDataset(products []ForecastedProduct, plan []domain.PlanLine, fingerprint string, processedAt time.Time) *domain.ChartDataset {
	dataset := &domain.ChartDataset{
		Products:    make([]domain.ProductSeries, 0, len(products)),
		Plan:        plan,
		Fingerprint: fingerprint,
		ProcessedAt: processedAt,
	}

	for _, p := range products {
		dataset.Products = append(dataset.Products, domain.ProductSeries{
			ProductCode:    p.Result.Product.Code,
			SheetName:      p.Result.Product.Sheet,
			ForecastMethod: p.Method,
			Historical:     toPoints(p.Result.Series),
			Predicted:      toPoints(p.Predicted),
		})
	}

	historical := make([]Series, 0, len(products))
	predicted := make([]Series, 0, len(products))
	for _, p := range products {
		historical = append(historical, p.Result.Series)
		predicted = append(predicted, p.Predicted)
	}
	dataset.Overall = domain.OverallSeries{
		Historical: toPoints(sumSeries(historical)),
		Predicted:  toPoints(sumSeries(predicted)),
	}

	dataset.Summary = summarize(len(products), plan)
	return dataset
}

// toPoints converts a series to its wire form: month strings paired with
// number-or-null values.
func toPoints(series Series) []domain.SeriesPoint {
	points := make([]domain.SeriesPoint, 0, len(series))
	for _, p := range series {
		points = append(points, domain.SeriesPoint{
			Month: p.Month.String(),
			Value: p.Value.Ptr(),
		})
	}
	return points
}

// sumSeries merges per-product series into the overall total. This is the
// one sanctioned absence-as-zero site in the engine: an absent product
// value contributes nothing to the sum, and the overall month is itself
// absent only when every contributing product is absent for it. Everywhere
// else absence stays absence.
func sumSeries(all []Series) Series {
	var order []MonthKey
	totals := make(map[MonthKey]CellValue)

	for _, series := range all {
		for _, p := range series {
			total, known := totals[p.Month]
			if !known {
				order = append(order, p.Month)
				total = Absent()
			}
			if p.Value.Valid {
				if total.Valid {
					total = Value(total.Float + p.Value.Float)
				} else {
					total = p.Value
				}
			}
			totals[p.Month] = total
		}
	}

	overall := make(Series, 0, len(order))
	for _, key := range order {
		overall = append(overall, SeriesPoint{Month: key, Value: totals[key]})
	}
	sortSeries(overall)
	return overall
}

// summarize computes the headline totals from the requirement plan.
func summarize(productCount int, plan []domain.PlanLine) domain.ExtractionSummary {
	summary := domain.ExtractionSummary{Products: productCount}
	for _, line := range plan {
		if line.ForecastDemand != nil {
			summary.TotalForecast = round2(summary.TotalForecast + *line.ForecastDemand)
		}
		if line.RawMaterialNeeded != nil {
			summary.TotalRawMaterial = round2(summary.TotalRawMaterial + *line.RawMaterialNeeded)
		}
	}
	return summary
}
