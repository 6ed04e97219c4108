package demand

import (
	"math"
	"strings"

	"demandcli/pkg/contracts/domain"
)

// BuildPlan derives the raw material requirement table from the forecasts.
// Per product: forecast demand is the first predicted value, clamped at
// zero; per-unit consumption comes from the sheet's own consumption column
// when one was detected, otherwise from the configured rates; raw material
// needed is their product. A product with no forecast or no known rate is
// listed with those fields absent — the planner never invents a rate.
func BuildPlan(products []ForecastedProduct, rates map[string]float64) []domain.PlanLine {
	normalized := make(map[string]float64, len(rates))
	for code, rate := range rates {
		normalized[strings.ToUpper(strings.TrimSpace(code))] = rate
	}

	plan := make([]domain.PlanLine, 0, len(products))
	for _, p := range products {
		line := domain.PlanLine{
			ProductCode: p.Result.Product.Code,
			Method:      p.Method,
		}

		forecast := firstPresent(p.Predicted)
		if forecast.Valid {
			demand := round2(math.Max(forecast.Float, 0))
			line.ForecastDemand = &demand
		}

		perUnit := p.Result.PerUnit
		if !perUnit.Valid {
			if rate, ok := normalized[strings.ToUpper(p.Result.Product.Code)]; ok {
				perUnit = Value(rate)
			}
		}
		if perUnit.Valid {
			rate := round4(perUnit.Float)
			line.PerUnitConsumption = &rate
		}

		if line.ForecastDemand != nil && line.PerUnitConsumption != nil {
			needed := round2(*line.ForecastDemand * perUnit.Float)
			line.RawMaterialNeeded = &needed
		}

		plan = append(plan, line)
	}
	return plan
}

// firstPresent returns the earliest present value of a series.
func firstPresent(series Series) CellValue {
	for _, p := range series {
		if p.Value.Valid {
			return p.Value
		}
	}
	return Absent()
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
