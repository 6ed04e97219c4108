package exporter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demandcli/pkg/contracts/domain"
)

func f(v float64) *float64 { return &v }

func sampleDataset() *domain.ChartDataset {
	return &domain.ChartDataset{
		Products: []domain.ProductSeries{
			{
				ProductCode:    "MCT360",
				SheetName:      "Plan",
				ForecastMethod: "3-month moving average",
				Historical: []domain.SeriesPoint{
					{Month: "April", Value: f(720)},
					{Month: "May", Value: nil},
					{Month: "June", Value: f(800)},
				},
				Predicted: []domain.SeriesPoint{
					{Month: "July", Value: f(760)},
				},
			},
		},
		Overall: domain.OverallSeries{
			Historical: []domain.SeriesPoint{
				{Month: "April", Value: f(720)},
			},
			Predicted: []domain.SeriesPoint{
				{Month: "July", Value: f(760)},
			},
		},
		Summary: domain.ExtractionSummary{
			Products:         1,
			TotalForecast:    760,
			TotalRawMaterial: 273.6,
		},
		Plan: []domain.PlanLine{
			{
				ProductCode:        "MCT360",
				ForecastDemand:     f(760),
				PerUnitConsumption: f(0.36),
				RawMaterialNeeded:  f(273.6),
				Method:             "3-month moving average",
			},
			{
				ProductCode: "MCT165",
				Method:      "no history",
			},
		},
		Fingerprint: "abc123",
		ProcessedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestWriteDatasetCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDatasetCSV(&buf, sampleDataset()))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, string(utf8BOM)), "starts with UTF-8 BOM")

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, string(utf8BOM)))).ReadAll()
	require.NoError(t, err)

	require.Equal(t, seriesHeaders, records[0])

	// 3 historical + 1 predicted for the product, 1 + 1 for overall
	assert.Len(t, records, 1+4+2)

	assert.Equal(t, []string{"MCT360", "Plan", "historical", "April", "720"}, records[1])

	// May is absent and stays an empty cell, not zero
	assert.Equal(t, "", records[2][4])

	assert.Equal(t, []string{"MCT360", "Plan", "predicted", "July", "760"}, records[4])
	assert.Equal(t, "OVERALL", records[5][0])
}

func TestWritePlanCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlanCSV(&buf, sampleDataset().Plan))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), string(utf8BOM)))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, planHeaders, records[0])
	assert.Equal(t, []string{"MCT360", "760", "0.36", "273.6", "3-month moving average"}, records[1])

	// A product with no forecast keeps every numeric field empty
	assert.Equal(t, []string{"MCT165", "", "", "", "no history"}, records[2])
}
