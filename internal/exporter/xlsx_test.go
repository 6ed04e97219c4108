package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteDatasetXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDatasetXLSX(&buf, sampleDataset()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{forecastSheet, seriesSheet}, f.GetSheetList())

	rows, err := f.GetRows(forecastSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)

	assert.Equal(t, []string{"Product", "Forecast Demand", "Per Unit Consumption", "Raw Material Needed", "Method"}, rows[0])
	assert.Equal(t, "MCT360", rows[1][0])
	assert.Equal(t, "760", rows[1][1])

	// MCT165 has no forecast; its numeric cells are empty
	assert.Equal(t, "MCT165", rows[2][0])
	if len(rows[2]) > 1 {
		assert.Empty(t, rows[2][1])
	}

	// Totals footer
	assert.Equal(t, "TOTAL", rows[3][0])
}

func TestWriteDatasetXLSXSeriesSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDatasetXLSX(&buf, sampleDataset()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(seriesSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 5)

	assert.Equal(t, []string{"Product", "Sheet", "Kind", "Month", "Value"}, rows[0])
	assert.Equal(t, []string{"MCT360", "Plan", "historical", "April", "720"}, rows[1])

	// Absent May stays an empty cell
	require.GreaterOrEqual(t, len(rows[2]), 4)
	assert.Equal(t, "May", rows[2][3])
}
