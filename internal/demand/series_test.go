package demand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demandcli/internal/workbook"
)

func detectOn(t *testing.T, rows [][]string) []Block {
	t.Helper()
	blocks, err := newTestDetector().DetectBlocks(workbook.NewGridFromRows("Plan", rows))
	require.NoError(t, err)
	return blocks
}

func TestExtractWideSeries(t *testing.T) {
	blocks := detectOn(t, [][]string{
		{"Product", "Apr", "May", "Jun", "Jul"},
		{"MCT360", "720", "", "800", "n/a"},
	})
	require.Len(t, blocks, 1)

	results := NewExtractor(nil).Extract(blocks[0])
	require.Len(t, results, 1)

	series := results[0].Series
	require.Len(t, series, 4)

	assert.Equal(t, MonthKey{Month: 4}, series[0].Month)
	require.True(t, series[0].Value.Valid)
	assert.Equal(t, 720.0, series[0].Value.Float)

	assert.False(t, series[1].Value.Valid, "empty May stays absent")

	require.True(t, series[2].Value.Valid)
	assert.Equal(t, 800.0, series[2].Value.Float)

	assert.False(t, series[3].Value.Valid, "unparseable July stays absent, never zero")
}

func TestExtractWideSumsContinuationRows(t *testing.T) {
	// Values split across the product row and its continuation rows sum
	// into one monthly figure.
	blocks := detectOn(t, [][]string{
		{"Product", "Apr", "May", "Jun"},
		{"MCT360", "100", "", "10"},
		{"", "200", "", "20"},
		{"MCT165", "5", "6", "7"},
	})
	require.Len(t, blocks, 2)

	results := NewExtractor(nil).Extract(blocks[0])
	series := results[0].Series
	require.True(t, series[0].Value.Valid)
	assert.Equal(t, 300.0, series[0].Value.Float)
	assert.False(t, series[1].Value.Valid)
	assert.Equal(t, 30.0, series[2].Value.Float)

	// The second block starts fresh, untouched by the first.
	second := NewExtractor(nil).Extract(blocks[1])[0].Series
	assert.Equal(t, 5.0, second[0].Value.Float)
}

func TestExtractWideDuplicateMonthLastColumnWins(t *testing.T) {
	blocks := detectOn(t, [][]string{
		{"Product", "Apr", "May", "April"},
		{"MCT360", "1", "2", "99"},
	})
	require.Len(t, blocks, 1)

	series := NewExtractor(nil).Extract(blocks[0])[0].Series
	require.Len(t, series, 2, "duplicate April collapses to one entry")

	require.True(t, series[0].Value.Valid)
	assert.Equal(t, 99.0, series[0].Value.Float, "later column wins")
}

func TestExtractWideCurrencyAndNegatives(t *testing.T) {
	blocks := detectOn(t, [][]string{
		{"Product", "Apr", "May"},
		{"MCT360", "$1,500", "(200)"},
	})
	series := NewExtractor(nil).Extract(blocks[0])[0].Series
	assert.Equal(t, 1500.0, series[0].Value.Float)
	assert.Equal(t, -200.0, series[1].Value.Float)
}

func TestExtractSeriesOrderedFiscally(t *testing.T) {
	// Headers out of order still produce April-first series order.
	blocks := detectOn(t, [][]string{
		{"Product", "Jun", "Apr", "May"},
		{"MCT360", "3", "1", "2"},
	})
	series := NewExtractor(nil).Extract(blocks[0])[0].Series
	require.Len(t, series, 3)
	assert.Equal(t, MonthKey{Month: 4}, series[0].Month)
	assert.Equal(t, MonthKey{Month: 5}, series[1].Month)
	assert.Equal(t, MonthKey{Month: 6}, series[2].Month)
	assert.Equal(t, 1.0, series[0].Value.Float)
}

func TestExtractLongSeries(t *testing.T) {
	blocks := detectOn(t, [][]string{
		{"品目", "月", "出荷", "原単位"},
		{"MCT360", "4月", "720", "0.25"},
		{"MCT360", "5月", "760", "0.25"},
		{"MCT165", "4月", "120", "0.4"},
		{"MCT165", "5月", "bad", "0.4"},
	})
	require.Len(t, blocks, 1)

	results := NewExtractor(nil).Extract(blocks[0])
	require.Len(t, results, 2)

	first := results[0]
	assert.Equal(t, "MCT360", first.Product.Code)
	require.Len(t, first.Series, 2)
	assert.Equal(t, 720.0, first.Series[0].Value.Float)
	assert.Equal(t, 760.0, first.Series[1].Value.Float)
	require.True(t, first.PerUnit.Valid)
	assert.Equal(t, 0.25, first.PerUnit.Float)

	second := results[1]
	assert.Equal(t, "MCT165", second.Product.Code)
	require.Len(t, second.Series, 2)
	assert.Equal(t, 120.0, second.Series[0].Value.Float)
	assert.False(t, second.Series[1].Value.Valid, "bad demand cell stays absent")
}

func TestExtractLongDuplicateRowLastWins(t *testing.T) {
	blocks := detectOn(t, [][]string{
		{"Product", "Month", "Demand"},
		{"ABC1", "April", "10"},
		{"ABC1", "April", "42"},
	})
	require.Len(t, blocks, 1)

	results := NewExtractor(nil).Extract(blocks[0])
	require.Len(t, results, 1)
	require.Len(t, results[0].Series, 1)
	assert.Equal(t, 42.0, results[0].Series[0].Value.Float)
}

func TestExtractLongEquivalentToWide(t *testing.T) {
	// The same data in tidy and wide shape must extract identical series.
	wide := detectOn(t, [][]string{
		{"Product", "Apr", "May", "Jun"},
		{"MCT360", "720", "760", "800"},
	})
	long := detectOn(t, [][]string{
		{"Product", "Month", "Demand"},
		{"MCT360", "Apr", "720"},
		{"MCT360", "May", "760"},
		{"MCT360", "Jun", "800"},
	})

	extractor := NewExtractor(nil)
	fromWide := extractor.Extract(wide[0])[0].Series
	fromLong := extractor.Extract(long[0])[0].Series
	assert.Equal(t, fromWide, fromLong)
}

func TestSeriesHelpers(t *testing.T) {
	series := historySeries(f(1), nil, f(3))

	assert.Equal(t, 2, series.Present())
	assert.Equal(t, []float64{1, 3}, series.PresentValues())

	last, ok := series.LastMonth()
	require.True(t, ok)
	assert.Equal(t, MonthKey{Month: 6}, last)

	_, ok = Series(nil).LastMonth()
	assert.False(t, ok)
}
