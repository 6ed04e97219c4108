package demand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// historySeries builds a bare-key series starting in April with the given
// readings; nil entries are absent months.
func historySeries(values ...*float64) Series {
	series := make(Series, 0, len(values))
	month := MonthKey{Month: 4}
	for i, v := range values {
		if i > 0 {
			month = month.Next()
		}
		point := SeriesPoint{Month: month, Value: Absent()}
		if v != nil {
			point.Value = Value(*v)
		}
		series = append(series, point)
	}
	return series
}

func f(v float64) *float64 { return &v }

func TestForecastWindow(t *testing.T) {
	tests := []struct {
		name    string
		history Series
		want    *float64
	}{
		{name: "three values mean of all three", history: historySeries(f(720), f(760), f(800)), want: f(760)},
		{name: "two values mean of both", history: historySeries(f(720), f(760)), want: f(740)},
		{name: "single value repeats", history: historySeries(f(720)), want: f(720)},
		{name: "no present values stays absent", history: historySeries(nil, nil, nil), want: nil},
		{name: "window skips absent months", history: historySeries(f(720), nil, f(760), f(800)), want: f(760)},
		{name: "window is last three of four", history: historySeries(f(100), f(720), f(760), f(800)), want: f(760)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predicted := Forecast(tt.history, 1)
			require.Len(t, predicted, 1)
			if tt.want == nil {
				assert.False(t, predicted[0].Value.Valid)
				return
			}
			require.True(t, predicted[0].Value.Valid)
			assert.InDelta(t, *tt.want, predicted[0].Value.Float, 1e-9)
		})
	}
}

func TestForecastChaining(t *testing.T) {
	// The second prediction folds the first one into its window:
	// mean(760, 800, 760) = 773.33…
	predicted := Forecast(historySeries(f(720), f(760), f(800)), 2)
	require.Len(t, predicted, 2)

	require.True(t, predicted[0].Value.Valid)
	assert.InDelta(t, 760.0, predicted[0].Value.Float, 1e-9)

	require.True(t, predicted[1].Value.Valid)
	assert.InDelta(t, (760.0+800.0+760.0)/3.0, predicted[1].Value.Float, 1e-9)
}

func TestForecastMonthsAreContiguousAndAfterHistory(t *testing.T) {
	history := historySeries(f(720), f(760), f(800)) // April, May, June
	predicted := Forecast(history, 12)
	require.Len(t, predicted, 12)

	month := MonthKey{Month: 6}
	for i, p := range predicted {
		month = month.Next()
		assert.Equal(t, month, p.Month, "prediction %d", i)
	}
	// Wraps past December back to January on bare keys.
	assert.Equal(t, MonthKey{Month: 1}, predicted[6].Month)
}

func TestForecastAbsoluteKeysRollYear(t *testing.T) {
	history := Series{
		{Month: MonthKey{Month: 11, Year: 2025}, Value: Value(500)},
		{Month: MonthKey{Month: 12, Year: 2025}, Value: Value(520)},
	}
	predicted := Forecast(history, 2)
	require.Len(t, predicted, 2)
	assert.Equal(t, "2026-01", predicted[0].Month.String())
	assert.Equal(t, "2026-02", predicted[1].Month.String())
}

func TestForecastAllAbsentHistoryYieldsAllAbsentPredictions(t *testing.T) {
	predicted := Forecast(historySeries(nil, nil), 4)
	require.Len(t, predicted, 4)
	for i, p := range predicted {
		assert.False(t, p.Value.Valid, "prediction %d must be absent", i)
	}
}

func TestForecastEmptySeries(t *testing.T) {
	assert.Nil(t, Forecast(nil, 6))
}

func TestForecastDefaultHorizon(t *testing.T) {
	predicted := Forecast(historySeries(f(100)), 0)
	assert.Len(t, predicted, DefaultHorizon)
}

func TestMethodLabel(t *testing.T) {
	assert.Equal(t, "3-month moving average", MethodLabel(historySeries(f(1), f(2), f(3))))
	assert.Equal(t, "3-month moving average", MethodLabel(historySeries(f(1), f(2), f(3), f(4))))
	assert.Equal(t, "2-month average", MethodLabel(historySeries(f(1), nil, f(2))))
	assert.Equal(t, "single period or insufficient data", MethodLabel(historySeries(f(1))))
	assert.Equal(t, "no history", MethodLabel(historySeries(nil, nil)))
	assert.Equal(t, "no history", MethodLabel(nil))
}
