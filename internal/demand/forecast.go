package demand

// DefaultHorizon is the number of future months predicted when the caller
// does not ask for a specific horizon.
const DefaultHorizon = 6

// forecastWindow is the moving-average window size.
const forecastWindow = 3

// Forecast predicts `horizon` months past the end of the historical
// series. Each prediction is the mean of the up-to-three most recent known
// values — historical first, then earlier predictions, so the average
// chains forward. A series with no present value anywhere yields all-absent
// predictions: the engine reports that it cannot know, it never guesses.
// Predicted months are contiguous, strictly after the last historical
// month, with bare keys wrapping the fiscal year and absolute keys rolling
// the calendar year.
func Forecast(series Series, horizon int) Series {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	last, ok := series.LastMonth()
	if !ok {
		return nil
	}

	window := series.PresentValues()
	if len(window) > forecastWindow {
		window = window[len(window)-forecastWindow:]
	}

	predicted := make(Series, 0, horizon)
	month := last
	for i := 0; i < horizon; i++ {
		month = month.Next()
		if len(window) == 0 {
			predicted = append(predicted, SeriesPoint{Month: month, Value: Absent()})
			continue
		}

		sum := 0.0
		for _, v := range window {
			sum += v
		}
		next := sum / float64(len(window))

		predicted = append(predicted, SeriesPoint{Month: month, Value: Value(next)})
		window = append(window, next)
		if len(window) > forecastWindow {
			window = window[1:]
		}
	}
	return predicted
}

// MethodLabel describes which averaging rule the forecast effectively
// used, from the count of present historical values.
func MethodLabel(series Series) string {
	switch n := series.Present(); {
	case n >= forecastWindow:
		return "3-month moving average"
	case n == 2:
		return "2-month average"
	case n == 1:
		return "single period or insufficient data"
	default:
		return "no history"
	}
}
