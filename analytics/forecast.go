package analytics

import (
	"math"
	"sort"

	"go-civicfix/types"
)

// defaultPeriodsAhead is how many future buckets each forecast predicts.
const defaultPeriodsAhead = 4

// forecastSeries fits an ordinary-least-squares line per category over its
// bucketed counts and projects it forward. Categories with fewer than two
// data points are skipped. Rows must arrive in period order.
func forecastSeries(rows []types.PeriodCount, periodsAhead int) []types.ForecastSeries {
	if periodsAhead <= 0 {
		periodsAhead = defaultPeriodsAhead
	}

	byCategory := make(map[string][]types.PeriodCount)
	for _, row := range rows {
		byCategory[row.Category] = append(byCategory[row.Category], row)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var series []types.ForecastSeries
	for _, category := range categories {
		history := byCategory[category]
		n := len(history)
		if n < 2 {
			continue
		}

		var sumX, sumY, sumXY, sumXX float64
		for i, row := range history {
			x, y := float64(i), float64(row.Count)
			sumX += x
			sumY += y
			sumXY += x * y
			sumXX += x * x
		}

		nf := float64(n)
		denom := nf*sumXX - sumX*sumX
		if denom == 0 {
			continue
		}
		slope := (nf*sumXY - sumX*sumY) / denom
		intercept := (sumY - slope*sumX) / nf

		predicted := make([]types.PredictedPoint, 0, periodsAhead)
		for x := n; x < n+periodsAhead; x++ {
			value := slope*float64(x) + intercept
			count := int(math.Round(value))
			if count < 0 {
				count = 0
			}
			predicted = append(predicted, types.PredictedPoint{PeriodIndex: x, Count: count})
		}

		trend := types.TrendStable
		if slope > 0 {
			trend = types.TrendIncreasing
		} else if slope < 0 {
			trend = types.TrendDecreasing
		}

		series = append(series, types.ForecastSeries{
			Category:   category,
			Historical: history,
			Predicted:  predicted,
			Slope:      slope,
			Trend:      trend,
		})
	}

	return series
}
