// Package forecast extrapolates a linear trend over daily usage totals.
//
// The regression index is ordinal: the i-th day present in the history gets index i,
// whether or not calendar days were skipped before it. Forecast dates, in contrast,
// always continue day by day from the last historical date.
package forecast

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/jgoulah/ecowatts/internal/aggregate"
	"github.com/jgoulah/ecowatts/pkg/models"
)

// Point is one forecasted day. Predicted is not clamped and may be negative.
type Point struct {
	Date      time.Time `json:"date"`
	Predicted float64   `json:"predicted_usage"`
}

// Result holds the forecast and the trend it was computed from
type Result struct {
	Points    []Point `json:"points"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	LastIndex int     `json:"last_index"` // Regression index of the last historical day
}

// Predict evaluates the trend line at a regression index
func (r *Result) Predict(index int) float64 {
	return r.Slope*float64(index) + r.Intercept
}

// Forecast fits an ordinary least squares line to a chronologically ordered daily
// series and extrapolates horizonDays future days.
func Forecast(daily *aggregate.Series, horizonDays int) (*Result, error) {
	if horizonDays < 1 {
		return nil, &models.ForecastError{
			Reason: models.ReasonInvalidHorizon,
			Detail: fmt.Sprintf("horizon must be at least 1 day, got %d", horizonDays),
		}
	}
	if daily.Key() != aggregate.ByDate {
		return nil, &models.ForecastError{
			Reason: models.ReasonNotDaily,
			Detail: "history is keyed by " + daily.Key().String(),
		}
	}

	dates, err := daily.Dates()
	if err != nil {
		return nil, &models.ForecastError{Reason: models.ReasonNotDaily, Detail: err.Error()}
	}
	if n := distinctDays(dates); n < 2 {
		return nil, &models.ForecastError{
			Reason: models.ReasonInsufficientHistory,
			Detail: fmt.Sprintf("need at least 2 days, got %d", n),
		}
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, &models.ForecastError{
				Reason: models.ReasonUnorderedHistory,
				Detail: fmt.Sprintf("%s follows %s", dates[i].Format(aggregate.DateFormat), dates[i-1].Format(aggregate.DateFormat)),
			}
		}
	}

	xs := make([]float64, len(dates))
	ys := make([]float64, len(dates))
	for i := range dates {
		xs[i] = float64(i)
		ys[i] = daily.At(i).Value
	}
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	res := &Result{
		Points:    make([]Point, horizonDays),
		Slope:     slope,
		Intercept: intercept,
		LastIndex: len(dates) - 1,
	}
	last := dates[len(dates)-1]
	for i := 1; i <= horizonDays; i++ {
		res.Points[i-1] = Point{
			Date:      last.AddDate(0, 0, i),
			Predicted: res.Predict(res.LastIndex + i),
		}
	}

	return res, nil
}

func distinctDays(dates []time.Time) int {
	seen := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		seen[d] = struct{}{}
	}
	return len(seen)
}
