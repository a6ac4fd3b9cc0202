package forecast

import (
	"time"

	"github.com/jgoulah/ecowatts/internal/aggregate"
)

// MergedPoint is one day of a combined actual and forecast series
type MergedPoint struct {
	Date       time.Time `json:"date"`
	Value      float64   `json:"value"`
	IsForecast bool      `json:"is_forecast"`
}

// MergeActualAndForecast appends the forecast points to the history. No days are
// filled in between; the first forecast day directly follows the last actual day.
func MergeActualAndForecast(daily *aggregate.Series, res *Result) ([]MergedPoint, error) {
	dates, err := daily.Dates()
	if err != nil {
		return nil, err
	}

	out := make([]MergedPoint, 0, len(dates)+len(res.Points))
	for i, d := range dates {
		out = append(out, MergedPoint{Date: d, Value: daily.At(i).Value})
	}
	for _, p := range res.Points {
		out = append(out, MergedPoint{Date: p.Date, Value: p.Predicted, IsForecast: true})
	}
	return out, nil
}
