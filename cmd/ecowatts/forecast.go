package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jgoulah/ecowatts/internal/aggregate"
	"github.com/jgoulah/ecowatts/internal/forecast"
	"github.com/jgoulah/ecowatts/pkg/models"
)

var (
	forecastDays   int
	forecastWindow int
	forecastCSV    bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast [file]",
	Short: "Forecast daily usage from the historical trend",
	Long: `Fits a straight line through the daily usage totals and extends it into the future.
Days without readings are skipped, not treated as zero. Predictions are not clamped
and can fall below zero for a steeply falling trend.`,
	Args: cobra.ExactArgs(1),
	RunE: runForecast,
}

func init() {
	forecastCmd.Flags().IntVar(&forecastDays, "days", 0, "Number of days to forecast (default from config, 7)")
	forecastCmd.Flags().IntVar(&forecastWindow, "window", 0, "Only fit the last N days of history (0 = all)")
	forecastCmd.Flags().BoolVar(&forecastCSV, "csv", false, "Write the combined series as CSV")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	table, err := loadTable(args[0])
	if err != nil {
		return err
	}

	daily, res, err := buildForecast(table, forecastDays, forecastWindow)
	if err != nil {
		return err
	}

	merged, err := forecast.MergeActualAndForecast(daily, res)
	if err != nil {
		return fmt.Errorf("merging forecast: %w", err)
	}

	out := cmd.OutOrStdout()
	if forecastCSV {
		return writeMergedCSV(out, merged)
	}

	fmt.Fprintf(out, "\nDaily usage with %d day forecast:\n", len(res.Points))
	printMerged(out, merged)
	fmt.Fprintf(out, "Trend: %+.3f kWh/day (intercept %.3f, fitted on %d days)\n", res.Slope, res.Intercept, daily.Len())
	return nil
}

// buildForecast computes the daily series of a table, optionally keeps only the last
// window days, and forecasts days ahead
func buildForecast(table *models.Table, days, window int) (*aggregate.Series, *forecast.Result, error) {
	if days <= 0 {
		days = cfg.GetForecastDays()
	}

	daily := aggregate.Daily(table)
	if window > 0 && window < daily.Len() {
		var err error
		daily, err = lastDays(daily, window)
		if err != nil {
			return nil, nil, err
		}
	}

	res, err := forecast.Forecast(daily, days)
	if err != nil {
		return nil, nil, fmt.Errorf("forecasting: %w", err)
	}

	log.Debug().
		Int("history_days", daily.Len()).
		Int("horizon", days).
		Float64("slope", res.Slope).
		Float64("intercept", res.Intercept).
		Msg("fitted trend")

	return daily, res, nil
}

func lastDays(daily *aggregate.Series, n int) (*aggregate.Series, error) {
	dates, err := daily.Dates()
	if err != nil {
		return nil, err
	}
	start := len(dates) - n
	values := make([]float64, 0, n)
	for i := start; i < len(dates); i++ {
		values = append(values, daily.At(i).Value)
	}
	return aggregate.NewDailySeries(dates[start:], values)
}

func writeMergedCSV(w io.Writer, merged []forecast.MergedPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "usage_kwh", "is_forecast"}); err != nil {
		return err
	}
	for _, m := range merged {
		row := []string{
			m.Date.Format(aggregate.DateFormat),
			strconv.FormatFloat(m.Value, 'f', 4, 64),
			strconv.FormatBool(m.IsForecast),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
