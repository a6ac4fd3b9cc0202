package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jgoulah/ecowatts/internal/aggregate"
	"github.com/jgoulah/ecowatts/internal/forecast"
)

const rule = "----------------------------------------"

// formatValue renders a usage or cost value with thousands separators
func formatValue(v float64, m aggregate.Measure) string {
	if m == aggregate.Cost {
		return cfg.Currency + humanize.FormatFloat("#,###.##", v)
	}
	return humanize.FormatFloat("#,###.##", v)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func unit(m aggregate.Measure) string {
	if m == aggregate.Cost {
		return "Cost"
	}
	return "kWh"
}

// printSeries writes a series as a two column table
func printSeries(w io.Writer, title string, s *aggregate.Series, limit int) {
	fmt.Fprintf(w, "\n%s:\n", title)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-16s  %12s  %8s\n", capitalize(s.Key().String()), unit(s.Measure()), "Readings")
	fmt.Fprintln(w, rule)

	for i, p := range s.Points() {
		if limit > 0 && i >= limit {
			fmt.Fprintf(w, "... %d more\n", s.Len()-limit)
			break
		}
		fmt.Fprintf(w, "%-16s  %12s  %8s\n", p.Key, formatValue(p.Value, s.Measure()), humanize.Comma(int64(p.Count)))
	}

	fmt.Fprintln(w, rule)
	if s.Reducer() == aggregate.Sum {
		fmt.Fprintf(w, "Total: %s (%d groups)\n", formatValue(s.Total(), s.Measure()), s.Len())
	} else {
		fmt.Fprintf(w, "%d groups (mean per reading)\n", s.Len())
	}
}

// printPivot writes a pivot as a grid; combinations without readings show as zero
func printPivot(w io.Writer, p *aggregate.Pivot) {
	req := p.Request()
	cols := p.Cols()

	fmt.Fprintf(w, "%-14s", capitalize(req.Rows.String())+" \\ "+req.Cols.String())
	for _, c := range cols {
		fmt.Fprintf(w, " %10s", c)
	}
	fmt.Fprintln(w)

	for _, r := range p.Rows() {
		fmt.Fprintf(w, "%-14s", r)
		for _, c := range cols {
			v, _ := p.Value(r, c)
			fmt.Fprintf(w, " %10s", formatValue(v, req.Measure))
		}
		fmt.Fprintln(w)
	}
}

// printMerged writes actual and forecast days in one table
func printMerged(w io.Writer, merged []forecast.MergedPoint) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-12s  %12s  %s\n", "Date", "kWh", "")
	fmt.Fprintln(w, rule)
	for _, m := range merged {
		marker := ""
		if m.IsForecast {
			marker = "forecast"
		}
		fmt.Fprintf(w, "%-12s  %12.2f  %s\n", m.Date.Format(aggregate.DateFormat), m.Value, marker)
	}
	fmt.Fprintln(w, rule)
}
