// Package normalize turns raw tabular meter exports into canonical usage tables.
//
// A row is kept whole or rejected whole. A non-empty cost that does not parse rejects
// the row as invalid_cost even when its usage is valid, so that reading is also missing
// from usage summaries; the diagnostics report how many readings were lost that way.
// An empty cost cell is not an error and leaves the reading without a cost.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jgoulah/ecowatts/pkg/models"
)

// DefaultTimestampLayout is the layout of the standard meter export
const DefaultTimestampLayout = "2006-01-02 15:04:05"

// RawTable is an in-memory table of string cells with a header row
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Normalizer validates raw tables against a single timestamp layout
type Normalizer struct {
	layout string
}

// New creates a normalizer. An empty layout selects DefaultTimestampLayout.
func New(layout string) *Normalizer {
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	return &Normalizer{layout: layout}
}

// Layout returns the timestamp layout in use
func (n *Normalizer) Layout() string {
	return n.layout
}

// Normalize cleans raw into a canonical table. It fails only when a required column
// is missing; bad rows are dropped and counted in the returned diagnostics.
func (n *Normalizer) Normalize(raw RawTable, cols ColumnMap) (*models.Table, models.Diagnostics, error) {
	idx, err := cols.resolve(raw.Header)
	if err != nil {
		return nil, nil, err
	}

	diag := models.Diagnostics{}
	records := make([]models.Record, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		reading, rowErr := n.parseRow(i, row, idx)
		if rowErr != nil {
			diag.Add(rowErr)
			continue
		}
		records = append(records, models.NewRecord(reading))
	}

	var optional []models.Field
	for _, f := range []models.Field{models.FieldAppliance, models.FieldRoom, models.FieldCost} {
		if _, ok := idx[f]; ok {
			optional = append(optional, f)
		}
	}

	return models.NewTable(records, optional...), diag, nil
}

func (n *Normalizer) parseRow(i int, row []string, idx map[models.Field]int) (models.Reading, *models.RowError) {
	var r models.Reading

	ts, err := time.Parse(n.layout, cell(row, idx, models.FieldTimestamp))
	if err != nil {
		return r, &models.RowError{Reason: models.ReasonUnparseableTimestamp, Row: i, Err: err}
	}
	r.Timestamp = ts

	usage, err := parseAmount(cell(row, idx, models.FieldUsage))
	if err != nil {
		return r, &models.RowError{Reason: models.ReasonInvalidUsage, Row: i, Err: err}
	}
	r.Usage = usage

	if s := cell(row, idx, models.FieldCost); s != "" {
		cost, err := parseAmount(s)
		if err != nil {
			return r, &models.RowError{Reason: models.ReasonInvalidCost, Row: i, Err: err}
		}
		r.Cost = cost
		r.HasCost = true
	}

	r.Appliance = cell(row, idx, models.FieldAppliance)
	r.Room = cell(row, idx, models.FieldRoom)
	return r, nil
}

// cell returns the trimmed value of a field, or "" when the column is unmapped or the
// row is short
func cell(row []string, idx map[models.Field]int, f models.Field) string {
	i, ok := idx[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseAmount parses a finite, non-negative real
func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %s", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value: %s", s)
	}
	return v, nil
}

// FromTable renders a canonical table back into a raw table with canonical headers,
// readable with IdentityColumns and the same layout.
func FromTable(t *models.Table, layout string) RawTable {
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	fields := t.Fields()
	raw := RawTable{Header: make([]string, len(fields))}
	for i, f := range fields {
		raw.Header[i] = string(f)
	}

	t.Each(func(_ int, r models.Record) {
		row := make([]string, len(fields))
		for i, f := range fields {
			switch f {
			case models.FieldTimestamp:
				row[i] = r.Timestamp.Format(layout)
			case models.FieldUsage:
				row[i] = strconv.FormatFloat(r.Usage, 'g', -1, 64)
			case models.FieldAppliance:
				row[i] = r.Appliance
			case models.FieldRoom:
				row[i] = r.Room
			case models.FieldCost:
				if r.HasCost {
					row[i] = strconv.FormatFloat(r.Cost, 'g', -1, 64)
				}
			}
		}
		raw.Rows = append(raw.Rows, row)
	})
	return raw
}
