package aggregate

import (
	"fmt"
	"sort"

	"github.com/jgoulah/ecowatts/pkg/models"
)

// PivotRequest describes a two-key aggregation such as room by hour
type PivotRequest struct {
	Rows    Key
	Cols    Key
	Reducer Reducer
	Measure Measure
}

type cellKey struct {
	row, col string
}

// Pivot is a sparse two-key aggregate. Combinations with no records have no cell.
type Pivot struct {
	rows  []string
	cols  []string
	cells map[cellKey]float64
	req   PivotRequest
}

// NewPivot aggregates the table by two keys in one pass over the records. A record
// missing either categorical value is skipped.
func NewPivot(t *models.Table, req PivotRequest) (*Pivot, error) {
	if req.Rows == req.Cols {
		return nil, fmt.Errorf("pivot needs two different keys, got %s twice", req.Rows)
	}
	if err := check(t, req.Rows, req.Measure); err != nil {
		return nil, err
	}
	if err := check(t, req.Cols, req.Measure); err != nil {
		return nil, err
	}

	acc := make(map[cellKey][]float64)
	var rows, cols []string
	seenRow := make(map[string]bool)
	seenCol := make(map[string]bool)

	t.Each(func(_ int, r models.Record) {
		row, ok := req.Rows.extract(r)
		if !ok {
			return
		}
		col, ok := req.Cols.extract(r)
		if !ok {
			return
		}
		v, ok := req.Measure.value(r)
		if !ok {
			return
		}
		if !seenRow[row] {
			seenRow[row] = true
			rows = append(rows, row)
		}
		if !seenCol[col] {
			seenCol[col] = true
			cols = append(cols, col)
		}
		k := cellKey{row, col}
		acc[k] = append(acc[k], v)
	})

	if req.Rows.Chronological() {
		sort.Strings(rows)
	}
	if req.Cols.Chronological() {
		sort.Strings(cols)
	}

	cells := make(map[cellKey]float64, len(acc))
	for k, values := range acc {
		cells[k] = reduce(req.Reducer, values)
	}

	return &Pivot{rows: rows, cols: cols, cells: cells, req: req}, nil
}

// Rows returns the row keys in natural order
func (p *Pivot) Rows() []string {
	return append([]string(nil), p.rows...)
}

// Cols returns the column keys in natural order
func (p *Pivot) Cols() []string {
	return append([]string(nil), p.cols...)
}

// Value returns the cell for a combination; ok is false when no record had it
func (p *Pivot) Value(row, col string) (float64, bool) {
	v, ok := p.cells[cellKey{row, col}]
	return v, ok
}

// Len returns the number of populated cells
func (p *Pivot) Len() int {
	return len(p.cells)
}

// Request returns the request the pivot was built from
func (p *Pivot) Request() PivotRequest {
	return p.req
}
