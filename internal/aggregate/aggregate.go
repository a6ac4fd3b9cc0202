// Package aggregate groups canonical usage tables by time bucket or category.
//
// Every function here is pure: tables are read, never modified, and each call
// allocates its own output, so several aggregations may run over one table at once.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/jgoulah/ecowatts/pkg/models"
)

// DateFormat is the key format of date-keyed series
const DateFormat = "2006-01-02"

// Key selects the group of a record.
//
// Categorical keys (appliance, room) skip records whose value is missing: such rows
// are left out of the aggregation instead of being collected in an "unknown" group.
type Key int

const (
	ByDate Key = iota
	ByHour
	ByAppliance
	ByRoom
)

var keyNames = map[Key]string{
	ByDate:      "date",
	ByHour:      "hour",
	ByAppliance: "appliance",
	ByRoom:      "room",
}

func (k Key) String() string {
	return keyNames[k]
}

// ParseKey parses a key name as used on the command line
func ParseKey(s string) (Key, error) {
	for k, name := range keyNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown group key: %s (available: date, hour, appliance, room)", s)
}

// Chronological reports whether the key domain is ordered in time
func (k Key) Chronological() bool {
	return k == ByDate || k == ByHour
}

// Field returns the table column the key reads
func (k Key) Field() models.Field {
	switch k {
	case ByAppliance:
		return models.FieldAppliance
	case ByRoom:
		return models.FieldRoom
	default:
		return models.FieldTimestamp
	}
}

// extract returns the group label of a record. Date and hour labels sort
// lexically in chronological order.
func (k Key) extract(r models.Record) (string, bool) {
	switch k {
	case ByDate:
		return r.Date.Format(DateFormat), true
	case ByHour:
		return fmt.Sprintf("%02d", r.Hour), true
	default:
		return r.Category(k.Field())
	}
}

// Reducer combines the values of one group
type Reducer int

const (
	Sum Reducer = iota
	Mean
)

// ParseReducer parses "sum" or "mean"
func ParseReducer(s string) (Reducer, error) {
	switch s {
	case "sum", "":
		return Sum, nil
	case "mean", "avg":
		return Mean, nil
	}
	return 0, fmt.Errorf("unknown reducer: %s (available: sum, mean)", s)
}

func (r Reducer) String() string {
	if r == Mean {
		return "mean"
	}
	return "sum"
}

// Measure selects the value being reduced
type Measure int

const (
	Usage Measure = iota
	Cost
)

// ParseMeasure parses "usage" or "cost"
func ParseMeasure(s string) (Measure, error) {
	switch s {
	case "usage", "":
		return Usage, nil
	case "cost":
		return Cost, nil
	}
	return 0, fmt.Errorf("unknown measure: %s (available: usage, cost)", s)
}

func (m Measure) String() string {
	if m == Cost {
		return "cost"
	}
	return "usage"
}

// value returns the measured value of a record. Records without a cost are skipped
// when measuring cost.
func (m Measure) value(r models.Record) (float64, bool) {
	if m == Cost {
		return r.Cost, r.HasCost
	}
	return r.Usage, true
}

// Order controls the order of series points
type Order int

const (
	// Natural is chronological for date and hour keys, first-seen for categories
	Natural Order = iota
	// DescendingByValue ranks groups, breaking ties by first-seen order
	DescendingByValue
)

// Request describes one aggregation
type Request struct {
	Key     Key
	Reducer Reducer
	Measure Measure
	Order   Order
}

// Point is one group of a series
type Point struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"` // Records in the group
}

// Series is the ordered result of an aggregation
type Series struct {
	key     Key
	reducer Reducer
	measure Measure
	points  []Point
}

// group accumulates one key in a single pass
type group struct {
	key    string
	values []float64
}

// check fails with a SchemaError when the table lacks a column the request reads
func check(t *models.Table, k Key, m Measure) error {
	if f := k.Field(); !t.HasField(f) {
		return models.MissingColumn(f)
	}
	if m == Cost && !t.HasField(models.FieldCost) {
		return models.MissingColumn(models.FieldCost)
	}
	return nil
}

// Aggregate groups the table by req.Key and reduces each group
func Aggregate(t *models.Table, req Request) (*Series, error) {
	if err := check(t, req.Key, req.Measure); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var groups []*group
	t.Each(func(_ int, r models.Record) {
		label, ok := req.Key.extract(r)
		if !ok {
			return
		}
		v, ok := req.Measure.value(r)
		if !ok {
			return
		}
		gi, seen := index[label]
		if !seen {
			gi = len(groups)
			index[label] = gi
			groups = append(groups, &group{key: label})
		}
		groups[gi].values = append(groups[gi].values, v)
	})

	points := make([]Point, len(groups))
	for i, g := range groups {
		points[i] = Point{Key: g.key, Value: reduce(req.Reducer, g.values), Count: len(g.values)}
	}

	switch {
	case req.Order == DescendingByValue:
		// Groups are already in first-seen order, a stable sort keeps ties that way
		sort.SliceStable(points, func(a, b int) bool {
			return points[a].Value > points[b].Value
		})
	case req.Key.Chronological():
		sort.SliceStable(points, func(a, b int) bool {
			return points[a].Key < points[b].Key
		})
	}

	return &Series{key: req.Key, reducer: req.Reducer, measure: req.Measure, points: points}, nil
}

func reduce(r Reducer, values []float64) float64 {
	if r == Mean {
		return stat.Mean(values, nil)
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Daily sums usage per calendar day in chronological order
func Daily(t *models.Table) *Series {
	s, err := Aggregate(t, Request{Key: ByDate})
	if err != nil {
		// timestamp and usage are present in every table
		panic(fmt.Sprintf("daily aggregation: %v", err))
	}
	return s
}

// NewDailySeries builds a date-keyed series from explicit values, keeping the order in
// which each date first appears. Values repeated for one date are summed into that day.
func NewDailySeries(dates []time.Time, values []float64) (*Series, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("length mismatch: %d dates, %d values", len(dates), len(values))
	}
	points := make([]Point, 0, len(dates))
	index := make(map[string]int, len(dates))
	for i := range dates {
		key := dates[i].Format(DateFormat)
		if j, ok := index[key]; ok {
			points[j].Value += values[i]
			points[j].Count++
			continue
		}
		index[key] = len(points)
		points = append(points, Point{Key: key, Value: values[i], Count: 1})
	}
	return &Series{key: ByDate, points: points}, nil
}

// Key returns the grouping key of the series
func (s *Series) Key() Key { return s.key }

// Reducer returns the reducer used
func (s *Series) Reducer() Reducer { return s.reducer }

// Measure returns the measured value
func (s *Series) Measure() Measure { return s.measure }

// Len returns the number of groups
func (s *Series) Len() int { return len(s.points) }

// At returns the i-th point
func (s *Series) At(i int) Point { return s.points[i] }

// Points returns a copy of the points in series order
func (s *Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Value looks up the value of a group
func (s *Series) Value(key string) (float64, bool) {
	for _, p := range s.points {
		if p.Key == key {
			return p.Value, true
		}
	}
	return 0, false
}

// Top returns the first point, which is the largest group of a ranked series
func (s *Series) Top() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[0], true
}

// Total sums the values of all points
func (s *Series) Total() float64 {
	var total float64
	for _, p := range s.points {
		total += p.Value
	}
	return total
}

// Dates parses the keys of a date-keyed series
func (s *Series) Dates() ([]time.Time, error) {
	if s.key != ByDate {
		return nil, fmt.Errorf("series is keyed by %s, not date", s.key)
	}
	out := make([]time.Time, len(s.points))
	for i, p := range s.points {
		d, err := time.Parse(DateFormat, p.Key)
		if err != nil {
			return nil, fmt.Errorf("parsing date key %q: %w", p.Key, err)
		}
		out[i] = d
	}
	return out, nil
}
