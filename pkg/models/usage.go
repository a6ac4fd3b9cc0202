package models

import "time"

// Field names a canonical column of a usage table
type Field string

const (
	FieldTimestamp Field = "timestamp"
	FieldUsage     Field = "usage"
	FieldAppliance Field = "appliance"
	FieldRoom      Field = "room"
	FieldCost      Field = "cost"
)

// Required reports whether every input table must carry the field
func (f Field) Required() bool {
	return f == FieldTimestamp || f == FieldUsage
}

// Reading represents one validated meter reading
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Usage     float64   `json:"usage"`               // kWh, never negative
	Appliance string    `json:"appliance,omitempty"` // "" means missing
	Room      string    `json:"room,omitempty"`      // "" means missing
	Cost      float64   `json:"cost,omitempty"`
	HasCost   bool      `json:"has_cost"`
}

// Record is a canonical reading with its derived calendar fields
type Record struct {
	Reading
	Date time.Time `json:"date"` // Midnight of the wall-clock day
	Hour int       `json:"hour"` // 0-23
}

// NewRecord derives the date and hour of a reading. No timezone conversion is done.
func NewRecord(r Reading) Record {
	ts := r.Timestamp
	return Record{
		Reading: r,
		Date:    time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
		Hour:    ts.Hour(),
	}
}

// Category returns the categorical value of the record for a field
func (r Record) Category(f Field) (string, bool) {
	var v string
	switch f {
	case FieldAppliance:
		v = r.Appliance
	case FieldRoom:
		v = r.Room
	}
	return v, v != ""
}

// Table is an immutable, ordered set of canonical records
type Table struct {
	records []Record
	fields  map[Field]bool
}

// NewTable copies records into a new table. fields lists the optional columns present
// in the source; timestamp and usage are always available.
func NewTable(records []Record, fields ...Field) *Table {
	t := &Table{
		records: make([]Record, len(records)),
		fields:  map[Field]bool{FieldTimestamp: true, FieldUsage: true},
	}
	copy(t.records, records)
	for _, f := range fields {
		t.fields[f] = true
	}
	return t
}

// Len returns the number of records
func (t *Table) Len() int {
	return len(t.records)
}

// At returns the i-th record
func (t *Table) At(i int) Record {
	return t.records[i]
}

// Records returns a copy of all records in input order
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// HasField reports whether the source table carried the column
func (t *Table) HasField(f Field) bool {
	return t.fields[f]
}

// Fields returns the available columns in canonical order
func (t *Table) Fields() []Field {
	var out []Field
	for _, f := range []Field{FieldTimestamp, FieldUsage, FieldAppliance, FieldRoom, FieldCost} {
		if t.fields[f] {
			out = append(out, f)
		}
	}
	return out
}

// Each calls fn for every record in order. Records are passed by value.
func (t *Table) Each(fn func(i int, r Record)) {
	for i, r := range t.records {
		fn(i, r)
	}
}
