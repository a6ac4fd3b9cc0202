package models

import "sort"

// Diagnostics counts rows rejected during normalization, keyed by reason
type Diagnostics map[string]int

// Add counts one rejected row
func (d Diagnostics) Add(err *RowError) {
	d[err.Reason]++
}

// Total returns the number of rejected rows
func (d Diagnostics) Total() int {
	n := 0
	for _, c := range d {
		n += c
	}
	return n
}

// Reasons returns the reasons with at least one rejected row, sorted by name
func (d Diagnostics) Reasons() []string {
	out := make([]string, 0, len(d))
	for reason, c := range d {
		if c > 0 {
			out = append(out, reason)
		}
	}
	sort.Strings(out)
	return out
}
