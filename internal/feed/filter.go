package feed

import (
	"fmt"
	"strings"
)

// Filter selects events by table and, optionally, by one column equality
// written as "column=eq.value".
type Filter struct {
	Table  string
	Column string
	Value  string
}

// ParseFilter builds a Filter. An empty or "*" table matches every table.
func ParseFilter(table, expr string) (Filter, error) {
	f := Filter{Table: strings.TrimSpace(table)}
	if f.Table == "*" {
		f.Table = ""
	}

	expr = strings.TrimSpace(expr)
	if expr == "" {
		return f, nil
	}

	column, rest, ok := strings.Cut(expr, "=")
	if !ok || column == "" {
		return Filter{}, fmt.Errorf("invalid filter %q: want column=eq.value", expr)
	}
	value, ok := strings.CutPrefix(rest, "eq.")
	if !ok {
		return Filter{}, fmt.Errorf("invalid filter %q: only eq is supported", expr)
	}
	f.Column, f.Value = column, value
	return f, nil
}

// Match reports whether e should reach a subscriber with this filter. Events
// that do not name a table, and bulk events on the filtered table, always
// match: the subscriber has to re-fetch either way.
func (f Filter) Match(e Event) bool {
	if e.Table != "" && f.Table != "" && e.Table != f.Table {
		return false
	}
	if f.Column == "" || e.Bulk() {
		return true
	}
	v, ok := e.Field(f.Column)
	return ok && v == f.Value
}

func (f Filter) String() string {
	table := f.Table
	if table == "" {
		table = "*"
	}
	if f.Column == "" {
		return table
	}
	return fmt.Sprintf("%s?%s=eq.%s", table, f.Column, f.Value)
}
