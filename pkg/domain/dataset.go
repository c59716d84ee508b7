package domain

import (
	"sort"
	"time"
)

// Record is a flat data row supplied by a data provider.
type Record map[string]any

// Datasets groups records by dataset name (e.g. "revenue").
type Datasets map[string][]Record

// Well-known dataset names produced by the mock generator.
const (
	DatasetRevenue   = "revenue"
	DatasetCustomers = "customers"
	DatasetKPIs      = "kpis"
)

// Well-known record columns used for filtering.
const (
	ColumnDepartment = "department"
	ColumnRegion     = "region"
	ColumnIndustry   = "industry"
	ColumnDate       = "date"
)

// DateLayout is the textual date format used in records.
const DateLayout = "2006-01-02"

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// String returns the column as a string when it holds one.
func (r Record) String(column string) (string, bool) {
	v, ok := r[column]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Date parses the record's date column. Both time.Time values and
// DateLayout/RFC3339 strings are accepted.
func (r Record) Date() (time.Time, bool) {
	switch v := r[ColumnDate].(type) {
	case time.Time:
		return v, true
	case string:
		if t, err := time.Parse(DateLayout, v); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case Record:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return val
	}
}

// Clone returns a deep copy of every dataset.
func (d Datasets) Clone() Datasets {
	if d == nil {
		return nil
	}
	out := make(Datasets, len(d))
	for name, records := range d {
		cp := make([]Record, len(records))
		for i, r := range records {
			cp[i] = r.Clone()
		}
		out[name] = cp
	}
	return out
}

// Names returns dataset names in sorted order.
func (d Datasets) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RecordCount returns the total number of records across datasets.
func (d Datasets) RecordCount() int {
	n := 0
	for _, records := range d {
		n += len(records)
	}
	return n
}

// Plain converts the datasets into plain maps, the shape handed to scripts.
func (d Datasets) Plain() map[string][]map[string]any {
	out := make(map[string][]map[string]any, len(d))
	for name, records := range d {
		rows := make([]map[string]any, len(records))
		for i, r := range records {
			rows[i] = map[string]any(r.Clone())
		}
		out[name] = rows
	}
	return out
}
