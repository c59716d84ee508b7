// Package domain defines the dashboard selection state, partial updates,
// transaction records, filter dependency rules and dataset value types shared
// by the store and its collaborators.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Field identifies one named selection field of the dashboard state.
type Field string

// Known dashboard state fields. The string values double as JSON keys.
const (
	// FieldTimeRange selects the reporting window.
	FieldTimeRange Field = "selectedTimeRange"
	// FieldRevenueType toggles between gross and net revenue.
	FieldRevenueType Field = "revenueType"
	// FieldDepartment restricts data to one department.
	FieldDepartment Field = "selectedDepartment"
	// FieldRegion restricts data to one sales region.
	FieldRegion Field = "selectedRegion"
	// FieldIndustry restricts data to one customer industry.
	FieldIndustry Field = "selectedIndustry"
	// FieldMetric selects the headline metric.
	FieldMetric Field = "selectedMetric"
)

// AllValue is the sentinel meaning "no restriction" for filter dimensions.
const AllValue = "all"

// Static option domains for the non data-derived fields.
var (
	TimeRanges   = []string{"7d", "30d", "90d", "12m", "ytd", "all"}
	RevenueTypes = []string{"gross", "net"}
	Metrics      = []string{"revenue", "profit", "customers", "growth"}
)

var fieldOrder = []Field{
	FieldTimeRange,
	FieldRevenueType,
	FieldDepartment,
	FieldRegion,
	FieldIndustry,
	FieldMetric,
}

// Fields returns every known state field in canonical order.
func Fields() []Field {
	return append([]Field(nil), fieldOrder...)
}

// Known reports whether f names a dashboard state field.
func (f Field) Known() bool {
	for _, candidate := range fieldOrder {
		if candidate == f {
			return true
		}
	}
	return false
}

// State is the complete dashboard selection state. Every field always holds a
// value; partial changes are expressed with Update and merged via Apply.
type State struct {
	TimeRange   string `json:"selectedTimeRange"`
	RevenueType string `json:"revenueType"`
	Department  string `json:"selectedDepartment"`
	Region      string `json:"selectedRegion"`
	Industry    string `json:"selectedIndustry"`
	Metric      string `json:"selectedMetric"`
}

// DefaultState returns the state a fresh dashboard starts from.
func DefaultState() State {
	return State{
		TimeRange:   "12m",
		RevenueType: "gross",
		Department:  AllValue,
		Region:      AllValue,
		Industry:    AllValue,
		Metric:      "revenue",
	}
}

// Get returns the value held by field f.
func (s State) Get(f Field) (string, bool) {
	switch f {
	case FieldTimeRange:
		return s.TimeRange, true
	case FieldRevenueType:
		return s.RevenueType, true
	case FieldDepartment:
		return s.Department, true
	case FieldRegion:
		return s.Region, true
	case FieldIndustry:
		return s.Industry, true
	case FieldMetric:
		return s.Metric, true
	default:
		return "", false
	}
}

// With returns a copy of s with field f set to value.
func (s State) With(f Field, value string) (State, error) {
	switch f {
	case FieldTimeRange:
		s.TimeRange = value
	case FieldRevenueType:
		s.RevenueType = value
	case FieldDepartment:
		s.Department = value
	case FieldRegion:
		s.Region = value
	case FieldIndustry:
		s.Industry = value
	case FieldMetric:
		s.Metric = value
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return s, nil
}

// Apply merges the fields present in u onto s. Absent fields keep their
// previous value.
func (s State) Apply(u Update) State {
	for _, f := range u.Fields() {
		v, _ := u.Get(f)
		s, _ = s.With(f, v)
	}
	return s
}

// AsUpdate expresses the full state as an update touching every field.
func (s State) AsUpdate() Update {
	var u Update
	for _, f := range fieldOrder {
		v, _ := s.Get(f)
		u = u.Set(f, v)
	}
	return u
}

// ErrMalformedState reports a persisted snapshot that cannot yield a complete
// state.
var ErrMalformedState = errors.New("malformed state")

// MarshalState encodes s in the persisted snapshot format.
func MarshalState(s State) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalState decodes a persisted snapshot. Fields missing from the payload
// are filled from DefaultState so the result is always complete. A null
// payload, a null field or an empty value is rejected.
func UnmarshalState(data []byte) (State, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	if raw == nil {
		return State{}, ErrMalformedState
	}
	out := DefaultState()
	for _, f := range fieldOrder {
		payload, ok := raw[string(f)]
		if !ok {
			continue
		}
		var v *string
		if err := json.Unmarshal(payload, &v); err != nil {
			return State{}, fmt.Errorf("decode %s: %w", f, err)
		}
		if v == nil || *v == "" {
			return State{}, fmt.Errorf("%w: %s has no value", ErrMalformedState, f)
		}
		out, _ = out.With(f, *v)
	}
	return out, nil
}
