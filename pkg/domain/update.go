package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownField is returned when a field name does not belong to State.
var ErrUnknownField = errors.New("unknown dashboard field")

// Update is a partial state change. Each known field has an explicit optional
// slot; a nil slot means "leave unchanged". Update is a value type and every
// modifier returns a new copy.
type Update struct {
	TimeRange   *string `json:"selectedTimeRange,omitempty"`
	RevenueType *string `json:"revenueType,omitempty"`
	Department  *string `json:"selectedDepartment,omitempty"`
	Region      *string `json:"selectedRegion,omitempty"`
	Industry    *string `json:"selectedIndustry,omitempty"`
	Metric      *string `json:"selectedMetric,omitempty"`
}

// NewUpdate starts an empty update for fluent construction.
func NewUpdate() Update { return Update{} }

func (u Update) WithTimeRange(v string) Update   { u.TimeRange = &v; return u }
func (u Update) WithRevenueType(v string) Update { u.RevenueType = &v; return u }
func (u Update) WithDepartment(v string) Update  { u.Department = &v; return u }
func (u Update) WithRegion(v string) Update      { u.Region = &v; return u }
func (u Update) WithIndustry(v string) Update    { u.Industry = &v; return u }
func (u Update) WithMetric(v string) Update      { u.Metric = &v; return u }

func (u *Update) slot(f Field) **string {
	switch f {
	case FieldTimeRange:
		return &u.TimeRange
	case FieldRevenueType:
		return &u.RevenueType
	case FieldDepartment:
		return &u.Department
	case FieldRegion:
		return &u.Region
	case FieldIndustry:
		return &u.Industry
	case FieldMetric:
		return &u.Metric
	default:
		return nil
	}
}

// Set returns a copy of u with field f set to value. Unknown fields are
// ignored; use Field.Known to check beforehand.
func (u Update) Set(f Field, value string) Update {
	if p := u.slot(f); p != nil {
		v := value
		*p = &v
	}
	return u
}

// Get reports the value for f and whether the update touches it.
func (u Update) Get(f Field) (string, bool) {
	p := u.slot(f)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// Has reports whether the update touches f.
func (u Update) Has(f Field) bool {
	_, ok := u.Get(f)
	return ok
}

// Fields lists the touched fields in canonical order.
func (u Update) Fields() []Field {
	var out []Field
	for _, f := range fieldOrder {
		if u.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// IsEmpty reports whether the update touches no field.
func (u Update) IsEmpty() bool { return len(u.Fields()) == 0 }

// Clone returns a deep copy so stored transactions never share pointers with
// caller-held updates.
func (u Update) Clone() Update {
	var out Update
	for _, f := range u.Fields() {
		v, _ := u.Get(f)
		out = out.Set(f, v)
	}
	return out
}

// Equal reports whether both updates touch the same fields with the same values.
func (u Update) Equal(other Update) bool {
	for _, f := range fieldOrder {
		a, okA := u.Get(f)
		b, okB := other.Get(f)
		if okA != okB || a != b {
			return false
		}
	}
	return true
}

// String renders the update as field=value pairs for diagnostics.
func (u Update) String() string {
	fields := u.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, _ := u.Get(f)
		parts = append(parts, fmt.Sprintf("%s=%s", f, v))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// DecodeUpdate parses a JSON object into an Update. Keys that do not name a
// known field are skipped and returned so callers can report them.
func DecodeUpdate(data []byte) (Update, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Update{}, nil, fmt.Errorf("decode update: %w", err)
	}
	return UpdateFromMap(raw)
}

// UpdateFromMap builds an Update from loosely typed key/value pairs such as
// those decoded from YAML or JSON session files.
func UpdateFromMap[V any](values map[string]V) (Update, []string, error) {
	var (
		u       Update
		unknown []string
	)
	for key, value := range values {
		f := Field(key)
		if !f.Known() {
			unknown = append(unknown, key)
			continue
		}
		s, err := stringValue(value)
		if err != nil {
			return Update{}, nil, fmt.Errorf("field %s: %w", key, err)
		}
		u = u.Set(f, s)
	}
	sort.Strings(unknown)
	return u, unknown, nil
}

func stringValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.RawMessage:
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return "", fmt.Errorf("expected string value: %w", err)
		}
		return s, nil
	case fmt.Stringer:
		return val.String(), nil
	case nil:
		return "", errors.New("null value")
	default:
		return fmt.Sprint(val), nil
	}
}
