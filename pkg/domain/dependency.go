package domain

import (
	"errors"
	"fmt"
)

// DependencyRule resets the Reset fields to ResetValue whenever Trigger is
// part of an update.
type DependencyRule struct {
	Trigger    Field   `json:"trigger" yaml:"trigger"`
	Reset      []Field `json:"reset" yaml:"reset"`
	ResetValue string  `json:"reset_value" yaml:"reset_value"`
}

// DependencyTable is an ordered, validated list of dependency rules.
type DependencyTable struct {
	rules []DependencyRule
}

// NewDependencyTable validates the supplied rules and builds a table. Every
// trigger and reset field must be a known state field and a rule may not
// reset its own trigger.
func NewDependencyTable(rules ...DependencyRule) (DependencyTable, error) {
	out := make([]DependencyRule, 0, len(rules))
	for i, rule := range rules {
		if !rule.Trigger.Known() {
			return DependencyTable{}, fmt.Errorf("rule %d trigger: %w: %q", i, ErrUnknownField, rule.Trigger)
		}
		if len(rule.Reset) == 0 {
			return DependencyTable{}, fmt.Errorf("rule %d (%s): no reset fields", i, rule.Trigger)
		}
		for _, f := range rule.Reset {
			if !f.Known() {
				return DependencyTable{}, fmt.Errorf("rule %d reset: %w: %q", i, ErrUnknownField, f)
			}
			if f == rule.Trigger {
				return DependencyTable{}, errors.New("dependency rule cannot reset its own trigger " + string(f))
			}
		}
		out = append(out, DependencyRule{
			Trigger:    rule.Trigger,
			Reset:      append([]Field(nil), rule.Reset...),
			ResetValue: rule.ResetValue,
		})
	}
	return DependencyTable{rules: out}, nil
}

// MustDependencyTable is NewDependencyTable for static tables known to be valid.
func MustDependencyTable(rules ...DependencyRule) DependencyTable {
	t, err := NewDependencyTable(rules...)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultDependencies returns the built-in cascade table: narrowing the region
// clears the industry, changing the department clears region and industry.
func DefaultDependencies() DependencyTable {
	return MustDependencyTable(
		DependencyRule{Trigger: FieldRegion, Reset: []Field{FieldIndustry}, ResetValue: AllValue},
		DependencyRule{Trigger: FieldDepartment, Reset: []Field{FieldRegion, FieldIndustry}, ResetValue: AllValue},
	)
}

// Rules returns a copy of the configured rules.
func (t DependencyTable) Rules() []DependencyRule {
	out := make([]DependencyRule, len(t.rules))
	for i, r := range t.rules {
		out[i] = DependencyRule{Trigger: r.Trigger, Reset: append([]Field(nil), r.Reset...), ResetValue: r.ResetValue}
	}
	return out
}

// Dependents lists the fields reset when f changes.
func (t DependencyTable) Dependents(f Field) []Field {
	var out []Field
	for _, r := range t.rules {
		if r.Trigger == f {
			out = append(out, r.Reset...)
		}
	}
	return out
}

// Resolve expands u with the reset values of every rule whose trigger is
// present in u. Resolution is a single pass over the caller's fields: a reset
// never triggers further rules, and fields the caller set explicitly are never
// overwritten by a reset.
func (t DependencyTable) Resolve(u Update) Update {
	resolved := u.Clone()
	for _, r := range t.rules {
		if !u.Has(r.Trigger) {
			continue
		}
		for _, f := range r.Reset {
			if u.Has(f) {
				continue
			}
			resolved = resolved.Set(f, r.ResetValue)
		}
	}
	return resolved
}
