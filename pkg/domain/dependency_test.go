package domain

import (
	"errors"
	"testing"
)

func TestResolveAddsResetValues(t *testing.T) {
	table := DefaultDependencies()
	got := table.Resolve(NewUpdate().WithRegion("Europe"))
	want := NewUpdate().WithRegion("Europe").WithIndustry(AllValue)
	if !got.Equal(want) {
		t.Fatalf("want %s got %s", want, got)
	}
}

func TestResolveExplicitFieldWins(t *testing.T) {
	table := DefaultDependencies()
	got := table.Resolve(NewUpdate().WithRegion("Europe").WithIndustry("Retail"))
	if v, _ := got.Get(FieldIndustry); v != "Retail" {
		t.Fatalf("explicit industry overwritten: %s", got)
	}
}

func TestResolveIsSinglePass(t *testing.T) {
	// Department resets region; region is itself a trigger for industry, but
	// only because the department rule names industry explicitly is it reset.
	table := MustDependencyTable(
		DependencyRule{Trigger: FieldDepartment, Reset: []Field{FieldRegion}, ResetValue: AllValue},
		DependencyRule{Trigger: FieldRegion, Reset: []Field{FieldIndustry}, ResetValue: AllValue},
	)
	got := table.Resolve(NewUpdate().WithDepartment("Sales"))
	want := NewUpdate().WithDepartment("Sales").WithRegion(AllValue)
	if !got.Equal(want) {
		t.Fatalf("cascade must not chain: want %s got %s", want, got)
	}
}

func TestResolveWithoutTriggerIsIdentity(t *testing.T) {
	u := NewUpdate().WithMetric("profit")
	if got := DefaultDependencies().Resolve(u); !got.Equal(u) {
		t.Fatalf("non-trigger update changed: %s", got)
	}
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	u := NewUpdate().WithRegion("Europe")
	_ = DefaultDependencies().Resolve(u)
	if u.Has(FieldIndustry) {
		t.Fatalf("input update mutated")
	}
}

func TestNewDependencyTableValidation(t *testing.T) {
	if _, err := NewDependencyTable(DependencyRule{Trigger: "nope", Reset: []Field{FieldIndustry}}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected unknown trigger error, got %v", err)
	}
	if _, err := NewDependencyTable(DependencyRule{Trigger: FieldRegion, Reset: []Field{"nope"}}); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected unknown reset error, got %v", err)
	}
	if _, err := NewDependencyTable(DependencyRule{Trigger: FieldRegion}); err == nil {
		t.Fatalf("expected error for empty reset list")
	}
	if _, err := NewDependencyTable(DependencyRule{Trigger: FieldRegion, Reset: []Field{FieldRegion}}); err == nil {
		t.Fatalf("expected error for self reset")
	}
}

func TestDependentsAndRulesCopy(t *testing.T) {
	table := DefaultDependencies()
	deps := table.Dependents(FieldDepartment)
	if len(deps) != 2 || deps[0] != FieldRegion || deps[1] != FieldIndustry {
		t.Fatalf("unexpected dependents %v", deps)
	}
	rules := table.Rules()
	rules[0].Reset[0] = FieldMetric
	if table.Dependents(FieldRegion)[0] != FieldIndustry {
		t.Fatalf("Rules() must return a copy")
	}
}
