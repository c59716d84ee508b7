package domain

import (
	"errors"
	"testing"
)

func TestDefaultStateIsComplete(t *testing.T) {
	s := DefaultState()
	for _, f := range Fields() {
		v, ok := s.Get(f)
		if !ok {
			t.Fatalf("field %s not readable", f)
		}
		if v == "" {
			t.Fatalf("field %s has empty default", f)
		}
	}
	if s.Region != AllValue || s.Industry != AllValue || s.Department != AllValue {
		t.Fatalf("filter dimensions should default to %q: %+v", AllValue, s)
	}
}

func TestApplyLeavesUntouchedFields(t *testing.T) {
	before := DefaultState()
	before.Metric = "profit"
	before.TimeRange = "90d"

	after := before.Apply(NewUpdate().WithRegion("Europe"))
	if after.Region != "Europe" {
		t.Fatalf("region not applied: %+v", after)
	}
	expected := before
	expected.Region = "Europe"
	if after != expected {
		t.Fatalf("unexpected state\nwant %+v\ngot  %+v", expected, after)
	}
}

func TestWithRejectsUnknownField(t *testing.T) {
	_, err := DefaultState().With(Field("selectedColor"), "blue")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestAsUpdateTouchesEveryField(t *testing.T) {
	s := DefaultState()
	s.Region = "APAC"
	u := s.AsUpdate()
	if len(u.Fields()) != len(Fields()) {
		t.Fatalf("expected every field, got %v", u.Fields())
	}
	if got := (State{}).Apply(u); got != s {
		t.Fatalf("applying full update onto zero state: want %+v got %+v", s, got)
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	s := State{TimeRange: "30d", RevenueType: "net", Department: "Sales", Region: "Europe", Industry: "Retail", Metric: "growth"}
	data, err := MarshalState(s)
	mustNoError(t, "marshal", err)
	decoded, err := UnmarshalState(data)
	mustNoError(t, "unmarshal", err)
	if decoded != s {
		t.Fatalf("round trip mismatch\nwant %+v\ngot  %+v", s, decoded)
	}
}

func TestUnmarshalStateFillsMissingFields(t *testing.T) {
	decoded, err := UnmarshalState([]byte(`{"selectedRegion":"LATAM","extra":1}`))
	mustNoError(t, "unmarshal", err)
	want := DefaultState()
	want.Region = "LATAM"
	if decoded != want {
		t.Fatalf("want %+v got %+v", want, decoded)
	}
}

func TestUnmarshalStateRejectsMalformed(t *testing.T) {
	if _, err := UnmarshalState([]byte(`{"selectedRegion":`)); err == nil {
		t.Fatalf("expected error for truncated payload")
	}
	if _, err := UnmarshalState([]byte(`{"selectedRegion":42}`)); err == nil {
		t.Fatalf("expected error for non-string field")
	}
	for _, payload := range []string{`null`, `{"selectedRegion":null}`, `{"selectedMetric":""}`} {
		if _, err := UnmarshalState([]byte(payload)); !errors.Is(err, ErrMalformedState) {
			t.Fatalf("payload %s: expected ErrMalformedState, got %v", payload, err)
		}
	}
}
