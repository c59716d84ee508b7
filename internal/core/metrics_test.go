package core

import (
	"testing"

	"dashcore/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSourceLabel(t *testing.T) {
	cases := map[string]string{
		"":                 "unspecified",
		domain.SourceReset: "reset",
		"__snapshot__:q3":  "snapshot",
		"chart:revenue":    "chart",
		"script:summary":   "script",
		"region-dropdown":  "control",
	}
	for in, want := range cases {
		if got := sourceLabel(in); got != want {
			t.Fatalf("sourceLabel(%q)=%q want %q", in, got, want)
		}
	}
}

func TestStoreMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s := newTestStore(WithMetrics(m))
	s.Update(domain.NewUpdate().WithRegion("Europe"), "dropdown")
	s.Update(domain.NewUpdate().WithMetric("profit"), "dropdown")
	s.ResetToDefault()
	s.Undo()
	s.Redo()

	if got := testutil.ToFloat64(m.transactions.WithLabelValues("control")); got != 2 {
		t.Fatalf("control transactions %v", got)
	}
	if got := testutil.ToFloat64(m.transactions.WithLabelValues("reset")); got != 1 {
		t.Fatalf("reset transactions %v", got)
	}
	if testutil.ToFloat64(m.undos) != 1 || testutil.ToFloat64(m.redos) != 1 {
		t.Fatalf("undo/redo counters wrong")
	}
	if got := testutil.ToFloat64(m.historyLength); got != 3 {
		t.Fatalf("history gauge %v", got)
	}
	if n := testutil.CollectAndCount(m.transactions); n != 2 {
		t.Fatalf("expected two source series, got %d", n)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.transactionRecorded("x", 1)
	m.undone()
	m.redone()
	m.callbackFailed()
	m.snapshotPersistFailed()
	m.snapshotLoaded("hit")
	m.scriptRan("ok")
}

func TestIndependentRegistries(t *testing.T) {
	NewMetrics(prometheus.NewRegistry())
	NewMetrics(prometheus.NewRegistry())
}
