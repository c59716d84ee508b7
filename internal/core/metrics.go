package core

import (
	"strings"

	"dashcore/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments a Store. A nil *Metrics is valid and records nothing.
type Metrics struct {
	transactions    *prometheus.CounterVec
	undos           prometheus.Counter
	redos           prometheus.Counter
	historyLength   prometheus.Gauge
	callbackFailure prometheus.Counter
	persistFailure  prometheus.Counter
	snapshotLoads   *prometheus.CounterVec
	scriptRuns      *prometheus.CounterVec
}

// NewMetrics registers the store collectors on reg. Passing a fresh
// prometheus.NewRegistry keeps independent stores from colliding.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashcore_transactions_total",
			Help: "Recorded state transactions by source class.",
		}, []string{"source"}),
		undos: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashcore_undo_total",
			Help: "Successful undo operations.",
		}),
		redos: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashcore_redo_total",
			Help: "Successful redo operations.",
		}),
		historyLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashcore_history_length",
			Help: "Transactions currently held in the log.",
		}),
		callbackFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashcore_callback_failures_total",
			Help: "Listener invocations that panicked.",
		}),
		persistFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashcore_snapshot_persist_failures_total",
			Help: "Snapshot writes that failed in persistent storage.",
		}),
		snapshotLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashcore_snapshot_loads_total",
			Help: "Snapshot load attempts by result.",
		}, []string{"result"}),
		scriptRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashcore_script_runs_total",
			Help: "Script executions by status.",
		}, []string{"status"}),
	}
}

// sourceLabel collapses free-text sources into a bounded label set.
func sourceLabel(source string) string {
	switch {
	case source == "":
		return "unspecified"
	case source == domain.SourceReset:
		return "reset"
	case strings.HasPrefix(source, domain.SourceSnapshotPrefix):
		return "snapshot"
	case strings.HasPrefix(source, domain.SourceChartPrefix):
		return "chart"
	case strings.HasPrefix(source, domain.SourceScriptPrefix):
		return "script"
	default:
		return "control"
	}
}

func (m *Metrics) transactionRecorded(source string, length int) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(sourceLabel(source)).Inc()
	m.historyLength.Set(float64(length))
}

func (m *Metrics) undone() {
	if m != nil {
		m.undos.Inc()
	}
}

func (m *Metrics) redone() {
	if m != nil {
		m.redos.Inc()
	}
}

func (m *Metrics) callbackFailed() {
	if m != nil {
		m.callbackFailure.Inc()
	}
}

func (m *Metrics) snapshotPersistFailed() {
	if m != nil {
		m.persistFailure.Inc()
	}
}

func (m *Metrics) snapshotLoaded(result string) {
	if m != nil {
		m.snapshotLoads.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) scriptRan(status string) {
	if m != nil {
		m.scriptRuns.WithLabelValues(status).Inc()
	}
}
