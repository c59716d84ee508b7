package domain

import (
	"strings"
	"time"
)

// Reserved transaction sources written by the store itself.
const (
	// SourceReset tags transactions produced by a reset to defaults.
	SourceReset = "__reset__"
	// SourceSnapshotPrefix prefixes transactions produced by loading a named snapshot.
	SourceSnapshotPrefix = "__snapshot__:"
	// SourceChartPrefix prefixes transactions caused by chart interactions.
	SourceChartPrefix = "chart:"
	// SourceScriptPrefix prefixes transactions issued by data scripts.
	SourceScriptPrefix = "script:"
)

// Transaction is one recorded, replayable state mutation. Updates already
// contain any cascade resets, so replay never re-derives them.
type Transaction struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Updates   Update    `json:"updates"`
	Source    string    `json:"source,omitempty"`
}

// Clone returns a copy that shares no pointers with t.
func (t Transaction) Clone() Transaction {
	t.Updates = t.Updates.Clone()
	return t
}

// IsReset reports whether the transaction was produced by a reset.
func (t Transaction) IsReset() bool { return t.Source == SourceReset }

// SnapshotName returns the snapshot name for load transactions.
func (t Transaction) SnapshotName() (string, bool) {
	if !strings.HasPrefix(t.Source, SourceSnapshotPrefix) {
		return "", false
	}
	return strings.TrimPrefix(t.Source, SourceSnapshotPrefix), true
}
