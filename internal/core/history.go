package core

import "dashcore/pkg/domain"

// transactionLog is a linear undo log. position points at the transaction
// representing the materialised state; -1 means the defaults.
type transactionLog struct {
	entries  []domain.Transaction
	position int
}

func newTransactionLog() transactionLog {
	return transactionLog{position: -1}
}

// append truncates everything after position and records tx as the new head.
func (l *transactionLog) append(tx domain.Transaction) {
	l.entries = append(l.entries[:l.position+1], tx)
	l.position = len(l.entries) - 1
}

func (l *transactionLog) canUndo() bool { return l.position >= 0 }

func (l *transactionLog) canRedo() bool { return l.position < len(l.entries)-1 }

func (l *transactionLog) len() int { return len(l.entries) }

// replay folds base with every transaction up to and including through.
func (l *transactionLog) replay(base domain.State, through int) domain.State {
	state := base
	for i := 0; i <= through && i < len(l.entries); i++ {
		state = state.Apply(l.entries[i].Updates)
	}
	return state
}

func (l *transactionLog) snapshot() []domain.Transaction {
	out := make([]domain.Transaction, len(l.entries))
	for i, tx := range l.entries {
		out[i] = tx.Clone()
	}
	return out
}
