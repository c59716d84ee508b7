package core

import (
	"fmt"

	"dashcore/pkg/domain"

	"go.uber.org/zap"
)

// InteractionKind classifies chart events.
type InteractionKind string

const (
	// InteractionClick selects (or toggles off) a chart element.
	InteractionClick InteractionKind = "click"
	// InteractionHover is informational only and never changes state.
	InteractionHover InteractionKind = "hover"
)

// Interaction is a chart event reported by a renderer.
type Interaction struct {
	ChartID string
	Kind    InteractionKind
	Field   domain.Field
	Value   string
}

// HandleInteraction translates a chart event into a state update tagged
// "chart:<id>". Clicking the value that is already selected toggles the field
// back to "all". Hovers are logged and ignored. The second result reports
// whether the event produced a transaction.
func (s *Store) HandleInteraction(ev Interaction) (domain.State, bool, error) {
	if !ev.Field.Known() {
		return s.State(), false, fmt.Errorf("%w: %q", domain.ErrUnknownField, ev.Field)
	}
	switch ev.Kind {
	case InteractionHover:
		s.logger.Debug("chart hover",
			zap.String("chart", ev.ChartID),
			zap.String("field", string(ev.Field)),
			zap.String("value", ev.Value))
		return s.State(), false, nil
	case InteractionClick:
	default:
		return s.State(), false, fmt.Errorf("unsupported interaction kind %q", ev.Kind)
	}

	// The toggle decision and the commit share one critical section.
	s.mu.Lock()
	value := ev.Value
	if current, _ := s.state.Get(ev.Field); current == value {
		value = domain.AllValue
	}
	resolved := s.deps.Resolve(domain.NewUpdate().Set(ev.Field, value))
	next := s.commitLocked(resolved, domain.SourceChartPrefix+ev.ChartID)
	return next, true, nil
}
