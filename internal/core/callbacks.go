package core

import (
	"dashcore/pkg/domain"

	"go.uber.org/zap"
)

// Listener is notified after every committed state change.
type Listener func(next, prev domain.State)

type namedListener struct {
	id string
	fn Listener
}

// callbackRegistry keeps listeners in registration order. Replacing a
// listener keeps its original slot.
type callbackRegistry struct {
	order []string
	fns   map[string]Listener
}

func newCallbackRegistry() *callbackRegistry {
	return &callbackRegistry{fns: make(map[string]Listener)}
}

func (r *callbackRegistry) register(id string, fn Listener) {
	if _, exists := r.fns[id]; !exists {
		r.order = append(r.order, id)
	}
	r.fns[id] = fn
}

func (r *callbackRegistry) unregister(id string) bool {
	if _, exists := r.fns[id]; !exists {
		return false
	}
	delete(r.fns, id)
	for i, candidate := range r.order {
		if candidate == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *callbackRegistry) snapshot() []namedListener {
	out := make([]namedListener, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, namedListener{id: id, fn: r.fns[id]})
	}
	return out
}

// RegisterCallback adds or replaces the listener stored under id.
func (s *Store) RegisterCallback(id string, fn Listener) error {
	if id == "" {
		return ErrInvalidListener{Reason: "empty id"}
	}
	if fn == nil {
		return ErrInvalidListener{ID: id, Reason: "nil function"}
	}
	s.mu.Lock()
	s.listeners.register(id, fn)
	s.mu.Unlock()
	return nil
}

// UnregisterCallback removes the listener stored under id and reports whether
// one existed.
func (s *Store) UnregisterCallback(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listeners.unregister(id)
}

// CallbackIDs lists registered listener ids in notification order.
func (s *Store) CallbackIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.listeners.order...)
}

func (s *Store) notify(listeners []namedListener, next, prev domain.State) {
	for _, l := range listeners {
		s.invoke(l, next, prev)
	}
}

// invoke isolates one listener: a panic is logged and counted, never
// propagated.
func (s *Store) invoke(l namedListener, next, prev domain.State) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("dashboard listener failed",
				zap.String("listener", l.id),
				zap.Any("panic", r))
			s.metrics.callbackFailed()
		}
	}()
	l.fn(next, prev)
}
