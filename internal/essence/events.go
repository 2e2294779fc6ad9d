package essence

import "sync"

// Callback receives the value emitted for an event.
type Callback func(value any)

// Events stores callbacks by event name in registration order.
type Events struct {
	mu        sync.RWMutex
	listeners map[string][]Callback
}

func NewEvents() *Events {
	return &Events{listeners: make(map[string][]Callback)}
}

// On registers cb for name. Nil callbacks are ignored.
func (e *Events) On(name string, cb Callback) {
	if cb == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[name] = append(e.listeners[name], cb)
}

// Emit invokes every callback registered for name and returns how many ran.
// Callbacks run on a snapshot outside the lock, so they may register more
// listeners or emit again.
func (e *Events) Emit(name string, value any) int {
	e.mu.RLock()
	cbs := make([]Callback, len(e.listeners[name]))
	copy(cbs, e.listeners[name])
	e.mu.RUnlock()

	for _, cb := range cbs {
		cb(value)
	}
	return len(cbs)
}

// Len returns the number of event names with at least one listener.
func (e *Events) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}

func (e *Events) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return sortedKeys(e.listeners)
}
