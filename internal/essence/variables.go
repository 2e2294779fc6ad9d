package essence

import (
	"sort"
	"sync"
)

// Variables is the name -> value table written by "name := expr".
type Variables struct {
	mu    sync.RWMutex
	items map[string]any
}

func NewVariables() *Variables {
	return &Variables{items: make(map[string]any)}
}

// Set stores v under name; last write wins.
func (v *Variables) Set(name string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items[name] = value
}

func (v *Variables) Get(name string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	value, ok := v.items[name]
	return value, ok
}

// Lookup makes Variables usable as an expression environment.
func (v *Variables) Lookup(name string) (any, bool) {
	return v.Get(name)
}

func (v *Variables) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.items)
}

// All returns a snapshot copy of the table.
func (v *Variables) All() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]any, len(v.items))
	for name, value := range v.items {
		out[name] = value
	}
	return out
}

func (v *Variables) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return sortedKeys(v.items)
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
