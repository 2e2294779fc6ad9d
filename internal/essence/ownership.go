package essence

import (
	"fmt"
	"sync"
)

// Ownership simulates exclusive possession. Nothing is enforced beyond name
// uniqueness: borrows are a membership label and may coexist.
type Ownership struct {
	mu       sync.RWMutex
	owned    map[string]any
	borrowed map[string]struct{}
}

func NewOwnership() *Ownership {
	return &Ownership{
		owned:    make(map[string]any),
		borrowed: make(map[string]struct{}),
	}
}

// Own records value under name. Re-owning a held name is a conflict.
func (o *Ownership) Own(name string, value any) error {
	if name == "" {
		return fmt.Errorf("%w: owner name is empty", ErrInvalidName)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.owned[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyOwned, name)
	}
	o.owned[name] = value
	return nil
}

// Borrow returns the owned value and marks name as borrowed. A name that was
// never owned yields (nil, false) and is not an error.
func (o *Ownership) Borrow(name string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	value, ok := o.owned[name]
	if !ok {
		return nil, false
	}
	o.borrowed[name] = struct{}{}
	return value, true
}

// Move transfers ownership from one name to another. Outstanding borrows of
// the source are dropped.
func (o *Ownership) Move(from, to string) (any, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: move requires source and target", ErrInvalidName)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	value, ok := o.owned[from]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotOwned, from)
	}
	if _, taken := o.owned[to]; taken {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOwned, to)
	}
	delete(o.owned, from)
	delete(o.borrowed, from)
	o.owned[to] = value
	return value, nil
}

// Get reads an owned value without recording a borrow.
func (o *Ownership) Get(name string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	value, ok := o.owned[name]
	return value, ok
}

func (o *Ownership) IsBorrowed(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.borrowed[name]
	return ok
}

func (o *Ownership) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.owned)
}

func (o *Ownership) Owned() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return sortedKeys(o.owned)
}

func (o *Ownership) Borrowed() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return sortedKeys(o.borrowed)
}
