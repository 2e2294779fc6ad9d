package essence

import "sync"

// ResultsChannel receives the outcome of background tasks started with Go.
const ResultsChannel = "results"

// Channels holds named, unbounded, append-only queues. Appends from any
// goroutine are serialized; reads return copies.
type Channels struct {
	mu     sync.RWMutex
	queues map[string][]any
}

func NewChannels() *Channels {
	return &Channels{queues: make(map[string][]any)}
}

// Send appends value to the named queue, creating it when absent, and
// returns the new queue length.
func (c *Channels) Send(name string, value any) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queues[name] = append(c.queues[name], value)
	return len(c.queues[name])
}

// Values returns a copy of the named queue in send order.
func (c *Channels) Values(name string) []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q := c.queues[name]
	out := make([]any, len(q))
	copy(out, q)
	return out
}

func (c *Channels) Len(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.queues[name])
}

// Lens returns the queue length of every known channel.
func (c *Channels) Lens() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int, len(c.queues))
	for name, q := range c.queues {
		out[name] = len(q)
	}
	return out
}

func (c *Channels) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.queues)
}
