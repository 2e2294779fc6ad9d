package essence

import (
	"fmt"
	"sync"
)

const (
	DefaultMemorySize = 1024
	DefaultMaxMemory  = 64 << 20
)

// Memory is the simulated byte buffer. It only ever grows.
type Memory struct {
	mu      sync.RWMutex
	buf     []byte
	limit   int
	handles int
}

// NewMemory returns a zeroed buffer of size bytes that may grow up to limit.
func NewMemory(size, limit int) *Memory {
	if size < 0 {
		size = 0
	}
	if limit <= 0 {
		limit = DefaultMaxMemory
	}
	if limit < size {
		limit = size
	}
	return &Memory{buf: make([]byte, size), limit: limit}
}

// Malloc grows the buffer with zero bytes up to size when it is shorter and
// mints a new handle identifier. Smaller requests leave the length alone.
func (m *Memory) Malloc(size int64) (string, error) {
	if size < 0 {
		return "", fmt.Errorf("%w: %d", ErrNegativeSize, size)
	}
	if size > int64(m.limit) {
		return "", fmt.Errorf("%w: %d > %d", ErrAllocationTooLarge, size, m.limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := int(size); len(m.buf) < n {
		m.buf = append(m.buf, make([]byte, n-len(m.buf))...)
	}
	m.handles++
	return fmt.Sprintf("mem-%d", m.handles), nil
}

// Read returns the byte at index, or false when index is outside the buffer.
func (m *Memory) Read(index int64) (byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= int64(len(m.buf)) {
		return 0, false
	}
	return m.buf[index], true
}

// Write copies data into the buffer at offset without growing it.
func (m *Memory) Write(offset int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset < 0 || offset+len(data) > len(m.buf) {
		return fmt.Errorf("%w: write [%d:%d] on %d bytes", ErrOutOfBounds, offset, offset+len(data), len(m.buf))
	}
	copy(m.buf[offset:], data)
	return nil
}

// Slice returns a copy of bytes [start, end).
func (m *Memory) Slice(start, end int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if start < 0 || end < start || end > len(m.buf) {
		return nil, fmt.Errorf("%w: slice [%d:%d] on %d bytes", ErrOutOfBounds, start, end, len(m.buf))
	}
	out := make([]byte, end-start)
	copy(out, m.buf[start:end])
	return out, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.buf)
}

// Handles returns how many allocations have been minted.
func (m *Memory) Handles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handles
}
