package monitor

import "sync"

// DefaultBufferLines bounds the history kept when no size is configured.
const DefaultBufferLines = 500

// Buffer keeps the most recent messages up to a fixed capacity.
type Buffer struct {
	mu    sync.RWMutex
	ring  []Message
	idx   int
	count int
	total uint64
}

// NewBuffer returns a buffer holding at most size messages.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferLines
	}
	return &Buffer{ring: make([]Message, size)}
}

// Add appends msg, evicting the oldest entry once full.
func (b *Buffer) Add(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	size := len(b.ring)
	b.ring[b.idx] = msg
	b.idx = (b.idx + 1) % size
	if b.count < size {
		b.count++
	}
	b.total++
}

// Messages returns the buffered messages oldest first.
func (b *Buffer) Messages() []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	size := len(b.ring)
	out := make([]Message, b.count)
	if b.count == size {
		for i := 0; i < b.count; i++ {
			out[i] = b.ring[(b.idx+i)%size]
		}
	} else {
		copy(out, b.ring[:b.count])
	}
	return out
}

// Len returns the number of buffered messages.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Total counts every message ever added, evicted ones included.
func (b *Buffer) Total() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

// Cap returns the capacity.
func (b *Buffer) Cap() int {
	return len(b.ring)
}

// Reset drops all buffered messages.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.ring)
	b.idx = 0
	b.count = 0
}
