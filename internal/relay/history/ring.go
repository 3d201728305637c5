// Package history keeps recently relayed lines in memory.
package history

import (
	"fmt"
	"sync"
)

// Ring - keeps a limited number of the latest lines.
// When the ring is full, every push overwrites the oldest line.
type Ring struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

// NewRing - builds history ring of given capacity.
func NewRing(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("history.NewRing: capacity (%d) must be greater than 0", capacity)
	}
	return &Ring{lines: make([]string, capacity)}, nil
}

// Cap - returns ring capacity.
func (r *Ring) Cap() int {
	return len(r.lines)
}

// Len - returns number of kept lines.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.len()
}

func (r *Ring) len() int {
	if r.full {
		return len(r.lines)
	}
	return r.next
}

// Push - adds line to history.
func (r *Ring) Push(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line
	r.next++
	if r.next == len(r.lines) {
		r.next = 0
		r.full = true
	}
}

// Tail - copies last n lines in chronological order, the oldest goes first.
// Negative n is treated as its absolute value.
func (r *Ring) Tail(n int) []string {
	if n < 0 {
		n = -n
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	l := r.len()
	if n > l {
		n = l
	}
	tail := make([]string, 0, n)
	start := r.next - n
	if start < 0 {
		start += len(r.lines)
	}
	for i := 0; i < n; i++ {
		tail = append(tail, r.lines[(start+i)%len(r.lines)])
	}
	return tail
}
