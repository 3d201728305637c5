package relay

import (
	"cmp"
	"slices"
	"sync"

	"github.com/samber/lo"
)

type entry struct {
	seq  uint64
	peer *Peer
}

// Registry - concurrency-safe set of live peers.
// Snapshot returns peers in registration order.
type Registry struct {
	mu   sync.RWMutex
	seq  uint64
	list map[string]entry
}

// NewRegistry - builds empty registry.
func NewRegistry() *Registry {
	return &Registry{
		list: make(map[string]entry),
	}
}

// Len - returns number of registered peers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// Get - looks up registered peer by id.
func (r *Registry) Get(id string) (*Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.list[id]
	return e.peer, ok
}

// Add - registers the peer, returns ErrDuplicateHandle if its id is kept already.
func (r *Registry) Add(p *Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.list[p.ID()]; ok {
		return ErrDuplicateHandle
	}
	r.seq++
	r.list[p.ID()] = entry{seq: r.seq, peer: p}
	return nil
}

// Remove - unregisters the peer. Removing an absent peer is no-op.
// Returns true if the peer was registered.
func (r *Registry) Remove(p *Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.list[p.ID()]; !ok {
		return false
	}
	delete(r.list, p.ID())
	return true
}

// Snapshot - copies registered peers taken under the lock.
// The result is safe to iterate while the registry keeps changing.
func (r *Registry) Snapshot() []*Peer {
	r.mu.RLock()
	entries := lo.Values(r.list)
	r.mu.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.seq, b.seq)
	})
	return lo.Map(entries, func(e entry, _ int) *Peer {
		return e.peer
	})
}
