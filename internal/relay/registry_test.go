package relay

import (
	"fmt"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newPeers(n int) []*Peer {
	return lo.Times(n, func(i int) *Peer {
		return newPeer(fmt.Sprintf("peer-%d", i), newFakeConn(), 1)
	})
}

func TestRegistry_Add(test *testing.T) {
	req := require.New(test)
	registry := NewRegistry()
	peers := newPeers(3)

	// Given no peer is registered
	req.Zero(registry.Len())
	req.Empty(registry.Snapshot())

	// When peers are added
	for _, p := range peers {
		req.NoError(registry.Add(p))
	}

	// Then snapshot keeps registration order
	req.Equal(3, registry.Len())
	req.Equal(peers, registry.Snapshot())
	p, ok := registry.Get(peers[1].ID())
	req.True(ok)
	req.Same(peers[1], p)

	// And the same peer can not be added twice
	req.ErrorIs(registry.Add(peers[0]), ErrDuplicateHandle)
	req.Equal(3, registry.Len())
}

func TestRegistry_Remove(test *testing.T) {
	req := require.New(test)
	registry := NewRegistry()
	peers := newPeers(3)
	for _, p := range peers {
		req.NoError(registry.Add(p))
	}

	// When a peer is removed
	req.True(registry.Remove(peers[1]))

	// Then the rest keep their order
	req.Equal([]*Peer{peers[0], peers[2]}, registry.Snapshot())
	_, ok := registry.Get(peers[1].ID())
	req.False(ok)

	// And repeated removal is no-op
	req.False(registry.Remove(peers[1]))
	req.Equal(2, registry.Len())

	// And removal of never registered peer is no-op as well
	req.False(registry.Remove(newPeer("stranger", newFakeConn(), 1)))
	req.Equal(2, registry.Len())
}

func TestRegistry_SnapshotIsCopy(test *testing.T) {
	req := require.New(test)
	registry := NewRegistry()
	peers := newPeers(2)
	for _, p := range peers {
		req.NoError(registry.Add(p))
	}

	snapshot := registry.Snapshot()
	registry.Remove(peers[0])
	req.NoError(registry.Add(newPeer("late", newFakeConn(), 1)))

	req.Equal(peers, snapshot)
}

func TestRegistry_JoinsAndLeaves(test *testing.T) {
	cases := []struct{ joins, leaves int }{
		{0, 0},
		{1, 0},
		{1, 1},
		{10, 3},
		{50, 50},
	}
	for _, c := range cases {
		test.Run(fmt.Sprintf("%d-%d", c.joins, c.leaves), func(test *testing.T) {
			registry := NewRegistry()
			peers := newPeers(c.joins)

			wg := sync.WaitGroup{}
			for _, p := range peers {
				wg.Add(1)
				go func(p *Peer) {
					defer wg.Done()
					require.NoError(test, registry.Add(p))
				}(p)
			}
			wg.Wait()
			for _, p := range peers[:c.leaves] {
				wg.Add(1)
				go func(p *Peer) {
					defer wg.Done()
					registry.Remove(p)
					registry.Remove(p)
				}(p)
			}
			wg.Wait()

			require.Equal(test, c.joins-c.leaves, registry.Len())
			require.ElementsMatch(test, peers[c.leaves:], registry.Snapshot())
		})
	}
}
