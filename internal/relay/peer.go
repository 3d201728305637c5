package relay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Peer - server side handle of a single connected peer.
// Lines are queued into bounded outbox and written by a dedicated goroutine,
// so a peer which does not read never blocks the others.
type Peer struct {
	id   string
	name string
	conn Connection
	log  zerolog.Logger

	outbox chan string
	done   chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
	// gone guards the single cleanup run, see Relay.Disconnect
	gone atomic.Bool
}

func newPeer(name string, conn Connection, outbox int) *Peer {
	return &Peer{
		id:     uuid.NewString(),
		name:   name,
		conn:   conn,
		log:    zerolog.Nop(),
		outbox: make(chan string, outbox),
		done:   make(chan struct{}),
	}
}

// ID - returns unique peer id.
func (p *Peer) ID() string {
	return p.id
}

// Name - returns display name, set once on handshake.
func (p *Peer) Name() string {
	return p.name
}

// Alive - reports whether the peer connection is not closed yet.
func (p *Peer) Alive() bool {
	return !p.closed.Load()
}

// Deliver - queues one line for the peer and never blocks.
// Returns ErrPeerClosed if the peer is closed already or ErrPeerStalled if its outbox is full.
func (p *Peer) Deliver(line string) error {
	if p.closed.Load() {
		return ErrPeerClosed
	}
	select {
	case p.outbox <- line:
		return nil
	default:
		return fmt.Errorf("%w: %d lines are pending", ErrPeerStalled, cap(p.outbox))
	}
}

// Close - closes peer connection and stops its writer. Repeated calls are no-op.
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.done)
		if err := p.conn.Close(); err != nil {
			p.log.Debug().Err(err).Msg("close connection")
		}
	})
}

// maintainOutbox - writes queued lines one by one until the peer is closed or ctx is done.
// The first write error is passed to failed, lines left in outbox are dropped.
func (p *Peer) maintainOutbox(ctx context.Context, failed func(err error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case line := <-p.outbox:
			if err := p.conn.WriteLine(line); err != nil {
				failed(err)
				return
			}
		}
	}
}

// markGone - returns true only for the first caller.
func (p *Peer) markGone() bool {
	return p.gone.CompareAndSwap(false, true)
}

func (p *Peer) String() string {
	return fmt.Sprintf("%s (%s)", p.name, p.id)
}

func (p *Peer) isGone() bool {
	return p.gone.Load()
}
