package relay

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/wtask/relay/internal/relay/message"
	"github.com/wtask/relay/pkg/background"
)

// Relay - fans lines out to registered peers and manages join/leave announcements.
type Relay struct {
	registry *Registry
	log      zerolog.Logger
	echo     bool
	events   chan<- Event
	history  History
	replay   int
	outbox   int

	scope       *background.Scope
	cancelScope func()
}

// NewRelay - builds relay over the registry.
func NewRelay(registry *Registry, opts ...Option) (*Relay, error) {
	o := defaultOptions()
	if err := setup(&o, opts...); err != nil {
		return nil, err
	}
	return newRelay(registry, o), nil
}

func newRelay(registry *Registry, o options) *Relay {
	scope, cancel := background.NewScope(context.Background())
	return &Relay{
		registry:    registry,
		log:         o.log,
		echo:        o.echo,
		events:      o.events,
		history:     o.history,
		replay:      o.replay,
		outbox:      o.outbox,
		scope:       scope,
		cancelScope: cancel,
	}
}

// Close - disconnects remaining peers without announcements, stops their writers
// and drops pending event notifications.
func (r *Relay) Close() {
	for _, p := range r.registry.Snapshot() {
		r.Disconnect(p, ReasonShutdown, nil)
	}
	r.cancelScope()
}

// Register - makes the peer for the connection which has passed handshake,
// queues recent history for it, adds it to the registry and starts its writer.
// Returns ErrRelayClosed after Close.
func (r *Relay) Register(name string, conn Connection) (*Peer, error) {
	p := newPeer(name, conn, r.outbox+r.replay)
	p.log = r.log.With().Str("peer", p.ID()).Str("name", p.Name()).Logger()
	if err := r.Replay(p); err != nil {
		return nil, err
	}
	if err := r.registry.Add(p); err != nil {
		return nil, err
	}
	started := r.scope.Go(func(ctx context.Context) {
		p.maintainOutbox(ctx, func(err error) {
			r.Disconnect(p, ReasonWriteFailure, err)
		})
	})
	if !started {
		p.markGone()
		r.registry.Remove(p)
		return nil, ErrRelayClosed
	}
	return p, nil
}

// Broadcast - queues the line to every registered peer except excludeID,
// unless echo is enabled. Recipient which can not take the line is disconnected,
// the rest still get it. Returns number of queued deliveries.
func (r *Relay) Broadcast(line, excludeID string) int {
	recipients := lo.Filter(r.registry.Snapshot(), func(p *Peer, _ int) bool {
		return r.echo || p.ID() != excludeID
	})
	delivered := 0
	for _, p := range recipients {
		if err := p.Deliver(line); err != nil {
			if p.isGone() {
				// stale snapshot entry, cleanup is done or in progress
				continue
			}
			p.log.Warn().Err(err).Msg("delivery failed")
			r.Disconnect(p, ReasonWriteFailure, err)
			continue
		}
		delivered++
	}
	return delivered
}

// Relay - tags the body with sender name and broadcasts it.
func (r *Relay) Relay(from *Peer, body string) {
	line := message.Format(from.Name(), body)
	if r.history != nil {
		r.history.Push(line)
	}
	n := r.Broadcast(line, from.ID())
	from.log.Trace().Int("recipients", n).Msg("relayed")
	r.notify(Event{Kind: EventMessage, PeerID: from.ID(), Name: from.Name(), Line: line})
}

// Replay - queues recent history lines to the peer.
func (r *Relay) Replay(p *Peer) error {
	if r.history == nil || r.replay == 0 {
		return nil
	}
	for _, line := range r.history.Tail(r.replay) {
		if err := p.Deliver(line); err != nil {
			return err
		}
	}
	return nil
}

// AnnounceJoin - tells the others that the peer has entered.
func (r *Relay) AnnounceJoin(p *Peer) {
	r.Broadcast(message.Joined(p.Name()), p.ID())
	p.log.Info().Msg("joined")
	r.notify(Event{Kind: EventJoined, PeerID: p.ID(), Name: p.Name()})
}

// AnnounceLeave - tells the others that the peer has left.
func (r *Relay) AnnounceLeave(p *Peer) {
	r.Broadcast(message.Left(p.Name()), p.ID())
}

// Disconnect - single cleanup path of the peer: unregister, close and announce leave.
// Only the first call per peer does the job and returns true, so concurrent
// read and write failures of the same peer end with exactly one announcement.
// Leave is not announced on shutdown.
func (r *Relay) Disconnect(p *Peer, reason Reason, cause error) bool {
	if !p.markGone() {
		return false
	}
	r.registry.Remove(p)
	p.Close()
	if reason != ReasonShutdown {
		r.AnnounceLeave(p)
	}
	ev := p.log.Info()
	if cause != nil && reason != ReasonDisconnected {
		ev = p.log.Warn().Err(cause)
	}
	ev.Stringer("reason", reason).Msg("left")
	r.notify(Event{Kind: EventLeft, PeerID: p.ID(), Name: p.Name(), Reason: reason, Err: cause})
	return true
}

// reject - reports connection which has never become a peer.
func (r *Relay) reject(cause error) {
	r.notify(Event{Kind: EventRejected, Err: cause})
}

func (r *Relay) notify(e Event) {
	if r.events == nil {
		return
	}
	e.Time = time.Now().UTC()
	r.scope.Go(func(ctx context.Context) {
		select {
		case r.events <- e:
		case <-ctx.Done():
		}
	})
}
