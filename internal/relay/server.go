package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wtask/relay/internal/relay/message"
	"github.com/wtask/relay/pkg/background"
)

// Server - accepts peers from any number of net.Listener and relays their lines.
type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	scope  *background.Scope

	log          zerolog.Logger
	writeTimeout time.Duration

	registry *Registry
	relay    *Relay

	mu        sync.Mutex
	listeners map[net.Listener]struct{}
	// pending - connections waiting for handshake
	pending map[Connection]struct{}
}

// NewServer - creates new relay server which ready to serve several network listeners.
func NewServer(opts ...Option) (*Server, error) {
	o := defaultOptions()
	if err := setup(&o, opts...); err != nil {
		return nil, fmt.Errorf("relay.NewServer: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	scope, _ := background.NewScope(ctx)
	registry := NewRegistry()
	return &Server{
		ctx:          ctx,
		cancel:       cancel,
		scope:        scope,
		log:          o.log,
		writeTimeout: o.writeTimeout,
		registry:     registry,
		relay:        newRelay(registry, o),
		listeners:    make(map[net.Listener]struct{}),
		pending:      make(map[Connection]struct{}),
	}, nil
}

// Registry - returns registry of currently connected peers.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Relay - returns relay of the server.
func (s *Server) Relay() *Relay {
	return s.relay
}

// Serve - accepts connections on the listener until it is closed.
// Closing the listener, directly or by Shutdown, is a normal stop and Serve returns nil.
// Returns ErrServerClosed if the server is stopped already.
func (s *Server) Serve(listener net.Listener) error {
	if listener == nil {
		return errors.New("relay.Server: listener is nil")
	}
	if !s.track(listener) {
		return ErrServerClosed
	}
	defer s.untrack(listener)

	log := s.log.With().Str("listener", listener.Addr().String()).Logger()
	log.Info().Msg("listening")
	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.ctx.Err() != nil {
				log.Info().Msg("stopped")
				return nil
			}
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay *= 2
			}
			if delay > time.Second {
				delay = time.Second
			}
			log.Debug().Err(err).Dur("retry", delay).Msg("accept failed")
			select {
			case <-time.After(delay):
			case <-s.ctx.Done():
			}
			continue
		}
		delay = 0

		c := NewConnection(conn, s.writeTimeout)
		started := s.scope.Go(func(context.Context) {
			if err := s.serveConn(c); err != nil {
				log.Debug().Err(err).Str("remote", remoteAddr(c)).Msg("connection dropped")
			}
		})
		if !started {
			c.Close()
		}
	}
}

// ServeConn - runs handshake on the connection, registers the peer
// and relays its lines until the connection fails. Blocks until the peer is gone.
// The connection is served under the server scope, so Shutdown waits for it.
// Returns error only if the connection has never become a peer.
func (s *Server) ServeConn(conn Connection) error {
	served := make(chan error, 1)
	started := s.scope.Go(func(context.Context) {
		served <- s.serveConn(conn)
	})
	if !started {
		conn.Close()
		return ErrServerClosed
	}
	return <-served
}

func (s *Server) serveConn(conn Connection) error {
	if !s.hold(conn) {
		conn.Close()
		return ErrServerClosed
	}
	name, err := conn.ReadLine()
	s.release(conn)
	if err != nil {
		conn.Close()
		err = fmt.Errorf("%w: %v", ErrHandshake, err)
		s.relay.reject(err)
		return err
	}

	name = message.Sanitize(name)
	if message.Reserved(name) {
		if err := conn.WriteLine(message.NameReserved(name)); err != nil {
			s.log.Debug().Err(err).Str("remote", remoteAddr(conn)).Msg("reserved name notice")
		}
		conn.Close()
		err = fmt.Errorf("%w: %w %q", ErrHandshake, ErrReservedName, name)
		s.relay.reject(err)
		return err
	}

	p, err := s.relay.Register(name, conn)
	if err != nil {
		s.log.Error().Err(err).Str("name", name).Msg("registration failed")
		conn.Close()
		s.relay.reject(err)
		return err
	}
	if s.ctx.Err() != nil {
		// Shutdown has taken its snapshot before Register
		s.relay.Disconnect(p, ReasonShutdown, nil)
		return nil
	}
	s.relay.AnnounceJoin(p)
	s.receive(p)
	return nil
}

// receive - reads lines of the peer one by one and relays them.
func (s *Server) receive(p *Peer) {
	for {
		line, err := p.conn.ReadLine()
		if err != nil {
			reason := ReasonReadFailure
			if errors.Is(err, io.EOF) {
				reason = ReasonDisconnected
			}
			s.relay.Disconnect(p, reason, err)
			return
		}
		if p.isGone() {
			return
		}
		s.relay.Relay(p, message.Sanitize(line))
	}
}

// Shutdown - stops server with the specified timeout and returns stopping duration.
// Listeners are closed, connected peers are disconnected without leave announcements.
func (s *Server) Shutdown(timeout time.Duration) time.Duration {
	if s.ctx.Err() != nil {
		return 0
	}
	from := time.Now()
	s.cancel()

	s.mu.Lock()
	for l := range s.listeners {
		l.Close()
	}
	for c := range s.pending {
		c.Close()
	}
	s.mu.Unlock()

	for _, p := range s.registry.Snapshot() {
		s.relay.Disconnect(p, ReasonShutdown, nil)
	}
	if !s.scope.Wait(timeout) {
		s.log.Warn().Dur("timeout", timeout).Msg("connections are still running")
	}
	s.relay.Close()
	return time.Since(from)
}

func (s *Server) track(l net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.listeners[l] = struct{}{}
	return true
}

func (s *Server) untrack(l net.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, l)
}

func (s *Server) hold(c Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.pending[c] = struct{}{}
	return true
}

func (s *Server) release(c Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, c)
}
