package relay

import "errors"

var (
	// ErrDuplicateHandle - returns by Registry.Add if the peer with the same id is registered already.
	// Peer ids are random, so this error means a broken invariant rather than a runtime condition.
	ErrDuplicateHandle = errors.New("relay.Registry: duplicate handle")

	// ErrPeerClosed - returns by Peer.Deliver when the peer connection is closed already.
	ErrPeerClosed = errors.New("relay.Peer: closed")

	// ErrPeerStalled - returns by Peer.Deliver when the peer does not drain its outbox.
	ErrPeerStalled = errors.New("relay.Peer: outbox is full")

	// ErrRelayClosed - returns by Relay.Register after Relay.Close.
	ErrRelayClosed = errors.New("relay.Relay: closed")

	// ErrServerClosed - returns in case if Server is under stop condition
	// and will not accept any new connections.
	ErrServerClosed = errors.New("relay.Server: closed")

	// ErrHandshake - wraps failures of reading the display name from a new connection.
	ErrHandshake = errors.New("relay.Server: handshake failed")

	// ErrReservedName - returns when a connection introduces itself with the name of the server.
	ErrReservedName = errors.New("relay.Server: reserved name")
)
