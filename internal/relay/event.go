package relay

import "time"

// EventKind - type of relay lifecycle event.
type EventKind int

const (
	_ EventKind = iota
	// EventJoined - occurres after the peer was registered and announced.
	EventJoined
	// EventLeft - occurres once per peer after its cleanup.
	EventLeft
	// EventRejected - occurres when the connection did not pass handshake or registration.
	EventRejected
	// EventMessage - occurres when the line from peer was relayed.
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventJoined:
		return "joined"
	case EventLeft:
		return "left"
	case EventRejected:
		return "rejected"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Reason - describes why the peer was disconnected.
type Reason int

const (
	_ Reason = iota
	// ReasonDisconnected - the peer closed its connection.
	ReasonDisconnected
	// ReasonReadFailure - reading from the peer failed.
	ReasonReadFailure
	// ReasonWriteFailure - delivering a line to the peer failed.
	ReasonWriteFailure
	// ReasonShutdown - the server is stopping.
	ReasonShutdown
)

func (r Reason) String() string {
	switch r {
	case ReasonDisconnected:
		return "disconnected"
	case ReasonReadFailure:
		return "read failure"
	case ReasonWriteFailure:
		return "write failure"
	case ReasonShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Event - notification about peer lifecycle.
// PeerID and Name are empty for EventRejected.
type Event struct {
	Kind   EventKind
	PeerID string
	Name   string
	Line   string
	Reason Reason
	Err    error
	Time   time.Time
}
