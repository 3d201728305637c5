package relay

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// History - ordered history of relayed lines.
type History interface {
	// Push - appends the line to history.
	Push(string)
	// Tail - returns up to n latest lines in chronological order.
	Tail(n int) []string
}

const (
	// DefaultOutboxSize - num of lines which may wait for a slow peer before it is disconnected.
	DefaultOutboxSize = 256
	// DefaultWriteTimeout - limit of a single line write on TCP connections.
	DefaultWriteTimeout = 60 * time.Second
)

type options struct {
	log          zerolog.Logger
	echo         bool
	events       chan<- Event
	history      History
	replay       int
	outbox       int
	writeTimeout time.Duration
}

// Option - configures Relay and Server.
type Option func(o *options) error

func defaultOptions() options {
	return options{
		log:          zerolog.Nop(),
		outbox:       DefaultOutboxSize,
		writeTimeout: DefaultWriteTimeout,
	}
}

func setup(o *options, opts ...Option) error {
	for _, option := range opts {
		if option == nil {
			continue
		}
		if err := option(o); err != nil {
			return err
		}
	}
	return nil
}

// WithLogger - attaches logger, by default nothing is logged.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) error {
		o.log = log
		return nil
	}
}

// WithEcho - when enabled, the sender receives its own lines back.
// Disabled by default.
func WithEcho(enabled bool) Option {
	return func(o *options) error {
		o.echo = enabled
		return nil
	}
}

// WithEvents - attaches channel to be notified about peer lifecycle.
// Events are sent in background and are not ordered, pending sends are dropped on shutdown.
func WithEvents(events chan<- Event) Option {
	return func(o *options) error {
		if o.events != nil {
			return errors.New("relay.WithEvents: events channel already set up")
		}
		o.events = events
		return nil
	}
}

// WithHistory - keeps relayed lines in h and replays up to n of them to every joined peer.
func WithHistory(h History, n int) Option {
	return func(o *options) error {
		if h == nil {
			return errors.New("relay.WithHistory: history is nil")
		}
		if n < 0 {
			return fmt.Errorf("relay.WithHistory: invalid replay size (%d)", n)
		}
		o.history = h
		o.replay = n
		return nil
	}
}

// WithOutboxSize - overwrites default size of per-peer outbox.
// The peer which has n lines pending is disconnected on the next delivery.
func WithOutboxSize(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("relay.WithOutboxSize: invalid size (%d)", n)
		}
		o.outbox = n
		return nil
	}
}

// WithWriteTimeout - overwrites default write timeout of TCP connections accepted by Server.
// Zero value means no limit.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		if timeout < 0 {
			return fmt.Errorf("relay.WithWriteTimeout: invalid timeout (%v)", timeout)
		}
		o.writeTimeout = timeout
		return nil
	}
}
