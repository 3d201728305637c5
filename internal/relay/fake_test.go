package relay

import (
	"errors"
	"io"
	"net"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeConn - in-memory Connection, test side pushes lines with send and inspects written lines.
type fakeConn struct {
	in        chan string
	closed    chan struct{}
	closeOnce sync.Once

	mu         sync.Mutex
	out        []string
	failWrites  bool
	stallWrites bool
	closes      int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan string, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadLine() (string, error) {
	select {
	case line, ok := <-c.in:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-c.closed:
		return "", net.ErrClosed
	}
}

func (c *fakeConn) WriteLine(line string) error {
	c.mu.Lock()
	stall := c.stallWrites
	c.mu.Unlock()
	if stall {
		// remote side does not read, write returns only when connection is closed
		<-c.closed
		return net.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}
	if c.failWrites {
		return errBrokenPipe
	}
	c.out = append(c.out, line)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// send - simulates line sent by the remote peer.
func (c *fakeConn) send(line string) {
	c.in <- line
}

// hangup - simulates remote peer has closed connection.
func (c *fakeConn) hangup() {
	close(c.in)
}

func (c *fakeConn) breakWrites() {
	c.mu.Lock()
	c.failWrites = true
	c.mu.Unlock()
}

// stall - simulates remote peer which has stopped reading.
func (c *fakeConn) stall() {
	c.mu.Lock()
	c.stallWrites = true
	c.mu.Unlock()
}

func (c *fakeConn) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.out...)
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func countLine(lines []string, line string) int {
	return lo.Count(lines, line)
}

// waitLine - waits until the connection has received the line.
func waitLine(test *testing.T, c *fakeConn, line string) {
	test.Helper()
	require.Eventually(test, func() bool {
		return lo.Contains(c.lines(), line)
	}, time.Second, time.Millisecond, "line %q is not received, got: %q", line, c.lines())
}

// waitLines - waits until the connection has received exactly expected lines.
func waitLines(test *testing.T, c *fakeConn, expected []string) {
	test.Helper()
	require.Eventually(test, func() bool {
		return slices.Equal(c.lines(), expected)
	}, time.Second, time.Millisecond, "lines %q are not received, got: %q", expected, c.lines())
}

// waitPeer - waits until the peer with the name is registered and returns it.
func waitPeer(test *testing.T, r *Registry, name string) *Peer {
	test.Helper()
	var found *Peer
	require.Eventually(test, func() bool {
		p, ok := lo.Find(r.Snapshot(), func(p *Peer) bool { return p.Name() == name })
		found = p
		return ok
	}, time.Second, time.Millisecond, "peer %q is not registered", name)
	return found
}

// waitEvent - reads events until the matching one is received.
func waitEvent(test *testing.T, events <-chan Event, match func(Event) bool) Event {
	test.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case e := <-events:
			if match(e) {
				return e
			}
		case <-timeout:
			test.Fatal("expected event has not been received")
			return Event{}
		}
	}
}
