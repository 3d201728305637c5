package relay

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// Connection - bidirectional line-oriented transport of a single peer.
// ReadLine is called by a single goroutine only, WriteLine calls are serialized by Peer.
type Connection interface {
	// ReadLine - blocks until the next line is available and returns it without line terminator.
	ReadLine() (string, error)
	// WriteLine - writes the line followed by line terminator and flushes it immediately.
	WriteLine(line string) error
	// Close - closes the underlying transport, repeated calls are allowed.
	Close() error
}

// lineConn - Connection over any net.Conn with newline framing.
type lineConn struct {
	conn         net.Conn
	reader       *bufio.Reader
	writer       *bufio.Writer
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

// NewConnection - wraps net.Conn into newline-delimited Connection.
// Non-zero writeTimeout sets write deadline before every line.
func NewConnection(conn net.Conn, writeTimeout time.Duration) Connection {
	return &lineConn{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		writer:       bufio.NewWriter(conn),
		writeTimeout: writeTimeout,
	}
}

func (c *lineConn) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			// unterminated last line is still a line
			return strings.TrimSuffix(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}

func (c *lineConn) WriteLine(line string) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	if _, err := c.writer.WriteString(line); err != nil {
		return err
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *lineConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// RemoteAddr - returns remote network address, used for logging only.
func (c *lineConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// remoteAddr - formats remote address of connection if transport can report it.
func remoteAddr(c Connection) string {
	if a, ok := c.(interface{ RemoteAddr() net.Addr }); ok && a.RemoteAddr() != nil {
		return a.RemoteAddr().Network() + " " + a.RemoteAddr().String()
	}
	return "unknown"
}
