// Package wsconn lets WebSocket clients join the relay.
// Every text frame is a single line, binary frames are ignored.
package wsconn

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wtask/relay/internal/relay"
)

const closeGracePeriod = time.Second

// Conn - relay.Connection over WebSocket.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

// New - wraps upgraded WebSocket connection. Non-zero writeTimeout limits every frame write.
func New(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

// ReadLine - returns payload of the next text frame.
// Normal close of the peer is reported as io.EOF.
func (c *Conn) ReadLine() (string, error) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "", io.EOF
			}
			return "", err
		}
		if kind != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

// WriteLine - sends the line as a single text frame.
func (c *Conn) WriteLine(line string) error {
	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.ws.WriteMessage(websocket.TextMessage, []byte(line))
}

// Close - sends close frame and closes the connection.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// RemoteAddr - returns remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

// ConnServer - serves single peer connection until it is gone.
type ConnServer interface {
	ServeConn(conn relay.Connection) error
}

// HandlerOption - configures Handler.
type HandlerOption func(h *handler)

// WithLogger - attaches logger to the handler.
func WithLogger(log zerolog.Logger) HandlerOption {
	return func(h *handler) { h.log = log }
}

// WithWriteTimeout - limits duration of every frame write, zero disables the limit.
// relay.DefaultWriteTimeout is used by default.
func WithWriteTimeout(timeout time.Duration) HandlerOption {
	return func(h *handler) { h.writeTimeout = timeout }
}

// WithCheckOrigin - overrides same-origin check of upgrade requests.
func WithCheckOrigin(check func(r *http.Request) bool) HandlerOption {
	return func(h *handler) { h.upgrader.CheckOrigin = check }
}

type handler struct {
	srv          ConnServer
	log          zerolog.Logger
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
}

// Handler - upgrades HTTP requests to WebSocket and passes connections to srv.
func Handler(srv ConnServer, opts ...HandlerOption) http.Handler {
	h := &handler{srv: srv, log: zerolog.Nop(), writeTimeout: relay.DefaultWriteTimeout}
	for _, o := range opts {
		if o != nil {
			o(h)
		}
	}
	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has replied with HTTP error already
		h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	err = h.srv.ServeConn(New(ws, h.writeTimeout))
	if err != nil && !errors.Is(err, relay.ErrServerClosed) {
		h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket connection dropped")
	}
}
