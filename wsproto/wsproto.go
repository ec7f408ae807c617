// Package wsproto is a stub WebSocket Protocol: it completes an RFC 6455
// handshake over a detected connection and echoes every frame it receives
// back to the peer, without carrying a full WebSocket application
// framework. Handle reads the upgrade request itself, so it serves
// connections the registry picked for it by Detect, not connections handed
// over by an HTTP/1.1 101 switch.
package wsproto

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Field-of-Dreams-Studio/hotaru-go/connection"
	"github.com/Field-of-Dreams-Studio/hotaru-go/protocol"
	"github.com/Field-of-Dreams-Studio/hotaru-go/routing"
)

// Protocol is a stub WebSocket protocol.Protocol[C]. C is carried only so
// it can be registered against the same routing.Url[C] tree as every other
// protocol; the echo loop itself doesn't dispatch through root.
type Protocol[C any] struct {
	// HandshakeTimeout bounds how long the upgrade handshake may take.
	// Optional. Default value 10s.
	HandshakeTimeout time.Duration

	// Subprotocols lists the subprotocols this server is willing to
	// negotiate, in preference order.
	Subprotocols []string
}

// New returns a Protocol with sane defaults.
func New[C any]() *Protocol[C] {
	return &Protocol[C]{HandshakeTimeout: 10 * time.Second}
}

func (p *Protocol[C]) Name() string { return "websocket" }

func (p *Protocol[C]) Role() protocol.Role { return protocol.RoleServer }

// Detect reports whether peek looks like the start of an HTTP/1.1
// WebSocket upgrade request.
func (p *Protocol[C]) Detect(peek []byte) bool {
	s := strings.ToLower(string(peek))
	return strings.HasPrefix(s, "get ") &&
		strings.Contains(s, "upgrade: websocket") &&
		strings.Contains(s, "connection: upgrade")
}

// Handle parses the handshake request, upgrades stream to a WebSocket
// connection, then echoes every received frame back to the peer until the
// peer closes or an error occurs.
func (p *Protocol[C]) Handle(ctx context.Context, stream *connection.Stream, app protocol.AppHandle, root *routing.Url[C], switcher protocol.Switcher) error {
	req, err := http.ReadRequest(stream.Reader)
	if err != nil {
		return err
	}

	hj := &hijackAdapter{stream: stream}
	upgrader := websocket.Upgrader{
		HandshakeTimeout: p.HandshakeTimeout,
		Subprotocols:     p.Subprotocols,
		CheckOrigin:      func(*http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(hj, req, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if err := conn.WriteMessage(messageType, data); err != nil {
			return err
		}
	}
}

// hijackAdapter lets gorilla/websocket's Upgrader hijack a
// *connection.Stream the same way it would hijack a net/http connection,
// pairing Header/WriteHeader/Write against the stream with Hijack against
// its underlying net.Conn.
type hijackAdapter struct {
	stream *connection.Stream
	header http.Header
	status int
}

func (h *hijackAdapter) Header() http.Header {
	if h.header == nil {
		h.header = http.Header{}
	}
	return h.header
}

func (h *hijackAdapter) Write(b []byte) (int, error) {
	return h.stream.Write(b)
}

func (h *hijackAdapter) WriteHeader(status int) {
	h.status = status
}

func (h *hijackAdapter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	rw := bufio.NewReadWriter(h.stream.Reader, bufio.NewWriter(h.stream))
	return h.stream.Conn(), rw, nil
}
