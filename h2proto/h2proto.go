// Package h2proto is a stub HTTP/2 Protocol: it detects the h2c connection
// preface and serves the connection with golang.org/x/net/http2's Server,
// answering every stream with a one-line plain-text response naming the
// request's method and path, enough to prove the
// registry can hand a connection off to a second, unrelated wire protocol
// without HTTP/1.1 ever being involved.
package h2proto

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Field-of-Dreams-Studio/hotaru-go/connection"
	"github.com/Field-of-Dreams-Studio/hotaru-go/protocol"
	"github.com/Field-of-Dreams-Studio/hotaru-go/routing"
)

// preface is the fixed 24-byte HTTP/2 connection preface clients send
// before the first SETTINGS frame (RFC 7540 §3.5).
const preface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// Protocol is a stub protocol.Protocol[C] for HTTP/2 with prior knowledge
// (h2c): connections identify themselves with the plain-text preface
// rather than ALPN, since this multiplexer dispatches by peeked bytes, not
// TLS negotiation.
type Protocol[C any] struct {
	server *http2.Server
}

// New returns an h2proto Protocol with a fresh http2.Server.
func New[C any]() *Protocol[C] {
	return &Protocol[C]{server: &http2.Server{}}
}

func (p *Protocol[C]) Name() string { return "h2c" }

func (p *Protocol[C]) Role() protocol.Role { return protocol.RoleServer }

// Detect reports whether peek opens with as much of the HTTP/2 connection
// preface as it carries (a short peek still counts as a match-so-far).
func (p *Protocol[C]) Detect(peek []byte) bool {
	n := len(peek)
	if n > len(preface) {
		n = len(preface)
	}
	return strings.HasPrefix(preface, string(peek[:n]))
}

// Handle hands stream to an http2.Server, which owns the connection for
// its life. The stream is wrapped in bufConn so http2.Server reads through
// the same bufio.Reader Detect peeked from, instead of bypassing it and
// losing whatever bytes are already buffered. The handler is wrapped with
// h2c.NewHandler, but ServeConn speaks only HTTP/2 and Detect claims only
// connections that open with the preface, so an HTTP/1.1 request asking to
// upgrade to h2c is not served here. Every stream gets a one-line reply
// naming its method and path. root is accepted only to satisfy
// protocol.Protocol's signature, unused by this stub.
func (p *Protocol[C]) Handle(ctx context.Context, stream *connection.Stream, app protocol.AppHandle, root *routing.Url[C], switcher protocol.Switcher) error {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "h2c: %s %s\n", r.Method, r.URL.Path)
	})
	p.server.ServeConn(&bufConn{Stream: stream}, &http2.ServeConnOpts{
		Context: ctx,
		Handler: h2c.NewHandler(handler, p.server),
	})
	return nil
}

// bufConn adapts a *connection.Stream to net.Conn so http2.Server.ServeConn
// can read through the stream's buffered reader (preserving bytes Detect
// already peeked) while deadlines and addressing fall back to the
// underlying socket.
type bufConn struct {
	*connection.Stream
}

func (c *bufConn) LocalAddr() net.Addr  { return c.Conn().LocalAddr() }
func (c *bufConn) RemoteAddr() net.Addr { return c.Conn().RemoteAddr() }

func (c *bufConn) SetReadDeadline(t time.Time) error {
	return c.Conn().SetReadDeadline(t)
}

func (c *bufConn) SetWriteDeadline(t time.Time) error {
	return c.Conn().SetWriteDeadline(t)
}
