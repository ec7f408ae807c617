// Package connection provides the transport abstraction used both by the
// server's accept loop and by the client-side dialer: a peekable byte
// stream over a plain TCP or TLS socket, and a builder that resolves a
// host/port, dials with a timeout and optional retries, and negotiates TLS
// against either the system root store or a supplied PEM.
package connection

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"
)

// defaultPeekBuffer bounds how many bytes protocol detection may look at
// before any byte is consumed from the underlying socket.
const defaultPeekBuffer = 4096

// Stream wraps a net.Conn with a buffered reader so protocol detection can
// peek at the initial bytes of a connection without consuming them; the
// same buffered reader is then handed to whichever Protocol claims the
// connection, so nothing already peeked is lost.
type Stream struct {
	conn   net.Conn
	Reader *bufio.Reader
}

// NewStream wraps conn for peeking and buffered reads.
func NewStream(conn net.Conn) *Stream {
	return &Stream{
		conn:   conn,
		Reader: bufio.NewReaderSize(conn, defaultPeekBuffer),
	}
}

// Conn returns the underlying net.Conn, e.g. for deadlines or TLS state.
func (s *Stream) Conn() net.Conn {
	return s.conn
}

// Peek returns the next n bytes without advancing the read position. It
// may return fewer than n bytes (with an error) if the connection has less
// buffered or available data; callers doing protocol detection should
// treat a short peek as "try with what's there".
func (s *Stream) Peek(n int) ([]byte, error) {
	return s.Reader.Peek(n)
}

// Read satisfies io.Reader, consuming from the buffered reader so peeked
// bytes are read exactly once.
func (s *Stream) Read(p []byte) (int, error) {
	return s.Reader.Read(p)
}

// Write satisfies io.Writer, writing directly to the underlying conn.
func (s *Stream) Write(p []byte) (int, error) {
	return s.conn.Write(p)
}

// Close closes the underlying connection.
func (s *Stream) Close() error {
	return s.conn.Close()
}

// CloseWrite half-closes the write side, signalling EOF to the peer while
// still permitting reads. Returns an error if the underlying conn does
// not support half-close (e.g. a TLS stream mid-handshake on some stacks).
func (s *Stream) CloseWrite() error {
	type writeCloser interface {
		CloseWrite() error
	}
	if wc, ok := s.conn.(writeCloser); ok {
		return wc.CloseWrite()
	}
	return errors.New("connection: underlying conn does not support half-close")
}

// SetDeadline forwards to the underlying conn's SetDeadline.
func (s *Stream) SetDeadline(t time.Time) error {
	return s.conn.SetDeadline(t)
}

// TLSState returns the negotiated TLS connection state, if the underlying
// conn is a *tls.Conn.
func (s *Stream) TLSState() (tls.ConnectionState, bool) {
	tc, ok := s.conn.(*tls.Conn)
	if !ok {
		return tls.ConnectionState{}, false
	}
	return tc.ConnectionState(), true
}

// Builder dials a client-side connection: DNS resolution via the OS
// resolver, optional TLS against either the system root store or a
// supplied PEM, a bounded connect timeout and optional retries. There is
// no client certificate support; this mirrors the original's "PEM-in,
// verified chain out" TLS scope.
type Builder struct {
	host          string
	port          uint16
	useTLS        bool
	connectTO     time.Duration
	retryAttempts int
	retryDelay    time.Duration
	rootCertPEM   []byte
}

// NewBuilder returns a Builder for host with sane defaults: no TLS, a 30s
// connect timeout, no retries.
func NewBuilder(host string) *Builder {
	return &Builder{
		host:      host,
		connectTO: 30 * time.Second,
	}
}

// Port sets an explicit port; Dial requires one be set (there is no
// protocol-aware default port table here, unlike the per-protocol builder
// this was adapted from).
func (b *Builder) Port(port uint16) *Builder {
	b.port = port
	return b
}

// TLS enables or disables TLS for the dial.
func (b *Builder) TLS(enable bool) *Builder {
	b.useTLS = enable
	return b
}

// ConnectTimeout bounds how long the TCP dial (and TLS handshake) may take.
func (b *Builder) ConnectTimeout(d time.Duration) *Builder {
	b.connectTO = d
	return b
}

// Retry sets how many additional attempts to make after a failed dial, and
// the delay between attempts.
func (b *Builder) Retry(attempts int, delay time.Duration) *Builder {
	b.retryAttempts = attempts
	b.retryDelay = delay
	return b
}

// RootCertificatePEM supplies a custom root CA bundle for TLS verification
// instead of the system trust store.
func (b *Builder) RootCertificatePEM(pem []byte) *Builder {
	b.rootCertPEM = pem
	return b
}

// Dial connects with retry logic, returning the first successful Stream or
// the last error encountered.
func (b *Builder) Dial(ctx context.Context) (*Stream, error) {
	if b.port == 0 {
		return nil, errors.New("connection: port must be set")
	}

	var lastErr error
	for attempt := 0; attempt <= b.retryAttempts; attempt++ {
		stream, err := b.tryDial(ctx)
		if err == nil {
			return stream, nil
		}
		lastErr = err

		if attempt == b.retryAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.retryDelay):
		}
	}

	return nil, fmt.Errorf("connection: dial %s:%d: %w", b.host, b.port, lastErr)
}

func (b *Builder) tryDial(ctx context.Context) (*Stream, error) {
	addr := net.JoinHostPort(b.host, fmt.Sprintf("%d", b.port))

	dialCtx, cancel := context.WithTimeout(ctx, b.connectTO)
	defer cancel()

	var d net.Dialer
	tcpConn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if !b.useTLS {
		return NewStream(tcpConn), nil
	}

	config := &tls.Config{ServerName: b.host}
	if len(b.rootCertPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(b.rootCertPEM) {
			tcpConn.Close()
			return nil, errors.New("connection: no certificates parsed from supplied PEM")
		}
		config.RootCAs = pool
	}

	tlsConn := tls.Client(tcpConn, config)
	if err := tlsConn.HandshakeContext(dialCtx); err != nil {
		tcpConn.Close()
		return nil, err
	}

	return NewStream(tlsConn), nil
}
