// Package tcpproto is a stub raw-TCP Protocol: no framing at all, just an
// echo of whatever bytes arrive, registered last in a multi-protocol
// registry so it only ever catches connections no other protocol's Detect
// recognized.
package tcpproto

import (
	"context"
	"io"

	"github.com/Field-of-Dreams-Studio/hotaru-go/connection"
	"github.com/Field-of-Dreams-Studio/hotaru-go/protocol"
	"github.com/Field-of-Dreams-Studio/hotaru-go/routing"
)

// Protocol is a stub protocol.Protocol[C] that echoes raw bytes back to
// the peer with no message framing.
type Protocol[C any] struct {
	// BufferSize sizes the read buffer used by the echo loop.
	// Optional. Default value 4096.
	BufferSize int
}

// New returns a tcpproto Protocol with a default buffer size.
func New[C any]() *Protocol[C] {
	return &Protocol[C]{BufferSize: 4096}
}

func (p *Protocol[C]) Name() string { return "tcp" }

func (p *Protocol[C]) Role() protocol.Role { return protocol.RoleServer }

// Detect always matches: tcpproto has no framing of its own to recognize,
// so it only makes sense as the last protocol registered in a registry,
// catching whatever no earlier Detect claimed.
func (p *Protocol[C]) Detect(peek []byte) bool { return true }

// Handle loops reading whatever bytes arrive and writing them straight
// back, until the peer closes the connection or a read/write fails.
func (p *Protocol[C]) Handle(ctx context.Context, stream *connection.Stream, app protocol.AppHandle, root *routing.Url[C], switcher protocol.Switcher) error {
	size := p.BufferSize
	if size <= 0 {
		size = 4096
	}
	buf := make([]byte, size)

	for {
		n, err := stream.Read(buf)
		if n > 0 {
			if _, werr := stream.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
