// Package grpcproto is a stub gRPC-shaped Protocol: it frames messages the
// way gRPC does on the wire (a 1-byte compression flag, a 4-byte
// big-endian length, then a protobuf-encoded body, RFC-less but matching
// grpc's documented "Length-Prefixed-Message" shape) and echoes each
// decoded message back to the peer re-encoded, enough to prove the
// registry can dispatch a binary, non-HTTP framing alongside HTTP/1.1,
// WebSocket and h2c.
package grpcproto

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/protobuf/proto"

	"github.com/Field-of-Dreams-Studio/hotaru-go/connection"
	"github.com/Field-of-Dreams-Studio/hotaru-go/protocol"
	"github.com/Field-of-Dreams-Studio/hotaru-go/routing"
)

// preambleMarker opens every connection this stub accepts, standing in for
// gRPC's real negotiation (ALPN + HTTP/2 preface), which a bare TCP stub
// has no use for.
const preambleMarker = "GRPC1\n"

// frameHeaderSize is gRPC's fixed per-message header: 1 compression-flag
// byte plus a 4-byte big-endian length.
const frameHeaderSize = 5

const maxFrameSize = 4 << 20

// EchoMessage is a minimal hand-written proto.Message (the
// Reset/String/ProtoMessage trio golang/protobuf's reflection-based codec
// needs), carrying one opaque payload field.
type EchoMessage struct {
	Payload []byte `protobuf:"bytes,1,opt,name=payload,proto3"`
}

func (m *EchoMessage) Reset()         { *m = EchoMessage{} }
func (m *EchoMessage) String() string { return proto.CompactTextString(m) }
func (m *EchoMessage) ProtoMessage()  {}

// Protocol is a stub protocol.Protocol[C] for gRPC-shaped framing.
type Protocol[C any] struct{}

// New returns a grpcproto Protocol.
func New[C any]() *Protocol[C] { return &Protocol[C]{} }

func (p *Protocol[C]) Name() string { return "grpc" }

func (p *Protocol[C]) Role() protocol.Role { return protocol.RoleServer }

// Detect reports whether peek opens with this stub's connection marker; a
// peek shorter than the marker matches when it is a prefix of it.
func (p *Protocol[C]) Detect(peek []byte) bool {
	n := len(peek)
	if n > len(preambleMarker) {
		n = len(preambleMarker)
	}
	return string(peek[:n]) == preambleMarker[:n]
}

// Handle consumes the connection marker, then loops reading
// length-prefixed protobuf frames and writing each one back re-encoded,
// until the peer closes the connection or sends a malformed frame.
func (p *Protocol[C]) Handle(ctx context.Context, stream *connection.Stream, app protocol.AppHandle, root *routing.Url[C], switcher protocol.Switcher) error {
	marker := make([]byte, len(preambleMarker))
	if _, err := io.ReadFull(stream, marker); err != nil {
		return err
	}
	if string(marker) != preambleMarker {
		return fmt.Errorf("grpcproto: unexpected connection marker %q", marker)
	}

	for {
		msg, err := readFrame(stream)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if err := writeFrame(stream, msg); err != nil {
			return err
		}
	}
}

func readFrame(r io.Reader) (*EchoMessage, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[1:])
	if length > maxFrameSize {
		return nil, fmt.Errorf("grpcproto: frame of %d bytes exceeds the %d byte limit", length, maxFrameSize)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	msg := &EchoMessage{}
	if err := proto.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("grpcproto: decode frame: %w", err)
	}
	return msg, nil
}

func writeFrame(w io.Writer, msg *EchoMessage) error {
	body, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("grpcproto: encode frame: %w", err)
	}

	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header[1:], uint32(len(body)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}
