package tcpproto

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/connection"
	"github.com/Field-of-Dreams-Studio/hotaru-go/pattern"
	"github.com/Field-of-Dreams-Studio/hotaru-go/protocol"
	"github.com/Field-of-Dreams-Studio/hotaru-go/routing"
)

type stubCtx struct{}

func TestDetectAlwaysMatches(t *testing.T) {
	p := New[*stubCtx]()
	assert.True(t, p.Detect(nil))
	assert.True(t, p.Detect([]byte("anything")))
}

func TestHandleEchoesBytesBack(t *testing.T) {
	p := New[*stubCtx]()
	root := routing.New[*stubCtx](pattern.Literal(""))

	server, client := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- p.Handle(context.Background(), connection.NewStream(server), nil, root, nil)
	}()

	_, err := client.Write([]byte("hello"))
	assert.NoError(t, err)

	buf := make([]byte, 5)
	_, err = client.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	client.Close()
	<-done
}

var _ protocol.Protocol[*stubCtx] = New[*stubCtx]()
