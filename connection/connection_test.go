package connection

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamPeekDoesNotConsume(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		client.Write([]byte("GET / HTTP/1.1\r\n"))
	}()

	s := NewStream(server)

	peeked, err := s.Peek(3)
	assert.NoError(t, err)
	assert.Equal(t, "GET", string(peeked))

	buf := make([]byte, 3)
	n, err := s.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "GET", string(buf))
}

func TestBuilderRequiresPort(t *testing.T) {
	b := NewBuilder("localhost")
	_, err := b.Dial(context.Background())
	assert.Error(t, err)
}

func TestBuilderChaining(t *testing.T) {
	b := NewBuilder("localhost").Port(8080).TLS(true).Retry(2, 0)
	assert.Equal(t, uint16(8080), b.port)
	assert.True(t, b.useTLS)
	assert.Equal(t, 2, b.retryAttempts)
}
