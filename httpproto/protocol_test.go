package httpproto

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/connection"
	"github.com/Field-of-Dreams-Studio/hotaru-go/pattern"
	"github.com/Field-of-Dreams-Studio/hotaru-go/routing"
)

func TestServerDetectRecognizesMethodPrefixes(t *testing.T) {
	s := NewServer()
	assert.True(t, s.Detect([]byte("GET / HTTP/1.1\r\n")))
	assert.True(t, s.Detect([]byte("POST /x HTTP/1.1\r\n")))
	assert.False(t, s.Detect([]byte("\x16\x03\x01")))
}

func newTestRoot() *routing.Url[*Context] {
	root := routing.New[*Context](pattern.Literal(""))
	root.RegisterPath("/hello", func(c *Context) *Context {
		c.Response = OK(TextBody("world"))
		return c
	}, nil, nil)
	root.RegisterPath("/users/<id>", func(c *Context) *Context {
		c.Response = OK(TextBody("user:" + c.Params["id"]))
		return c
	}, nil, nil)
	return root
}

func TestServerHandleRoutesToRegisteredHandler(t *testing.T) {
	server := NewServer()
	root := newTestRoot()

	client, serverConn := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- server.Handle(context.Background(), connection.NewStream(serverConn), nil, root, nil)
	}()

	go func() {
		client.Write([]byte("GET /hello HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n"))
	}()

	c := NewClient()
	resp, err := ReadResponse(bufio.NewReader(client), c.Safety)
	assert.NoError(t, err)
	text, ok := resp.Body.ParseBuffer(c.Safety).Text()
	assert.True(t, ok)
	assert.Equal(t, "world", text)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("server handler did not return")
	}
}

func TestServerHandleCapturesRouteParams(t *testing.T) {
	server := NewServer()
	root := newTestRoot()

	client, serverConn := net.Pipe()
	defer client.Close()

	go server.Handle(context.Background(), connection.NewStream(serverConn), nil, root, nil)
	go client.Write([]byte("GET /users/42 HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n"))

	c := NewClient()
	resp, err := ReadResponse(bufio.NewReader(client), c.Safety)
	assert.NoError(t, err)
	text, _ := resp.Body.ParseBuffer(c.Safety).Text()
	assert.Equal(t, "user:42", text)
}

func TestServerHandleCapturesAnyPathRemainder(t *testing.T) {
	server := NewServer()
	root := routing.New[*Context](pattern.Literal(""))
	root.RegisterPath("/files/<**path:rest>", func(c *Context) *Context {
		c.Response = OK(TextBody(c.Params["rest"]))
		return c
	}, nil, nil)

	client, serverConn := net.Pipe()
	defer client.Close()

	go server.Handle(context.Background(), connection.NewStream(serverConn), nil, root, nil)
	go client.Write([]byte("GET /files/a/b/c HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n"))

	c := NewClient()
	resp, err := ReadResponse(bufio.NewReader(client), c.Safety)
	assert.NoError(t, err)
	text, ok := resp.Body.ParseBuffer(c.Safety).Text()
	assert.True(t, ok)
	assert.Equal(t, "a/b/c", text)
}

func TestServerHandleNotFoundRoute(t *testing.T) {
	server := NewServer()
	root := newTestRoot()

	client, serverConn := net.Pipe()
	defer client.Close()

	go server.Handle(context.Background(), connection.NewStream(serverConn), nil, root, nil)
	go client.Write([]byte("GET /nope HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n"))

	c := NewClient()
	resp, err := ReadResponse(bufio.NewReader(client), c.Safety)
	assert.NoError(t, err)
	assert.Equal(t, 404, resp.Meta.Start.StatusCode)
}
