package hotaru

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/connection"
	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
)

func TestAppGETRegistersAndDispatches(t *testing.T) {
	a := New("dispatchtest")
	a.GET("/hello", func(c *httpproto.Context) *httpproto.Context {
		c.Response = httpproto.OK(httpproto.TextBody("world"))
		return c
	})

	client, serverConn := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- a.http.Handle(context.Background(), connection.NewStream(serverConn), a, a.root, nil)
	}()
	go client.Write([]byte("GET /hello HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n"))

	c := httpproto.NewClient()
	resp, err := httpproto.ReadResponse(bufio.NewReader(client), c.Safety)
	assert.NoError(t, err)
	text, ok := resp.Body.ParseBuffer(c.Safety).Text()
	assert.True(t, ok)
	assert.Equal(t, "world", text)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return")
	}
}

func TestAppMethodMismatchReturns405(t *testing.T) {
	a := New("dispatchtest")
	a.GET("/hello", func(c *httpproto.Context) *httpproto.Context {
		c.Response = httpproto.OK(httpproto.TextBody("world"))
		return c
	})

	client, serverConn := net.Pipe()
	defer client.Close()

	go a.http.Handle(context.Background(), connection.NewStream(serverConn), a, a.root, nil)
	go client.Write([]byte("POST /hello HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n"))

	c := httpproto.NewClient()
	resp, err := httpproto.ReadResponse(bufio.NewReader(client), c.Safety)
	assert.NoError(t, err)
	assert.Equal(t, 405, resp.Meta.Start.StatusCode)
}

func TestAppUseInstallsRootChainForInheritingRoutes(t *testing.T) {
	a := New("dispatchtest")
	var ran bool
	a.Use(func(c *httpproto.Context, next middleware.Next[*httpproto.Context]) *httpproto.Context {
		ran = true
		return next(c)
	})
	a.GET("/hello", func(c *httpproto.Context) *httpproto.Context {
		c.Response = httpproto.OK(httpproto.TextBody("world"))
		return c
	})

	client, serverConn := net.Pipe()
	defer client.Close()

	go a.http.Handle(context.Background(), connection.NewStream(serverConn), a, a.root, nil)
	go client.Write([]byte("GET /hello HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n"))

	c := httpproto.NewClient()
	_, err := httpproto.ReadResponse(bufio.NewReader(client), c.Safety)
	assert.NoError(t, err)
	assert.True(t, ran)
}
