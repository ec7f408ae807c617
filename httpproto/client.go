package httpproto

import (
	"bufio"
	"context"
	"fmt"

	"github.com/Field-of-Dreams-Studio/hotaru-go/connection"
)

// Client sends HTTP/1.1 requests over a connection.Stream the caller
// supplies and parses the resulting Response. It neither dials nor pools
// connections; the caller provides an already connected stream.
type Client struct {
	Safety *Safety
}

func NewClient() *Client {
	return &Client{Safety: NewSafety()}
}

// Do sets req's Host header to host, writes req to stream, and reads back
// a fully-parsed Response from the same stream.
func (c *Client) Do(ctx context.Context, stream *connection.Stream, host string, req *Request) (*Response, error) {
	req.Meta.SetHeader("Host", host)

	writer := bufio.NewWriter(stream)
	bin := req.Body.IntoStatic(req.Meta)

	if _, err := fmt.Fprintf(writer, "%s %s %s\r\n", req.Meta.Start.Method, req.Meta.Start.Path, req.Meta.Start.Version); err != nil {
		return nil, err
	}
	for _, h := range req.Meta.headers {
		if _, err := fmt.Fprintf(writer, "%s: %s\r\n", canonicalHeaderKey(h.key), h.value); err != nil {
			return nil, err
		}
	}
	if _, err := writer.WriteString("\r\n"); err != nil {
		return nil, err
	}
	if len(bin) > 0 {
		if _, err := writer.Write(bin); err != nil {
			return nil, err
		}
	}
	if err := writer.Flush(); err != nil {
		return nil, err
	}

	resp, err := ReadResponse(stream.Reader, c.Safety)
	if err != nil {
		return nil, err
	}
	resp.Body = resp.Body.ParseBuffer(c.Safety)
	return resp, nil
}
