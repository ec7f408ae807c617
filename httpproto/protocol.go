package httpproto

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/Field-of-Dreams-Studio/hotaru-go/connection"
	"github.com/Field-of-Dreams-Studio/hotaru-go/pattern"
	"github.com/Field-of-Dreams-Studio/hotaru-go/protocol"
	"github.com/Field-of-Dreams-Studio/hotaru-go/routing"
)

// httpMethodPrefixes lists the initial bytes that identify an HTTP/1.1
// request line, used by Detect to sniff a connection's first bytes
// without consuming them.
var httpMethodPrefixes = []string{
	"GET ", "POST ", "PUT ", "DELETE ", "HEAD ", "OPTIONS ", "PATCH ", "CONNECT ", "TRACE ",
}

// Server implements protocol.Protocol[*Context] for HTTP/1.1: request-line
// detection, per-request parsing with safety limits, routing-tree
// dispatch, and keep-alive response writing.
type Server struct {
	Safety *Safety

	// KeepAliveRequests caps how many requests one connection serves
	// before the server closes it regardless of Connection header, 0
	// means unlimited.
	KeepAliveRequests int
}

// NewServer returns a Server with default safety limits.
func NewServer() *Server {
	return &Server{Safety: NewSafety()}
}

func (s *Server) Name() string { return "http/1.1" }

func (s *Server) Role() protocol.Role { return protocol.RoleServer }

func (s *Server) Detect(peek []byte) bool {
	for _, prefix := range httpMethodPrefixes {
		if bytes.HasPrefix(peek, []byte(prefix)) {
			return true
		}
	}
	return false
}

// Handle owns the connection for as long as the client keeps it alive: it
// parses one request at a time, dispatches it through root, writes the
// response, and loops unless the request or response says to close.
func (s *Server) Handle(ctx context.Context, stream *connection.Stream, app protocol.AppHandle, root *routing.Url[*Context], switcher protocol.Switcher) error {
	reader := stream.Reader
	writer := bufio.NewWriter(stream)

	served := 0
	for {
		if s.KeepAliveRequests > 0 && served >= s.KeepAliveRequests {
			return stream.Close()
		}

		req, err := ParseLazy(reader, s.Safety)
		if err != nil {
			return stream.Close()
		}
		served++

		resp := s.dispatch(ctx, stream, app, root, req)

		if resp.Meta.Start.StatusCode == 101 && resp.Meta.Header("upgrade") != "" && switcher != nil {
			if err := resp.WriteTo(writer); err != nil {
				return err
			}
			return switcher.SwitchTo(ctx, resp.Meta.Header("upgrade"), stream, app)
		}

		closing := shouldClose(req, resp)
		if closing && resp.Meta.Header("connection") == "" {
			resp.Meta.SetHeader("Connection", "close")
		}

		if err := resp.WriteTo(writer); err != nil {
			return err
		}

		if closing {
			return stream.Close()
		}
	}
}

func (s *Server) dispatch(ctx context.Context, stream *connection.Stream, app protocol.AppHandle, root *routing.Url[*Context], req *Request) (resp *Response) {
	defer func() {
		if recover() != nil {
			resp = InternalServerError()
		}
	}()

	if !s.Safety.CheckMethod(req.Method()) {
		return MethodNotAllowed()
	}

	if ct := req.Meta.ContentType(); ct != "" && !s.Safety.CheckContentType(ct) {
		return UnsupportedMediaType()
	}

	if length, ok := req.Meta.ContentLength(); ok && !s.Safety.CheckBodySize(length) {
		return PayloadTooLarge()
	}

	req.ParseBody(s.Safety)

	node := root.WalkPath(req.Path())
	req.Params = collectParams(node, req.Path())

	rc := NewContext(ctx, req, stream, app)
	rc.Params = req.Params

	result := node.Run(rc, func(c *Context) *Context {
		c.Response = NotFound()
		return c
	})

	if result.SwitchProtocol != "" && result.Response.Meta.Start.StatusCode == 101 {
		result.Response.Meta.SetHeader("Upgrade", result.SwitchProtocol)
	}
	return result.Response
}

// collectParams resolves the path parameters a matched node's pattern
// sequence captured by walking the declared names against the request's
// actual path segments.
func collectParams(node *routing.Url[*Context], path string) map[string]string {
	params := map[string]string{}
	if node == nil || node.IsDangling() {
		return params
	}

	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	anyPathIdx := -1
	if node.Pattern().Kind == pattern.KindAnyPath {
		anyPathIdx = node.SegmentCount() - 1
	}

	for i := 0; i < len(segments); i++ {
		name, ok := node.NameAt(i)
		if !ok {
			continue
		}
		if i == anyPathIdx {
			params[name] = strings.Join(segments[i:], "/")
			break
		}
		params[name] = segments[i]
	}
	return params
}

// shouldClose decides whether the connection should close after resp,
// honoring an explicit Connection header on either side and defaulting to
// keep-alive for HTTP/1.1.
func shouldClose(req *Request, resp *Response) bool {
	if strings.EqualFold(resp.Meta.Header("connection"), "close") {
		return true
	}
	if strings.EqualFold(req.Meta.Header("connection"), "close") {
		return true
	}
	if req.Meta.Start.Version != "HTTP/1.1" && !strings.EqualFold(req.Meta.Header("connection"), "keep-alive") {
		return true
	}
	return false
}
