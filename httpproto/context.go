package httpproto

import (
	"context"
	"time"

	"github.com/Field-of-Dreams-Studio/hotaru-go/connection"
	"github.com/Field-of-Dreams-Studio/hotaru-go/routing"
)

// Context is the per-request value threaded through the routing tree and
// middleware chain for the HTTP/1.1 protocol. It embeds context.Context so
// handlers can use it directly wherever a deadline- or cancellation-aware
// context is expected.
type Context struct {
	context.Context

	Request  *Request
	Response *Response

	Stream *connection.Stream
	App    routing.AppHandle

	Params map[string]string

	// Aborted short-circuits the remaining middleware chain: Run still
	// calls every Func, but a well-behaved Func checks Aborted before
	// doing request-handling work, the same way a Rust middleware would
	// check a short-circuit flag before calling its inner handler.
	Aborted bool

	// SwitchProtocol, set by a handler before returning a 101 response,
	// names the registered protocol this connection is handed to next: the
	// Server copies it into the response's Upgrade header, and Server.Handle
	// switches on a 101 response carrying that header.
	SwitchProtocol string

	values map[interface{}]interface{}
}

// NewContext builds a Context for req on stream, with base as its
// context.Context (the Server passes the context its connection was
// dispatched with).
func NewContext(base context.Context, req *Request, stream *connection.Stream, app routing.AppHandle) *Context {
	return &Context{
		Context:  base,
		Request:  req,
		Response: NewResponse(200, "OK"),
		Stream:   stream,
		App:      app,
		Params:   map[string]string{},
	}
}

func (c *Context) Abort() { c.Aborted = true }

func (c *Context) IsAborted() bool { return c.Aborted }

// Param returns a captured route parameter by name.
func (c *Context) Param(name string) string { return c.Params[name] }

// SetValue attaches a request-scoped value to the context, separate from
// the embedded context.Context's own value chain so handlers can mutate it
// in place without rebuilding a context.WithValue chain per write.
func (c *Context) SetValue(key, val interface{}) {
	if c.values == nil {
		c.values = map[interface{}]interface{}{}
	}
	c.values[key] = val
}

func (c *Context) Value(key interface{}) interface{} {
	if v, ok := c.values[key]; ok {
		return v
	}
	return c.Context.Value(key)
}

// WithTimeout installs a deadline on the embedded context.Context.
func (c *Context) WithTimeout(timeout time.Duration) context.CancelFunc {
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	c.Context = ctx
	return cancel
}

// RequestContext describes a per-request context that can report whether
// its own chain should stop early; *Context satisfies it. The routing,
// middleware and protocol packages accept any C and do not use it as a
// constraint.
type RequestContext interface {
	IsAborted() bool
}
