package hotaru

import (
	"context"
	"sync"

	"github.com/Field-of-Dreams-Studio/hotaru-go/connection"
	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/routing"
)

// Pool reuses *httpproto.Context and *httpproto.Request values across
// requests to cut per-request allocation, the same concern the teacher's
// pool.go serves for its Context/Request/Response/Header/URI/Cookie set —
// narrowed here to the two types the new request lifecycle actually
// allocates per request, since Meta/Body already live inside Request.
type Pool struct {
	contextPool *sync.Pool
	requestPool *sync.Pool
}

// newPool returns a Pool. New contexts are built lazily since they need a
// base context, stream and app only known at request time; the pool mainly
// amortizes the Params map and Request allocation.
func newPool() *Pool {
	return &Pool{
		contextPool: &sync.Pool{
			New: func() interface{} { return &httpproto.Context{} },
		},
		requestPool: &sync.Pool{
			New: func() interface{} { return httpproto.NewRequest() },
		},
	}
}

// Request returns a reset *httpproto.Request from p.
func (p *Pool) Request() *httpproto.Request {
	return p.requestPool.Get().(*httpproto.Request)
}

// PutRequest returns req to p.
func (p *Pool) PutRequest(req *httpproto.Request) {
	*req = *httpproto.NewRequest()
	p.requestPool.Put(req)
}

// Context returns a pooled *httpproto.Context rebound to base/req/stream/app.
func (p *Pool) Context(base context.Context, req *httpproto.Request, stream *connection.Stream, app routing.AppHandle) *httpproto.Context {
	c := p.contextPool.Get().(*httpproto.Context)
	*c = *httpproto.NewContext(base, req, stream, app)
	return c
}

// PutContext returns c to p.
func (p *Pool) PutContext(c *httpproto.Context) {
	p.contextPool.Put(c)
}
