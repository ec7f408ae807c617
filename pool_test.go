package hotaru

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
)

func TestPoolRequestReuse(t *testing.T) {
	p := newPool()
	req := p.Request()
	assert.NotNil(t, req)
	p.PutRequest(req)

	req2 := p.Request()
	assert.NotNil(t, req2)
}

func TestPoolContextRebind(t *testing.T) {
	p := newPool()
	req := httpproto.NewRequest()
	c := p.Context(context.Background(), req, nil, nil)
	assert.Same(t, req, c.Request)
	p.PutContext(c)
}
