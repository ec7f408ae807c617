package gases

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
)

func TestGzipTagsContentEncodingWhenAccepted(t *testing.T) {
	gas := Gzip()
	c := newTestContext()
	c.Request.Meta.SetHeader("Accept-Encoding", "gzip, deflate")

	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		cc.Response = httpproto.OK(httpproto.TextBody("hello world"))
		return cc
	})

	assert.Equal(t, "gzip", out.Response.Meta.ContentEncoding())
	assert.Equal(t, "Accept-Encoding", out.Response.Meta.Header("Vary"))
}

func TestGzipSkipsWhenNotAccepted(t *testing.T) {
	gas := Gzip()
	c := newTestContext()

	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		cc.Response = httpproto.OK(httpproto.TextBody("hello world"))
		return cc
	})

	assert.Empty(t, out.Response.Meta.ContentEncoding())
}

func TestGzipSkipsEmptyBody(t *testing.T) {
	gas := Gzip()
	c := newTestContext()
	c.Request.Meta.SetHeader("Accept-Encoding", "gzip")

	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		cc.Response = httpproto.NewResponse(204, "No Content")
		return cc
	})

	assert.Empty(t, out.Response.Meta.ContentEncoding())
}
