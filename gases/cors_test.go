package gases

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
)

func TestCORSSimpleRequestSetsOriginHeader(t *testing.T) {
	gas := CORS()
	c := newTestContext()
	c.Request.Meta.Start.Method = "GET"
	c.Request.Meta.AddHeader("Origin", "https://example.com")

	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		cc.Response = httpproto.OK(httpproto.TextBody("ok"))
		return cc
	})

	assert.Equal(t, "*", out.Response.Meta.Header("Access-Control-Allow-Origin"))
	assert.Equal(t, "ok", mustText(out.Response.Body))
}

func TestCORSPreflightRespondsWithoutCallingNext(t *testing.T) {
	gas := CORS()
	c := newTestContext()
	c.Request.Meta.Start.Method = "OPTIONS"
	c.Request.Meta.AddHeader("Origin", "https://example.com")
	c.Request.Meta.AddHeader("Access-Control-Request-Method", "POST")

	called := false
	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		called = true
		return cc
	})

	assert.False(t, called)
	assert.Equal(t, 204, out.Response.Meta.Start.StatusCode)
	assert.Equal(t, "*", out.Response.Meta.Header("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, out.Response.Meta.Header("Access-Control-Allow-Methods"))
}

func mustText(b *httpproto.Body) string {
	static := b.IntoStatic(httpproto.NewResponseMeta("HTTP/1.1", 200, "OK"))
	return string(static)
}
