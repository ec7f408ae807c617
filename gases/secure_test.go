package gases

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
)

func TestSecureSetsDefaultHeaders(t *testing.T) {
	gas := Secure()
	c := newTestContext()

	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		cc.Response = httpproto.OK(httpproto.TextBody("ok"))
		return cc
	})

	assert.Equal(t, "1; mode=block", out.Response.Meta.Header("X-XSS-Protection"))
	assert.Equal(t, "nosniff", out.Response.Meta.Header("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", out.Response.Meta.Header("X-Frame-Options"))
	assert.Empty(t, out.Response.Meta.Header("Strict-Transport-Security"))
}

func TestSecureSetsHSTSOverForwardedProto(t *testing.T) {
	config := DefaultSecureConfig
	config.HSTSMaxAge = 3600
	gas := SecureWithConfig(config)

	c := newTestContext()
	c.Request.Meta.SetHeader("X-Forwarded-Proto", "https")

	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		cc.Response = httpproto.OK(httpproto.TextBody("ok"))
		return cc
	})

	assert.Equal(t, "max-age=3600; includeSubdomains", out.Response.Meta.Header("Strict-Transport-Security"))
}

func TestSecureHandlesNilStreamWithoutPanic(t *testing.T) {
	config := DefaultSecureConfig
	config.HSTSMaxAge = 60
	gas := SecureWithConfig(config)
	c := newTestContext()

	assert.NotPanics(t, func() {
		gas(c, func(cc *httpproto.Context) *httpproto.Context {
			cc.Response = httpproto.OK(httpproto.TextBody("ok"))
			return cc
		})
	})
}
