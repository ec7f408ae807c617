package gases

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
)

func newTestContext() *httpproto.Context {
	return httpproto.NewContext(context.Background(), httpproto.GetRequest("/"), nil, nil)
}

func TestRecoverCatchesPanicAndSets500(t *testing.T) {
	buf := &bytes.Buffer{}
	config := DefaultRecoverConfig
	config.Output = buf
	gas := RecoverWithConfig(config)

	c := newTestContext()
	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		panic("boom")
	})

	assert.Equal(t, 500, out.Response.Meta.Start.StatusCode)
	assert.Contains(t, buf.String(), "boom")
}

func TestRecoverPassesThroughWithoutPanic(t *testing.T) {
	gas := Recover()
	c := newTestContext()

	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		cc.Response = httpproto.OK(httpproto.TextBody("fine"))
		return cc
	})

	assert.Equal(t, 200, out.Response.Meta.Start.StatusCode)
}
