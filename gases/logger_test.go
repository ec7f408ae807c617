package gases

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
)

func TestLoggerWritesJSONAccessLine(t *testing.T) {
	buf := &bytes.Buffer{}
	config := DefaultLoggerConfig
	config.Output = buf
	gas := LoggerWithConfig(config)

	c := newTestContext()
	c.Request.Meta.Start.Method = "GET"
	c.Request.Meta.Start.Path = "/hello"

	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		cc.Response = httpproto.OK(httpproto.TextBody("hi"))
		return cc
	})
	assert.Equal(t, 200, out.Response.Meta.Start.StatusCode)

	var decoded map[string]interface{}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "GET", decoded["method"])
	assert.Equal(t, "/hello", decoded["uri"])
	assert.Equal(t, float64(200), decoded["status"])
}

func TestLoggerSkipperBypassesLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	config := DefaultLoggerConfig
	config.Output = buf
	config.Skipper = func(c *httpproto.Context) bool { return true }
	gas := LoggerWithConfig(config)

	c := newTestContext()
	gas(c, func(cc *httpproto.Context) *httpproto.Context { return cc })

	assert.Empty(t, buf.Bytes())
}
