package gases

import (
	"strings"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
)

// GzipConfig defines the config for the Gzip gas.
type GzipConfig struct {
	Skipper Skipper
}

// DefaultGzipConfig is the default Gzip gas config.
var DefaultGzipConfig = GzipConfig{
	Skipper: defaultSkipper,
}

func (c *GzipConfig) fill() {
	if c.Skipper == nil {
		c.Skipper = DefaultGzipConfig.Skipper
	}
}

// Gzip returns a gas that negotiates gzip response compression. Unlike the
// teacher's version, it never wraps a response writer: it tags the
// response's Content-Encoding and lets Body.IntoStatic (httpproto/body.go)
// perform the actual encoding once the body is known, the same pipeline
// that already decodes a gzip-coded request body.
func Gzip() middleware.Func[*httpproto.Context] {
	return GzipWithConfig(DefaultGzipConfig)
}

// GzipWithConfig returns a Gzip gas from config.
// See Gzip.
func GzipWithConfig(config GzipConfig) middleware.Func[*httpproto.Context] {
	config.fill()

	return func(c *httpproto.Context, next middleware.Next[*httpproto.Context]) *httpproto.Context {
		if config.Skipper(c) {
			return next(c)
		}

		c = next(c)

		c.Response.Meta.AddHeader("Vary", "Accept-Encoding")
		if strings.Contains(c.Request.Meta.Header("Accept-Encoding"), "gzip") &&
			c.Response.Meta.ContentEncoding() == "" && c.Response.Body.Kind() != httpproto.BodyEmpty {
			c.Response.Meta.SetHeader("Content-Encoding", "gzip")
		}
		return c
	}
}
