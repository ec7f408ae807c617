package gases

import (
	"strconv"
	"strings"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
)

// CompressConfig defines the config for the general Compress gas, which
// picks a coding from the request's Accept-Encoding preference list
// instead of Gzip's single fixed scheme.
type CompressConfig struct {
	Skipper Skipper

	// Schemes lists the content codings this gas is willing to apply, in
	// preference order. The client's q-values are not weighed: the first
	// scheme here that the client accepts (any q other than 0) wins.
	// Optional. Default value []string{"gzip", "deflate"}.
	Schemes []string
}

// DefaultCompressConfig is the default Compress gas config.
var DefaultCompressConfig = CompressConfig{
	Skipper: defaultSkipper,
	Schemes: []string{"gzip", "deflate"},
}

func (c *CompressConfig) fill() {
	if c.Skipper == nil {
		c.Skipper = DefaultCompressConfig.Skipper
	}
	if len(c.Schemes) == 0 {
		c.Schemes = DefaultCompressConfig.Schemes
	}
}

// Compress returns a gas that negotiates response compression across
// multiple codings. Like Gzip, it only tags Content-Encoding; the actual
// encoding happens in Body.IntoStatic, which already knows gzip and
// deflate (httpproto/body.go's encodeContentCoding).
func Compress() middleware.Func[*httpproto.Context] {
	return CompressWithConfig(DefaultCompressConfig)
}

// CompressWithConfig returns a Compress gas from config.
// See Compress.
func CompressWithConfig(config CompressConfig) middleware.Func[*httpproto.Context] {
	config.fill()

	return func(c *httpproto.Context, next middleware.Next[*httpproto.Context]) *httpproto.Context {
		if config.Skipper(c) {
			return next(c)
		}

		c = next(c)

		c.Response.Meta.AddHeader("Vary", "Accept-Encoding")
		if c.Response.Meta.ContentEncoding() != "" || c.Response.Body.Kind() == httpproto.BodyEmpty {
			return c
		}

		accepted := acceptedEncodings(c.Request.Meta.Header("Accept-Encoding"))
		for _, scheme := range config.Schemes {
			if accepted[scheme] {
				c.Response.Meta.SetHeader("Content-Encoding", scheme)
				break
			}
		}
		return c
	}
}

// acceptedEncodings parses an Accept-Encoding header value into the set of
// codings the client accepts (q=0 entries excluded).
func acceptedEncodings(header string) map[string]bool {
	out := map[string]bool{}
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name := part
		if i := strings.IndexByte(part, ';'); i >= 0 {
			name = part[:i]
			zero := false
			for _, param := range strings.Split(part[i+1:], ";") {
				param = strings.TrimSpace(param)
				if strings.HasPrefix(param, "q=") {
					q, err := strconv.ParseFloat(param[2:], 64)
					zero = err == nil && q == 0
				}
			}
			if zero {
				continue
			}
		}
		out[strings.ToLower(strings.TrimSpace(name))] = true
	}
	return out
}
