// Package gases holds reusable middleware.Func implementations instantiated
// for the HTTP/1.1 Context: recovery, access logging, CORS, basic auth,
// JWT, response compression, security headers, CSRF, and static file
// serving. Each constructor follows the same Default*Config / *WithConfig
// shape so callers can either take the defaults or override one field.
package gases

import "github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"

// Skipper reports whether a gas should be bypassed for the given request.
// Returning true skips the gas's own work and calls straight through.
type Skipper func(c *httpproto.Context) bool

func defaultSkipper(c *httpproto.Context) bool {
	return false
}
