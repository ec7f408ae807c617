package gases

import (
	"strconv"
	"strings"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
)

// CORSConfig defines the config for the CORS gas.
type CORSConfig struct {
	Skipper Skipper

	// AllowOrigins defines a list of origins that may access the resource.
	// Optional. Default value []string{"*"}.
	AllowOrigins []string `json:"allow_origins"`

	// AllowMethods defines a list of methods allowed when accessing the
	// resource, used in the preflight response.
	// Optional. Default value []string{GET, HEAD, PUT, PATCH, POST, DELETE}.
	AllowMethods []string `json:"allow_methods"`

	// AllowHeaders defines a list of request headers permitted in the
	// actual request, used in the preflight response.
	// Optional. Default value []string{}.
	AllowHeaders []string `json:"allow_headers"`

	// AllowCredentials indicates whether the response can be exposed when
	// the credentials flag is true.
	// Optional. Default value false.
	AllowCredentials bool `json:"allow_credentials"`

	// ExposeHeaders defines a whitelist of headers clients are allowed to
	// access.
	// Optional. Default value []string{}.
	ExposeHeaders []string `json:"expose_headers"`

	// MaxAge indicates how long (in seconds) the results of a preflight
	// request can be cached.
	// Optional. Default value 0.
	MaxAge int `json:"max_age"`
}

// DefaultCORSConfig is the default CORS gas config.
var DefaultCORSConfig = CORSConfig{
	Skipper:      defaultSkipper,
	AllowOrigins: []string{"*"},
	AllowMethods: []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
}

func (c *CORSConfig) fill() {
	if c.Skipper == nil {
		c.Skipper = DefaultCORSConfig.Skipper
	}
	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = DefaultCORSConfig.AllowOrigins
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = DefaultCORSConfig.AllowMethods
	}
}

// CORS returns a Cross-Origin Resource Sharing (CORS) gas.
// See: https://developer.mozilla.org/en/docs/Web/HTTP/Access_control_CORS
func CORS() middleware.Func[*httpproto.Context] {
	return CORSWithConfig(DefaultCORSConfig)
}

// CORSWithConfig returns a CORS gas from config.
// See CORS.
func CORSWithConfig(config CORSConfig) middleware.Func[*httpproto.Context] {
	config.fill()

	allowMethods := strings.Join(config.AllowMethods, ",")
	allowHeaders := strings.Join(config.AllowHeaders, ",")
	exposeHeaders := strings.Join(config.ExposeHeaders, ",")
	maxAge := strconv.Itoa(config.MaxAge)

	return func(c *httpproto.Context, next middleware.Next[*httpproto.Context]) *httpproto.Context {
		if config.Skipper(c) {
			return next(c)
		}

		origin := c.Request.Meta.Header("Origin")
		allowedOrigin := ""
		for _, o := range config.AllowOrigins {
			if o == "*" || o == origin {
				allowedOrigin = o
				break
			}
		}

		if c.Request.Method() != "OPTIONS" {
			c = next(c)
			c.Response.Meta.AddHeader("Vary", "Origin")
			if origin == "" || allowedOrigin == "" {
				return c
			}
			c.Response.Meta.SetHeader("Access-Control-Allow-Origin", allowedOrigin)
			if config.AllowCredentials {
				c.Response.Meta.SetHeader("Access-Control-Allow-Credentials", "true")
			}
			if exposeHeaders != "" {
				c.Response.Meta.SetHeader("Access-Control-Expose-Headers", exposeHeaders)
			}
			return c
		}

		// Preflight request: respond directly, never reaching next.
		resp := httpproto.NewResponse(204, "No Content")
		resp.Meta.AddHeader("Vary", "Origin")
		resp.Meta.AddHeader("Vary", "Access-Control-Request-Method")
		resp.Meta.AddHeader("Vary", "Access-Control-Request-Headers")
		if origin == "" || allowedOrigin == "" {
			c.Response = resp
			return c
		}

		resp.Meta.SetHeader("Access-Control-Allow-Origin", allowedOrigin)
		resp.Meta.SetHeader("Access-Control-Allow-Methods", allowMethods)
		if config.AllowCredentials {
			resp.Meta.SetHeader("Access-Control-Allow-Credentials", "true")
		}
		if allowHeaders != "" {
			resp.Meta.SetHeader("Access-Control-Allow-Headers", allowHeaders)
		} else if reqHeaders := c.Request.Meta.Header("Access-Control-Request-Headers"); reqHeaders != "" {
			resp.Meta.SetHeader("Access-Control-Allow-Headers", reqHeaders)
		}
		if config.MaxAge > 0 {
			resp.Meta.SetHeader("Access-Control-Max-Age", maxAge)
		}
		c.Response = resp
		return c
	}
}
