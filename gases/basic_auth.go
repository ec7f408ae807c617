package gases

import (
	"encoding/base64"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
)

type (
	// BasicAuthConfig defines the config for the basic-auth gas.
	BasicAuthConfig struct {
		Skipper Skipper

		// Validator validates a username/password pair extracted from the
		// Authorization header. Required.
		Validator BasicAuthValidator

		// Realm is reported in the WWW-Authenticate challenge.
		// Optional. Default value "Restricted".
		Realm string
	}

	// BasicAuthValidator reports whether the given username/password pair
	// is valid.
	BasicAuthValidator func(username, password string) bool
)

// DefaultBasicAuthConfig is the default basic-auth gas config.
var DefaultBasicAuthConfig = BasicAuthConfig{
	Skipper: defaultSkipper,
	Realm:   "Restricted",
}

func (c *BasicAuthConfig) fill() {
	if c.Skipper == nil {
		c.Skipper = DefaultBasicAuthConfig.Skipper
	}
	if c.Realm == "" {
		c.Realm = DefaultBasicAuthConfig.Realm
	}
}

const basicScheme = "Basic"

// BasicAuth returns a basic-auth gas using fn to validate credentials.
//
// Valid credentials call the next handler; invalid ones get a 401; a
// missing or malformed Authorization header also gets a 401, with a
// WWW-Authenticate challenge so browsers pop up a login box.
func BasicAuth(fn BasicAuthValidator) middleware.Func[*httpproto.Context] {
	config := DefaultBasicAuthConfig
	config.Validator = fn
	return BasicAuthWithConfig(config)
}

// BasicAuthWithConfig returns a basic-auth gas from config.
// See BasicAuth.
func BasicAuthWithConfig(config BasicAuthConfig) middleware.Func[*httpproto.Context] {
	config.fill()
	if config.Validator == nil {
		panic("gases: basic-auth gas requires a Validator")
	}

	return func(c *httpproto.Context, next middleware.Next[*httpproto.Context]) *httpproto.Context {
		if config.Skipper(c) {
			return next(c)
		}

		auth := c.Request.Meta.Header("Authorization")
		l := len(basicScheme)

		if len(auth) > l+1 && auth[:l] == basicScheme {
			b, err := base64.StdEncoding.DecodeString(auth[l+1:])
			if err == nil {
				cred := string(b)
				for i := 0; i < len(cred); i++ {
					if cred[i] == ':' && config.Validator(cred[:i], cred[i+1:]) {
						return next(c)
					}
				}
			}
		}

		resp := httpproto.NewResponse(401, "Unauthorized")
		resp.Body = httpproto.TextBody("401 unauthorized")
		resp.Meta.SetHeader("WWW-Authenticate", basicScheme+` realm="`+config.Realm+`"`)
		c.Response = resp
		return c
	}
}
