package gases

import (
	"crypto/subtle"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
)

type (
	// CSRFConfig defines the config for the CSRF gas.
	CSRFConfig struct {
		Skipper Skipper

		// TokenLength is the length of the generated token.
		// Optional. Default value 32.
		TokenLength uint8 `json:"token_length"`

		// TokenLookup is a string in the form "<source>:<key>" used to
		// extract the token from the request.
		// Optional. Default value "header:X-CSRF-Token".
		// Possible values:
		// - "header:<name>"
		// - "form:<name>"
		// - "query:<name>"
		TokenLookup string `json:"token_lookup"`

		// ContextKey stores the generated token in the context.
		// Optional. Default value "csrf".
		ContextKey string `json:"context_key"`

		// CookieName names the cookie that stores the CSRF token.
		// Optional. Default value "_csrf".
		CookieName string `json:"cookie_name"`

		// CookieDomain of the CSRF cookie.
		// Optional. Default value none.
		CookieDomain string `json:"cookie_domain"`

		// CookiePath of the CSRF cookie.
		// Optional. Default value none.
		CookiePath string `json:"cookie_path"`

		// CookieMaxAge in seconds of the CSRF cookie.
		// Optional. Default value 86400 (24hr).
		CookieMaxAge int `json:"cookie_max_age"`

		// CookieSecure marks the CSRF cookie Secure.
		// Optional. Default value false.
		CookieSecure bool `json:"cookie_secure"`

		// CookieHTTPOnly marks the CSRF cookie HttpOnly.
		// Optional. Default value false.
		CookieHTTPOnly bool `json:"cookie_http_only"`
	}

	// csrfTokenExtractor extracts a client-supplied token, or an error
	// describing why none was found.
	csrfTokenExtractor func(*httpproto.Context) (string, error)
)

// DefaultCSRFConfig is the default CSRF gas config.
var DefaultCSRFConfig = CSRFConfig{
	Skipper:      defaultSkipper,
	TokenLength:  32,
	TokenLookup:  "header:X-CSRF-Token",
	ContextKey:   "csrf",
	CookieName:   "_csrf",
	CookieMaxAge: 86400,
}

func (c *CSRFConfig) fill() {
	if c.Skipper == nil {
		c.Skipper = DefaultCSRFConfig.Skipper
	}
	if c.TokenLength == 0 {
		c.TokenLength = DefaultCSRFConfig.TokenLength
	}
	if c.TokenLookup == "" {
		c.TokenLookup = DefaultCSRFConfig.TokenLookup
	}
	if c.ContextKey == "" {
		c.ContextKey = DefaultCSRFConfig.ContextKey
	}
	if c.CookieName == "" {
		c.CookieName = DefaultCSRFConfig.CookieName
	}
	if c.CookieMaxAge == 0 {
		c.CookieMaxAge = DefaultCSRFConfig.CookieMaxAge
	}
}

// CSRF returns a Cross-Site Request Forgery (CSRF) gas.
// See: https://en.wikipedia.org/wiki/Cross-site_request_forgery
func CSRF() middleware.Func[*httpproto.Context] {
	return CSRFWithConfig(DefaultCSRFConfig)
}

// CSRFWithConfig returns a CSRF gas from config.
// See CSRF.
func CSRFWithConfig(config CSRFConfig) middleware.Func[*httpproto.Context] {
	config.fill()

	parts := strings.SplitN(config.TokenLookup, ":", 2)
	extractor := csrfTokenFromHeader(parts[1])
	switch parts[0] {
	case "form":
		extractor = csrfTokenFromForm(parts[1])
	case "query":
		extractor = csrfTokenFromQuery(parts[1])
	}

	return func(c *httpproto.Context, next middleware.Next[*httpproto.Context]) *httpproto.Context {
		if config.Skipper(c) {
			return next(c)
		}

		token := ""
		found := false
		for _, cookie := range c.Request.Meta.Cookies() {
			if cookie.Name == config.CookieName {
				token = cookie.Value
				found = true
				break
			}
		}
		if !found {
			token = randomString(config.TokenLength)
		}

		// Validate the token for any request not defined as 'safe' by
		// RFC 7231.
		switch c.Request.Method() {
		case "GET", "HEAD", "OPTIONS", "TRACE":
		default:
			clientToken, err := extractor(c)
			if err != nil {
				resp := httpproto.NewResponse(403, "Forbidden")
				resp.Body = httpproto.TextBody(err.Error())
				c.Response = resp
				return c
			}
			if !validateCSRFToken(token, clientToken) {
				resp := httpproto.NewResponse(403, "Forbidden")
				resp.Body = httpproto.TextBody("403 csrf token is invalid")
				c.Response = resp
				return c
			}
		}

		c.SetValue(config.ContextKey, token)

		c = next(c)

		cookie := &httpproto.Cookie{
			Name:     config.CookieName,
			Value:    token,
			Path:     config.CookiePath,
			Domain:   config.CookieDomain,
			Expires:  time.Now().Add(time.Duration(config.CookieMaxAge) * time.Second),
			Secure:   config.CookieSecure,
			HTTPOnly: config.CookieHTTPOnly,
		}
		c.Response.AddCookie(cookie)
		c.Response.Meta.AddHeader("Vary", "Cookie")

		return c
	}
}

// csrfTokenFromHeader extracts the token from the named request header.
func csrfTokenFromHeader(header string) csrfTokenExtractor {
	return func(c *httpproto.Context) (string, error) {
		token := c.Request.Meta.Header(header)
		if token == "" {
			return "", errors.New("empty csrf token in request header")
		}
		return token, nil
	}
}

// csrfTokenFromForm extracts the token from the named form field.
func csrfTokenFromForm(param string) csrfTokenExtractor {
	return func(c *httpproto.Context) (string, error) {
		values, ok := c.Request.Body.FormValues()
		if ok {
			if token := values.Get(param); token != "" {
				return token, nil
			}
		}
		return "", errors.New("empty csrf token in form param")
	}
}

// csrfTokenFromQuery extracts the token from the named query parameter.
func csrfTokenFromQuery(param string) csrfTokenExtractor {
	return func(c *httpproto.Context) (string, error) {
		token := queryParam(c, param)
		if token == "" {
			return "", errors.New("empty csrf token in query param")
		}
		return token, nil
	}
}

func validateCSRFToken(token, clientToken string) bool {
	return subtle.ConstantTimeCompare([]byte(token), []byte(clientToken)) == 1
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func init() {
	rand.Seed(time.Now().UnixNano())
}

func randomString(length uint8) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumeric[rand.Int63()%int64(len(alphanumeric))]
	}
	return string(b)
}
