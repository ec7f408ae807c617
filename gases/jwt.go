package gases

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dgrijalva/jwt-go"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
)

type (
	// JWTConfig defines the config for the JWT gas.
	JWTConfig struct {
		Skipper Skipper

		// SigningKey validates the token. Required.
		SigningKey interface{} `json:"signing_key"`

		// SigningMethod checks the token's signing method.
		// Optional. Default value HS256.
		SigningMethod string `json:"signing_method"`

		// ContextKey stores the parsed token under this key via
		// Context.SetValue.
		// Optional. Default value "user".
		ContextKey string `json:"context_key"`

		// Claims are extendable claims data defining token content.
		// Optional. Default value jwt.MapClaims{}.
		Claims jwt.Claims

		// TokenLookup is a string in the form "<source>:<name>" used to
		// extract the token from the request.
		// Optional. Default value "header:Authorization".
		// Possible values:
		// - "header:<name>"
		// - "query:<name>"
		// - "cookie:<name>"
		TokenLookup string `json:"token_lookup"`
	}

	jwtExtractor func(*httpproto.Context) (string, error)
)

const (
	bearer = "Bearer"

	// AlgorithmHS256 is the algorithm that checks the token signing method.
	AlgorithmHS256 = "HS256"
)

// DefaultJWTConfig is the default JWT auth gas config.
var DefaultJWTConfig = JWTConfig{
	Skipper:       defaultSkipper,
	SigningMethod: AlgorithmHS256,
	ContextKey:    "user",
	Claims:        jwt.MapClaims{},
	TokenLookup:   "header:Authorization",
}

func (c *JWTConfig) fill() {
	if c.Skipper == nil {
		c.Skipper = DefaultJWTConfig.Skipper
	}
	if c.SigningMethod == "" {
		c.SigningMethod = DefaultJWTConfig.SigningMethod
	}
	if c.ContextKey == "" {
		c.ContextKey = DefaultJWTConfig.ContextKey
	}
	if c.Claims == nil {
		c.Claims = DefaultJWTConfig.Claims
	}
	if c.TokenLookup == "" {
		c.TokenLookup = DefaultJWTConfig.TokenLookup
	}
}

// JWT returns a JSON Web Token (JWT) auth gas.
//
// For a valid token, it stores the parsed token in the context and calls
// the next handler. For an invalid token, it returns a 401. For a missing
// token, it returns a 400.
//
// See: https://jwt.io/introduction
// See JWTConfig.TokenLookup.
func JWT(key []byte) middleware.Func[*httpproto.Context] {
	config := DefaultJWTConfig
	config.SigningKey = key
	return JWTWithConfig(config)
}

// JWTWithConfig returns a JWT auth gas from config.
// See JWT.
func JWTWithConfig(config JWTConfig) middleware.Func[*httpproto.Context] {
	config.fill()
	if config.SigningKey == nil {
		panic("gases: jwt gas requires a SigningKey")
	}

	parts := strings.SplitN(config.TokenLookup, ":", 2)
	extractor := jwtFromHeader(parts[1])
	switch parts[0] {
	case "query":
		extractor = jwtFromQuery(parts[1])
	case "cookie":
		extractor = jwtFromCookie(parts[1])
	}

	return func(c *httpproto.Context, next middleware.Next[*httpproto.Context]) *httpproto.Context {
		if config.Skipper(c) {
			return next(c)
		}

		auth, err := extractor(c)
		if err != nil {
			resp := httpproto.NewResponse(400, "Bad Request")
			resp.Body = httpproto.TextBody(err.Error())
			c.Response = resp
			return c
		}

		token, err := jwt.ParseWithClaims(auth, config.Claims, func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != config.SigningMethod {
				return nil, fmt.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
			}
			return config.SigningKey, nil
		})

		if err == nil && token.Valid {
			c.SetValue(config.ContextKey, token)
			return next(c)
		}

		resp := httpproto.NewResponse(401, "Unauthorized")
		resp.Body = httpproto.TextBody("401 unauthorized")
		c.Response = resp
		return c
	}
}

// jwtFromHeader extracts a bearer token from the named request header.
func jwtFromHeader(header string) jwtExtractor {
	return func(c *httpproto.Context) (string, error) {
		auth := c.Request.Meta.Header(header)
		l := len(bearer)
		if len(auth) > l+1 && auth[:l] == bearer {
			return auth[l+1:], nil
		}
		return "", errors.New("empty or invalid jwt in request header")
	}
}

// jwtFromQuery extracts a token from the named query string parameter.
func jwtFromQuery(param string) jwtExtractor {
	return func(c *httpproto.Context) (string, error) {
		token := queryParam(c, param)
		if token == "" {
			return "", errors.New("empty jwt in query string")
		}
		return token, nil
	}
}

// jwtFromCookie extracts a token from the named cookie.
func jwtFromCookie(name string) jwtExtractor {
	return func(c *httpproto.Context) (string, error) {
		for _, cookie := range c.Request.Meta.Cookies() {
			if cookie.Name == name {
				return cookie.Value, nil
			}
		}
		return "", errors.New("empty jwt in cookie")
	}
}

// queryParam parses the request path's query string and returns the first
// value for name, following the routing tree's convention of leaving the
// raw path (including "?...") untouched in Meta.Start.Path.
func queryParam(c *httpproto.Context, name string) string {
	path := c.Request.Path()
	i := strings.IndexByte(path, '?')
	if i < 0 {
		return ""
	}
	values, err := url.ParseQuery(path[i+1:])
	if err != nil {
		return ""
	}
	return values.Get(name)
}
