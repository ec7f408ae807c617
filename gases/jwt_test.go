package gases

import (
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
)

func signedToken(t *testing.T, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"})
	s, err := token.SignedString(key)
	assert.NoError(t, err)
	return s
}

func TestJWTValidBearerTokenCallsNext(t *testing.T) {
	key := []byte("secret")
	gas := JWT(key)
	c := newTestContext()
	c.Request.Meta.SetHeader("Authorization", "Bearer "+signedToken(t, key))

	called := false
	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		called = true
		return cc
	})

	assert.True(t, called)
	assert.NotNil(t, out.Value("user"))
}

func TestJWTMissingTokenReturns400(t *testing.T) {
	gas := JWT([]byte("secret"))
	c := newTestContext()

	out := gas(c, func(cc *httpproto.Context) *httpproto.Context { return cc })

	assert.Equal(t, 400, out.Response.Meta.Start.StatusCode)
}

func TestJWTInvalidSignatureReturns401(t *testing.T) {
	gas := JWT([]byte("secret"))
	c := newTestContext()
	c.Request.Meta.SetHeader("Authorization", "Bearer "+signedToken(t, []byte("other-key")))

	out := gas(c, func(cc *httpproto.Context) *httpproto.Context { return cc })

	assert.Equal(t, 401, out.Response.Meta.Start.StatusCode)
}

func TestJWTFromQueryString(t *testing.T) {
	key := []byte("secret")
	config := DefaultJWTConfig
	config.SigningKey = key
	config.TokenLookup = "query:token"
	gas := JWTWithConfig(config)

	c := newTestContext()
	c.Request.Meta.Start.Path = "/protected?token=" + signedToken(t, key)

	called := false
	out := gas(c, func(cc *httpproto.Context) *httpproto.Context {
		called = true
		return cc
	})

	assert.True(t, called)
}
