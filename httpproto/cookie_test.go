package httpproto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCookieStringBasic(t *testing.T) {
	c := &Cookie{Name: "session", Value: "abc123"}
	assert.Equal(t, "session=abc123", c.String())
}

func TestCookieStringWithAttributes(t *testing.T) {
	c := &Cookie{
		Name:     "session",
		Value:    "abc123",
		Path:     "/app",
		Domain:   "example.com",
		Secure:   true,
		HTTPOnly: true,
		MaxAge:   3600,
	}
	s := c.String()
	assert.Contains(t, s, "session=abc123")
	assert.Contains(t, s, "Path=/app")
	assert.Contains(t, s, "Domain=example.com")
	assert.Contains(t, s, "Secure")
	assert.Contains(t, s, "HttpOnly")
	assert.Contains(t, s, "Max-Age=3600")
}

func TestCookieStringInvalidNameIsEmpty(t *testing.T) {
	c := &Cookie{Name: "bad name", Value: "x"}
	assert.Equal(t, "", c.String())
}

func TestCookieExpiresOmittedWhenZero(t *testing.T) {
	c := &Cookie{Name: "a", Value: "b"}
	assert.NotContains(t, c.String(), "Expires")
}

func TestCookieExpiresIncludedWhenSet(t *testing.T) {
	c := &Cookie{Name: "a", Value: "b", Expires: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	assert.Contains(t, c.String(), "Expires=")
}

func TestParseCookieHeaderMultipleCookies(t *testing.T) {
	cookies := parseCookieHeader("a=1; b=2; c=3")
	assert.Len(t, cookies, 3)
	assert.Equal(t, "a", cookies[0].Name)
	assert.Equal(t, "1", cookies[0].Value)
	assert.Equal(t, "c", cookies[2].Name)
}

func TestParseCookieHeaderSkipsInvalidName(t *testing.T) {
	cookies := parseCookieHeader("good=1; bad name=2")
	assert.Len(t, cookies, 1)
	assert.Equal(t, "good", cookies[0].Name)
}

func TestParseCookieHeaderEmpty(t *testing.T) {
	assert.Empty(t, parseCookieHeader(""))
}
