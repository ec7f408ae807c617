package httpproto

import (
	"bufio"
	"fmt"
)

// Response is a parsed or to-be-written HTTP/1.1 response: a status line
// and headers (Meta) plus a body.
type Response struct {
	Meta *Meta
	Body *Body
}

// NewResponse builds a response with the given status, an empty body, and
// no headers set yet.
func NewResponse(statusCode int, reason string) *Response {
	return &Response{Meta: NewResponseMeta("HTTP/1.1", statusCode, reason), Body: EmptyBody()}
}

func OK(body *Body) *Response {
	resp := NewResponse(200, "OK")
	resp.Body = body
	return resp
}

func NotFound() *Response {
	resp := NewResponse(404, "Not Found")
	resp.Body = TextBody("404 not found")
	return resp
}

func MethodNotAllowed() *Response {
	resp := NewResponse(405, "Method Not Allowed")
	resp.Body = TextBody("405 method not allowed")
	return resp
}

func PayloadTooLarge() *Response {
	resp := NewResponse(413, "Payload Too Large")
	resp.Body = TextBody("413 payload too large")
	return resp
}

func UnsupportedMediaType() *Response {
	resp := NewResponse(415, "Unsupported Media Type")
	resp.Body = TextBody("415 unsupported media type")
	return resp
}

func InternalServerError() *Response {
	resp := NewResponse(500, "Internal Server Error")
	resp.Body = TextBody("500 internal server error")
	return resp
}

func (resp *Response) AddCookie(cookie *Cookie) *Response {
	resp.Meta.AddCookie(cookie)
	return resp
}

func (resp *Response) ContentType(contentType string) *Response {
	resp.Meta.SetContentType(contentType)
	return resp
}

func (resp *Response) AddHeader(key, value string) *Response {
	resp.Meta.AddHeader(key, value)
	return resp
}

// WriteTo renders resp to w as a full HTTP/1.1 status line, header block,
// and body, filling in any Content-Length/Content-Type the body variant
// defaults per Body.IntoStatic.
func (resp *Response) WriteTo(w *bufio.Writer) error {
	bin := resp.Body.IntoStatic(resp.Meta)

	if _, err := fmt.Fprintf(w, "%s %d %s\r\n", resp.Meta.Start.Version, resp.Meta.Start.StatusCode, resp.Meta.Start.Reason); err != nil {
		return err
	}
	for _, h := range resp.Meta.headers {
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", canonicalHeaderKey(h.key), h.value); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	if len(bin) > 0 {
		if _, err := w.Write(bin); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ReadResponse parses a status line and headers off r, leaving the body as
// an unconsumed Buffer.
func ReadResponse(r *bufio.Reader, safety *Safety) (*Response, error) {
	line, err := readLine(r, safety.effectiveMaxLineLength())
	if err != nil {
		return nil, err
	}

	var version, reason string
	var status int
	if _, err := fmt.Sscanf(line, "%s %d", &version, &status); err != nil {
		return nil, fmt.Errorf("httpproto: malformed status line %q", line)
	}
	if i := indexNth(line, ' ', 2); i >= 0 && i+1 <= len(line) {
		reason = line[i+1:]
	}

	headers, err := readHeaders(r, safety)
	if err != nil {
		return nil, err
	}
	meta := &Meta{Start: StartLine{IsRequest: false, Version: version, StatusCode: status, Reason: reason}, headers: headers}

	body, err := ReadBuffer(r, meta, safety)
	if err != nil {
		return nil, err
	}

	return &Response{Meta: meta, Body: body}, nil
}

func indexNth(s string, sep byte, n int) int {
	count := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			count++
			if count == n {
				return i
			}
		}
	}
	return -1
}

// canonicalHeaderKey renders a lower-cased internal header key back into
// its conventional wire form (Content-Type, not content-type).
func canonicalHeaderKey(key string) string {
	out := []byte(key)
	upperNext := true
	for i, c := range out {
		if upperNext && c >= 'a' && c <= 'z' {
			out[i] = c - 'a' + 'A'
		}
		upperNext = c == '-'
	}
	return string(out)
}
