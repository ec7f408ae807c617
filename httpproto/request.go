package httpproto

import (
	"bufio"
	"fmt"
)

// Request is a parsed HTTP/1.1 request: a start line and headers (Meta)
// plus a body, read lazily and dispatched separately so a route can
// inspect headers before paying to parse a large body.
type Request struct {
	Meta *Meta
	Body *Body

	// Params holds the route's captured path parameters, filled in by the
	// server handler after the routing tree resolves a match.
	Params map[string]string
}

// NewRequest returns an empty GET / request.
func NewRequest() *Request {
	return &Request{Meta: NewRequestMeta("GET", "/", "HTTP/1.1"), Body: &Body{kind: BodyUnparsed}}
}

// ParseLazy reads a request's start line and headers off r and returns a
// Request whose body is left as an unconsumed Buffer — call ParseBody to
// dispatch it into a typed variant.
func ParseLazy(r *bufio.Reader, safety *Safety) (*Request, error) {
	start, err := readStartLine(r, safety)
	if err != nil {
		return nil, err
	}
	if !safety.CheckMethod(start.Method) {
		return nil, fmt.Errorf("httpproto: method %q not allowed", start.Method)
	}

	headers, err := readHeaders(r, safety)
	if err != nil {
		return nil, err
	}
	meta := &Meta{Start: start, headers: headers}

	if ct := meta.ContentType(); ct != "" && !safety.CheckContentType(ct) {
		return nil, fmt.Errorf("httpproto: content type %q not allowed", ct)
	}

	body, err := ReadBuffer(r, meta, safety)
	if err != nil {
		return nil, err
	}

	return &Request{Meta: meta, Body: body}, nil
}

// ParseBody dispatches the request's Buffer body into its typed variant
// per the declared Content-Type.
func (req *Request) ParseBody(safety *Safety) {
	req.Body = req.Body.ParseBuffer(safety)
}

func (req *Request) AddCookie(cookie *Cookie) *Request {
	req.Meta.AddHeader("Cookie", cookie.Name+"="+cookie.Value)
	return req
}

func (req *Request) ContentType(contentType string) *Request {
	req.Meta.SetContentType(contentType)
	return req
}

func (req *Request) AddHeader(key, value string) *Request {
	req.Meta.AddHeader(key, value)
	return req
}

func (req *Request) Method() string { return req.Meta.Start.Method }

func (req *Request) Path() string { return req.Meta.Start.Path }

// GetRequest builds a bare GET request against path, body left Unparsed.
func GetRequest(path string) *Request {
	return &Request{Meta: NewRequestMeta("GET", path, "HTTP/1.1"), Body: &Body{kind: BodyUnparsed}}
}

// JSONRequest builds a POST request carrying v as a JSON body.
func JSONRequest(path string, v interface{}) *Request {
	req := &Request{Meta: NewRequestMeta("POST", path, "HTTP/1.1"), Body: JSONBody(v)}
	req.Meta.SetContentType("application/json")
	return req
}

// FormPostRequest builds a POST request carrying values as an
// application/x-www-form-urlencoded body.
func FormPostRequest(path string, values map[string][]string) *Request {
	req := &Request{Meta: NewRequestMeta("POST", path, "HTTP/1.1"), Body: FormBody(values)}
	req.Meta.SetContentType("application/x-www-form-urlencoded")
	return req
}

// TextPostRequest builds a POST request carrying text as a plain-text
// body.
func TextPostRequest(path, text string) *Request {
	req := &Request{Meta: NewRequestMeta("POST", path, "HTTP/1.1"), Body: BinaryBody([]byte(text))}
	req.Meta.SetContentType("text/plain; charset=utf-8")
	return req
}

// JSONPutRequest builds a PUT request carrying v as a JSON body.
func JSONPutRequest(path string, v interface{}) *Request {
	req := &Request{Meta: NewRequestMeta("PUT", path, "HTTP/1.1"), Body: JSONBody(v)}
	req.Meta.SetContentType("application/json")
	return req
}

// JSONPatchRequest builds a PATCH request carrying v as a JSON body.
func JSONPatchRequest(path string, v interface{}) *Request {
	req := &Request{Meta: NewRequestMeta("PATCH", path, "HTTP/1.1"), Body: JSONBody(v)}
	req.Meta.SetContentType("application/json")
	return req
}

// DeleteRequest builds a bare DELETE request against path.
func DeleteRequest(path string) *Request {
	return &Request{Meta: NewRequestMeta("DELETE", path, "HTTP/1.1"), Body: &Body{kind: BodyUnparsed}}
}

// HeadRequest builds a bare HEAD request against path.
func HeadRequest(path string) *Request {
	return &Request{Meta: NewRequestMeta("HEAD", path, "HTTP/1.1"), Body: &Body{kind: BodyUnparsed}}
}
