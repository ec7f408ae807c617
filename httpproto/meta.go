package httpproto

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// StartLine is either a request line (method, path, version) or a status
// line (version, status code, reason), distinguished by IsRequest.
type StartLine struct {
	IsRequest bool

	Method  string
	Path    string
	Version string

	StatusCode int
	Reason     string
}

// Meta holds everything about a message except its body: the start line,
// headers (in arrival order, case-insensitively keyed) and a lazily parsed
// cookie jar.
type Meta struct {
	Start   StartLine
	headers []headerField
	cookies []*Cookie
}

type headerField struct {
	key   string
	value string
}

// NewRequestMeta returns Meta for an outgoing or synthetic request.
func NewRequestMeta(method, path, version string) *Meta {
	return &Meta{Start: StartLine{IsRequest: true, Method: method, Path: path, Version: version}}
}

// NewResponseMeta returns Meta for an outgoing or synthetic response.
func NewResponseMeta(version string, statusCode int, reason string) *Meta {
	return &Meta{Start: StartLine{IsRequest: false, Version: version, StatusCode: statusCode, Reason: reason}}
}

// Header returns the first value for key, case-insensitively, or "".
func (m *Meta) Header(key string) string {
	key = strings.ToLower(key)
	for _, h := range m.headers {
		if h.key == key {
			return h.value
		}
	}
	return ""
}

// Headers returns every value for key, case-insensitively, in arrival
// order.
func (m *Meta) Headers(key string) []string {
	key = strings.ToLower(key)
	var out []string
	for _, h := range m.headers {
		if h.key == key {
			out = append(out, h.value)
		}
	}
	return out
}

// SetHeader replaces every existing value for key with a single value.
func (m *Meta) SetHeader(key, value string) {
	key = strings.ToLower(key)
	out := m.headers[:0]
	for _, h := range m.headers {
		if h.key != key {
			out = append(out, h)
		}
	}
	m.headers = append(out, headerField{key: key, value: value})
}

// AddHeader appends an additional value for key without removing existing
// ones (used for repeatable headers like Set-Cookie).
func (m *Meta) AddHeader(key, value string) {
	m.headers = append(m.headers, headerField{key: strings.ToLower(key), value: value})
}

// HeaderCount returns how many header fields (not distinct keys) are set.
func (m *Meta) HeaderCount() int {
	return len(m.headers)
}

func (m *Meta) ContentType() string {
	return m.Header("content-type")
}

func (m *Meta) SetContentType(ct string) {
	m.SetHeader("Content-Type", ct)
}

func (m *Meta) ContentLength() (int, bool) {
	v := m.Header("content-length")
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (m *Meta) SetContentLength(n int) {
	m.SetHeader("Content-Length", strconv.Itoa(n))
}

func (m *Meta) IsChunked() bool {
	return strings.EqualFold(m.Header("transfer-encoding"), "chunked")
}

func (m *Meta) ContentEncoding() string {
	return m.Header("content-encoding")
}

// Cookies lazily parses and returns the request's Cookie header.
func (m *Meta) Cookies() []*Cookie {
	if m.cookies == nil {
		if h := m.Header("cookie"); h != "" {
			m.cookies = parseCookieHeader(h)
		}
	}
	return m.cookies
}

// AddCookie appends a Set-Cookie response header for cookie.
func (m *Meta) AddCookie(cookie *Cookie) {
	if s := cookie.String(); s != "" {
		m.AddHeader("Set-Cookie", s)
	}
}

// mediaType strips parameters (";charset=...", ";boundary=...") from a
// Content-Type-shaped header value.
func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}

// boundaryOf extracts the "boundary" parameter from a multipart
// Content-Type header value.
func boundaryOf(contentType string) string {
	parts := strings.Split(contentType, ";")
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(strings.ToLower(p), "boundary=") {
			return strings.Trim(p[len("boundary="):], `"`)
		}
	}
	return ""
}

// readLine reads a single CRLF- or LF-terminated line, enforcing maxLen as
// a hard cap on bytes read before the LF is found (a CR ahead of the LF
// counts toward the cap). Bytes are read one
// at a time so an unterminated or over-long line is rejected as soon as the
// cap is hit, rather than first being buffered in full.
func readLine(r *bufio.Reader, maxLen int) (string, error) {
	var b strings.Builder
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if c == '\n' {
			break
		}
		if b.Len() >= maxLen {
			return "", fmt.Errorf("httpproto: line exceeds %d bytes", maxLen)
		}
		b.WriteByte(c)
	}
	return strings.TrimRight(b.String(), "\r\n"), nil
}

// readStartLine reads and parses the first line of a message as a request
// line. Parsing is permissive about the HTTP version token and keeps any
// method token as-is (upper-cased) rather than erroring on a method this
// build doesn't recognize by name — only malformed structure (wrong field
// count) fails.
func readStartLine(r *bufio.Reader, safety *Safety) (StartLine, error) {
	line, err := readLine(r, safety.effectiveMaxLineLength())
	if err != nil {
		return StartLine{}, err
	}

	fields := strings.Split(line, " ")
	if len(fields) != 3 {
		return StartLine{}, fmt.Errorf("httpproto: malformed start line %q", line)
	}

	return StartLine{
		IsRequest: true,
		Method:    strings.ToUpper(fields[0]),
		Path:      fields[1],
		Version:   fields[2],
	}, nil
}

// readHeaders reads header fields up to the blank line terminator,
// enforcing per-line length, cumulative header-section size, and header
// count limits before any value is handed to the caller. A folded header
// line (one starting with whitespace, continuing the previous value) is
// rejected rather than unfolded, per modern HTTP's prohibition on obsolete
// line folding.
func readHeaders(r *bufio.Reader, safety *Safety) ([]headerField, error) {
	var headers []headerField
	total := 0

	for {
		line, err := readLine(r, safety.effectiveMaxLineLength())
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}

		if line[0] == ' ' || line[0] == '\t' {
			return nil, fmt.Errorf("httpproto: obsolete header line folding is not supported")
		}

		total += len(line) + 2
		if !safety.CheckHeaderSize(total) {
			return nil, fmt.Errorf("httpproto: header section exceeds %d bytes", safety.effectiveMaxHeaderSize())
		}

		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, fmt.Errorf("httpproto: malformed header line %q", line)
		}

		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		value := strings.TrimSpace(line[colon+1:])
		headers = append(headers, headerField{key: key, value: value})

		if !safety.CheckHeaderCount(len(headers)) {
			return nil, fmt.Errorf("httpproto: too many headers, limit is %d", safety.effectiveMaxHeaders())
		}
	}

	return headers, nil
}

// sortedHeaderKeys returns the distinct header keys in first-seen order.
// Nothing in this package calls it; WriteTo renders the header list as
// stored, repeats included.
func (m *Meta) sortedHeaderKeys() []string {
	seen := map[string]bool{}
	var keys []string
	for _, h := range m.headers {
		if !seen[h.key] {
			seen[h.key] = true
			keys = append(keys, h.key)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool { return false }) // preserve arrival order
	return keys
}
