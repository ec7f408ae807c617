package httpproto

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// BodyKind tags which variant a Body currently holds.
type BodyKind uint8

const (
	BodyEmpty BodyKind = iota
	BodyUnparsed
	BodyBuffer
	BodyText
	BodyBinary
	BodyForm
	BodyFiles
	BodyJSON
)

const defaultMultipartBoundary = "----DefaultBoundary7MA4YWxkTrZu0gW"

// Body is a tagged union mirroring the shapes a message body can take: a
// raw, not-yet-typed Buffer fresh off the wire, or one of the typed
// variants a Buffer is dispatched into once its content type is known.
type Body struct {
	kind BodyKind

	// Buffer fields.
	data           []byte
	contentType    string
	contentCoding  string

	text   string
	binary []byte
	form   url.Values
	files  *MultiForm
	json   interface{}
}

// MultiForm is a parsed multipart/form-data body: named fields plus named
// file parts.
type MultiForm struct {
	Fields map[string]string
	Files  []FormFile
}

// FormFile is one file part of a multipart/form-data body.
type FormFile struct {
	FieldName string
	FileName  string
	Content   []byte
	MimeType  string
}

func EmptyBody() *Body { return &Body{kind: BodyEmpty} }

func TextBody(s string) *Body { return &Body{kind: BodyText, text: s} }

func BinaryBody(b []byte) *Body { return &Body{kind: BodyBinary, binary: b} }

func JSONBody(v interface{}) *Body { return &Body{kind: BodyJSON, json: v} }

func FormBody(values url.Values) *Body { return &Body{kind: BodyForm, form: values} }

func FilesBody(files *MultiForm) *Body { return &Body{kind: BodyFiles, files: files} }

func (b *Body) Kind() BodyKind { return b.kind }

// ReadBuffer reads a raw request body off r into an untyped Buffer,
// following the Content-Length or chunked Transfer-Encoding framing
// declared by meta, then records its content type and coding for later
// dispatch by ParseBuffer.
func ReadBuffer(r *bufio.Reader, meta *Meta, safety *Safety) (*Body, error) {
	data, err := readBinaryInfo(r, meta, safety)
	if err != nil {
		return nil, err
	}
	ct := meta.ContentType()
	return &Body{kind: BodyBuffer, data: data, contentType: ct, contentCoding: meta.ContentEncoding()}, nil
}

// DirectParse reads a request body off r and immediately dispatches it
// into a typed variant, falling back to Unparsed on any framing error.
func DirectParse(r *bufio.Reader, meta *Meta, safety *Safety) *Body {
	buf, err := ReadBuffer(r, meta, safety)
	if err != nil {
		return &Body{kind: BodyUnparsed}
	}
	return buf.ParseBuffer(safety)
}

func readBinaryInfo(r *bufio.Reader, meta *Meta, safety *Safety) ([]byte, error) {
	var raw []byte
	var err error

	if meta.IsChunked() {
		raw, err = readChunkedBody(r, meta, safety)
	} else {
		length, _ := meta.ContentLength()
		raw, err = readContentLengthBody(r, safety, length)
	}
	if err != nil {
		return nil, err
	}

	return raw, nil
}

func readContentLengthBody(r *bufio.Reader, safety *Safety, contentLength int) ([]byte, error) {
	effective := contentLength
	if max := safety.effectiveMaxBodySize(); effective > max {
		effective = max
	}
	buf := make([]byte, effective)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readChunkedBody decodes a chunked-transfer-encoded body. The cumulative
// size check runs before each chunk's allocation, not after, so a
// declared chunk size alone can never force an over-limit allocation.
func readChunkedBody(r *bufio.Reader, meta *Meta, safety *Safety) ([]byte, error) {
	var body []byte
	currentSize := 0

	for {
		sizeLine, err := readLine(r, safety.effectiveMaxLineLength())
		if err != nil {
			return nil, err
		}
		sizeStr := sizeLine
		if i := strings.IndexByte(sizeStr, ';'); i >= 0 {
			sizeStr = sizeStr[:i] // strip chunk extensions
		}

		chunkSize, err := strconv.ParseInt(strings.TrimSpace(sizeStr), 16, 64)
		if err != nil {
			return nil, fmt.Errorf("httpproto: invalid chunk size %q", sizeLine)
		}
		if chunkSize == 0 {
			break
		}

		currentSize += int(chunkSize)
		if !safety.CheckBodySize(currentSize) {
			return nil, fmt.Errorf("httpproto: chunked body exceeds maximum size")
		}

		chunkData := make([]byte, chunkSize)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return nil, err
		}
		body = append(body, chunkData...)

		var crlf [2]byte
		if _, err := io.ReadFull(r, crlf[:]); err != nil {
			return nil, err
		}
		if crlf[0] != '\r' || crlf[1] != '\n' {
			return nil, fmt.Errorf("httpproto: invalid chunk terminator")
		}
	}

	trailers, err := readHeaders(r, safety)
	if err != nil {
		return nil, fmt.Errorf("httpproto: error parsing trailing headers: %w", err)
	}
	meta.headers = append(meta.headers, trailers...)

	return body, nil
}

func decodeContentCoding(coding string, data []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(coding)) {
	case "", "identity":
		return data, nil
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case "deflate":
		fr := flate.NewReader(bytes.NewReader(data))
		defer fr.Close()
		return io.ReadAll(fr)
	default:
		// Unrecognized or unsupported coding (e.g. brotli, which this
		// build carries no decoder for): yield an empty body rather
		// than the still-compressed bytes, matching the decode-failure
		// behavior for every other coding above.
		return []byte{}, nil
	}
}

func encodeContentCoding(coding string, data []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(coding)) {
	case "", "identity":
		return data, nil
	case "gzip":
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "deflate":
		var buf bytes.Buffer
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(data); err != nil {
			return nil, err
		}
		if err := fw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return data, nil
	}
}

// ParseBuffer dispatches a Buffer variant into a more specific type based
// on its recorded content type. Any other variant is returned unchanged.
func (b *Body) ParseBuffer(safety *Safety) *Body {
	if b.kind != BodyBuffer {
		return b
	}

	if !safety.CheckBodySize(len(b.data)) {
		return &Body{kind: BodyUnparsed}
	}

	data, err := decodeContentCoding(b.contentCoding, b.data)
	if err != nil {
		data = nil
	}

	media := mediaType(b.contentType)
	switch {
	case media == "application/json":
		return parseJSON(data)
	case media == "text/html" || media == "text/plain":
		return parseText(data)
	case media == "application/x-www-form-urlencoded":
		return parseForm(data)
	case strings.HasPrefix(media, "multipart/form-data"):
		return parseFiles(data, boundaryOf(b.contentType))
	default:
		return parseBinary(data)
	}
}

func parseJSON(data []byte) *Body {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		v = ""
	}
	return &Body{kind: BodyJSON, json: v}
}

func parseText(data []byte) *Body {
	return &Body{kind: BodyText, text: string(data)}
}

func parseBinary(data []byte) *Body {
	return &Body{kind: BodyBinary, binary: data}
}

func parseForm(data []byte) *Body {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		values = url.Values{}
	}
	return &Body{kind: BodyForm, form: values}
}

func parseFiles(data []byte, boundary string) *Body {
	return &Body{kind: BodyFiles, files: parseMultiForm(data, boundary)}
}

// IntoStatic renders b to its wire bytes, filling in meta's Content-Length
// and Content-Type when meta doesn't already declare them, then applies
// meta's declared content coding to the result. An auto-filled
// Content-Length is the length after that coding.
func (b *Body) IntoStatic(meta *Meta) []byte {
	var bin []byte
	_, hadLength := meta.ContentLength()

	switch b.kind {
	case BodyText:
		bin = []byte(b.text)
		if _, ok := meta.ContentLength(); !ok {
			meta.SetContentLength(len(bin))
		}
		if meta.ContentType() == "" {
			meta.SetContentType("text/html; charset=utf-8")
		}
	case BodyBinary:
		bin = b.binary
		if _, ok := meta.ContentLength(); !ok {
			meta.SetContentLength(len(bin))
		}
		if meta.ContentType() == "" {
			meta.SetContentType("application/octet-stream")
		}
	case BodyJSON:
		encoded, err := json.Marshal(b.json)
		if err != nil {
			encoded = []byte("null")
		}
		bin = encoded
		if _, ok := meta.ContentLength(); !ok {
			meta.SetContentLength(len(bin))
		}
		if meta.ContentType() == "" {
			meta.SetContentType("application/json")
		}
	case BodyForm:
		bin = []byte(b.form.Encode())
		if _, ok := meta.ContentLength(); !ok {
			meta.SetContentLength(len(bin))
		}
		if meta.ContentType() == "" {
			meta.SetContentType("application/x-www-form-urlencoded")
		}
	case BodyFiles:
		boundary := boundaryOf(meta.ContentType())
		if boundary == "" {
			boundary = defaultMultipartBoundary
		}
		bin = encodeMultiForm(b.files, boundary)
		if _, ok := meta.ContentLength(); !ok {
			meta.SetContentLength(len(bin))
		}
		if meta.ContentType() == "" {
			meta.SetContentType("multipart/form-data; boundary=" + boundary)
		}
	default:
		if _, ok := meta.ContentLength(); !ok {
			meta.SetContentLength(0)
		}
		bin = nil
	}

	encoded, err := encodeContentCoding(meta.ContentEncoding(), bin)
	if err != nil {
		return nil
	}
	if !hadLength {
		meta.SetContentLength(len(encoded))
	}
	return encoded
}

func parseMultiForm(data []byte, boundary string) *MultiForm {
	mf := &MultiForm{Fields: map[string]string{}}
	if boundary == "" {
		return mf
	}

	delimiter := []byte("--" + boundary)
	parts := bytes.Split(data, delimiter)
	for _, part := range parts {
		part = bytes.Trim(part, "\r\n")
		if len(part) == 0 || bytes.Equal(part, []byte("--")) {
			continue
		}

		headerEnd := bytes.Index(part, []byte("\r\n\r\n"))
		if headerEnd < 0 {
			continue
		}
		rawHeaders := string(part[:headerEnd])
		content := part[headerEnd+4:]
		content = bytes.TrimSuffix(content, []byte("\r\n"))

		var fieldName, fileName, mimeType string
		for _, line := range strings.Split(rawHeaders, "\r\n") {
			lower := strings.ToLower(line)
			if strings.HasPrefix(lower, "content-disposition:") {
				fieldName = dispositionParam(line, "name")
				fileName = dispositionParam(line, "filename")
			}
			if strings.HasPrefix(lower, "content-type:") {
				mimeType = strings.TrimSpace(line[len("content-type:"):])
			}
		}

		if fileName != "" {
			mf.Files = append(mf.Files, FormFile{FieldName: fieldName, FileName: fileName, Content: content, MimeType: mimeType})
		} else if fieldName != "" {
			mf.Fields[fieldName] = string(content)
		}
	}
	return mf
}

func dispositionParam(headerLine, param string) string {
	marker := param + `="`
	idx := strings.Index(headerLine, marker)
	if idx < 0 {
		return ""
	}
	rest := headerLine[idx+len(marker):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}

func encodeMultiForm(mf *MultiForm, boundary string) []byte {
	if mf == nil {
		return nil
	}
	var buf bytes.Buffer
	for name, value := range mf.Fields {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Disposition: form-data; name=\"%s\"\r\n\r\n", name)
		buf.WriteString(value)
		buf.WriteString("\r\n")
	}
	for _, f := range mf.Files {
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Disposition: form-data; name=\"%s\"; filename=\"%s\"\r\n", f.FieldName, f.FileName)
		if f.MimeType != "" {
			fmt.Fprintf(&buf, "Content-Type: %s\r\n", f.MimeType)
		}
		buf.WriteString("\r\n")
		buf.Write(f.Content)
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}

func (b *Body) Text() (string, bool) {
	if b.kind != BodyText {
		return "", false
	}
	return b.text, true
}

func (b *Body) Binary() ([]byte, bool) {
	if b.kind != BodyBinary {
		return nil, false
	}
	return b.binary, true
}

func (b *Body) JSONValue() (interface{}, bool) {
	if b.kind != BodyJSON {
		return nil, false
	}
	return b.json, true
}

func (b *Body) FormValues() (url.Values, bool) {
	if b.kind != BodyForm {
		return nil, false
	}
	return b.form, true
}

func (b *Body) MultiFormValue() (*MultiForm, bool) {
	if b.kind != BodyFiles {
		return nil, false
	}
	return b.files, true
}
