package httpproto

// Default safety limits, applied whenever the corresponding Safety field is
// unset.
const (
	DefaultMaxBodySize   = 10 * 1024 * 1024 // 10 MiB
	DefaultMaxHeaderSize = 1024 * 1024      // 1 MiB
	DefaultMaxLineLength = 64 * 1024        // 64 KiB
	DefaultMaxHeaders    = 100
)

// Safety centralizes the request-parsing limits and optional allow-lists.
// Every field is a pointer so "unset" (use the default, or "allow all" for
// the lists) is distinguishable from "explicitly set to the zero value".
// Request timeouts are deliberately not modeled here: they're enforced once
// per connection at the protocol registry layer, not per request.
type Safety struct {
	maxBodySize         *int
	maxHeaderSize       *int
	maxLineLength       *int
	maxHeaders          *int
	allowedMethods      []string
	allowedContentTypes []string
}

// NewSafety returns a Safety with every field unset (all defaults, no
// allow-list restrictions).
func NewSafety() *Safety {
	return &Safety{}
}

func intPtr(v int) *int { return &v }

func (s *Safety) effectiveMaxBodySize() int {
	if s.maxBodySize != nil {
		return *s.maxBodySize
	}
	return DefaultMaxBodySize
}

func (s *Safety) effectiveMaxHeaderSize() int {
	if s.maxHeaderSize != nil {
		return *s.maxHeaderSize
	}
	return DefaultMaxHeaderSize
}

func (s *Safety) effectiveMaxLineLength() int {
	if s.maxLineLength != nil {
		return *s.maxLineLength
	}
	return DefaultMaxLineLength
}

func (s *Safety) effectiveMaxHeaders() int {
	if s.maxHeaders != nil {
		return *s.maxHeaders
	}
	return DefaultMaxHeaders
}

// CheckBodySize reports whether size is within the effective body limit.
func (s *Safety) CheckBodySize(size int) bool { return size <= s.effectiveMaxBodySize() }

// CheckHeaderSize reports whether size is within the effective header
// section limit.
func (s *Safety) CheckHeaderSize(size int) bool { return size <= s.effectiveMaxHeaderSize() }

// CheckLineLength reports whether size is within the effective line limit.
func (s *Safety) CheckLineLength(size int) bool { return size <= s.effectiveMaxLineLength() }

// CheckHeaderCount reports whether count is within the effective header
// count limit.
func (s *Safety) CheckHeaderCount(count int) bool { return count <= s.effectiveMaxHeaders() }

// CheckMethod reports whether method is allowed. An unset allow-list means
// every method is allowed; this is a policy default, not a security
// control, the same way an unset content-type allow-list is.
func (s *Safety) CheckMethod(method string) bool {
	if s.allowedMethods == nil {
		return true
	}
	for _, m := range s.allowedMethods {
		if m == method {
			return true
		}
	}
	return false
}

// CheckContentType reports whether contentType is allowed, by the same
// allow-all-unless-restricted policy as CheckMethod. contentType is matched
// against the allow-list by its media type only (parameters like charset
// or boundary are ignored).
func (s *Safety) CheckContentType(contentType string) bool {
	if s.allowedContentTypes == nil {
		return true
	}
	media := mediaType(contentType)
	for _, ct := range s.allowedContentTypes {
		if ct == media {
			return true
		}
	}
	return false
}

// WithMaxBodySize sets the body size limit and returns s for chaining.
func (s *Safety) WithMaxBodySize(size int) *Safety {
	s.maxBodySize = intPtr(size)
	return s
}

// WithMaxHeaderSize sets the header section size limit.
func (s *Safety) WithMaxHeaderSize(size int) *Safety {
	s.maxHeaderSize = intPtr(size)
	return s
}

// WithMaxLineLength sets the single-line length limit.
func (s *Safety) WithMaxLineLength(size int) *Safety {
	s.maxLineLength = intPtr(size)
	return s
}

// WithMaxHeaders sets the header count limit.
func (s *Safety) WithMaxHeaders(count int) *Safety {
	s.maxHeaders = intPtr(count)
	return s
}

// WithAllowedMethods restricts accepted methods to methods.
func (s *Safety) WithAllowedMethods(methods ...string) *Safety {
	s.allowedMethods = append([]string(nil), methods...)
	return s
}

// WithAllowedContentTypes restricts accepted request content types to
// types.
func (s *Safety) WithAllowedContentTypes(types ...string) *Safety {
	s.allowedContentTypes = append([]string(nil), types...)
	return s
}

// Update overlays every explicitly set field of source onto s, leaving s's
// unset fields untouched where source also leaves them unset.
func (s *Safety) Update(source *Safety) {
	if source.maxBodySize != nil {
		s.maxBodySize = intPtr(*source.maxBodySize)
	}
	if source.maxHeaderSize != nil {
		s.maxHeaderSize = intPtr(*source.maxHeaderSize)
	}
	if source.maxLineLength != nil {
		s.maxLineLength = intPtr(*source.maxLineLength)
	}
	if source.maxHeaders != nil {
		s.maxHeaders = intPtr(*source.maxHeaders)
	}
	if source.allowedMethods != nil {
		s.allowedMethods = append([]string(nil), source.allowedMethods...)
	}
	if source.allowedContentTypes != nil {
		s.allowedContentTypes = append([]string(nil), source.allowedContentTypes...)
	}
}

// Merge combines other into s using "most restrictive wins": size limits
// take the minimum of the two effective values, and allow-lists take the
// intersection (an unset list is treated as "everything", so intersecting
// with an unset list keeps the other side's list as-is).
func (s *Safety) Merge(other *Safety) {
	s.maxBodySize = intPtr(minInt(s.effectiveMaxBodySize(), other.effectiveMaxBodySize()))
	s.maxHeaderSize = intPtr(minInt(s.effectiveMaxHeaderSize(), other.effectiveMaxHeaderSize()))
	s.maxLineLength = intPtr(minInt(s.effectiveMaxLineLength(), other.effectiveMaxLineLength()))
	s.maxHeaders = intPtr(minInt(s.effectiveMaxHeaders(), other.effectiveMaxHeaders()))

	s.allowedMethods = intersectOrEither(s.allowedMethods, other.allowedMethods)
	s.allowedContentTypes = intersectOrEither(s.allowedContentTypes, other.allowedContentTypes)
}

func intersectOrEither(a, b []string) []string {
	switch {
	case a != nil && b != nil:
		out := make([]string, 0, len(a))
		for _, x := range a {
			for _, y := range b {
				if x == y {
					out = append(out, x)
					break
				}
			}
		}
		return out
	case a != nil:
		return a
	case b != nil:
		return b
	default:
		return nil
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
