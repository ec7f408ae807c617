// Package pattern compiles route pattern strings, such as
// "/users/<int:id>/posts/<**path:rest>", into the typed segment matchers the
// URL tree uses for registration and lookup.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the variant of a compiled path segment matcher.
type Kind uint8

// Segment kinds, ordered by matching priority: a node of a lower Kind is
// always tried before a node of a higher one.
const (
	KindLiteral Kind = iota
	KindRegex
	KindAny
	KindAnyPath
)

// Priority returns the matching priority of k. Lower sorts first.
func (k Kind) Priority() int {
	return int(k)
}

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "Literal"
	case KindRegex:
		return "Regex"
	case KindAny:
		return "Any"
	case KindAnyPath:
		return "AnyPath"
	default:
		return "Unknown"
	}
}

// Pattern is a single compiled path segment matcher.
type Pattern struct {
	Kind    Kind
	Literal string // set when Kind == KindLiteral
	Source  string // regex source, set when Kind == KindRegex

	re *regexp.Regexp
}

// Literal builds a Pattern that matches a single exact segment.
func Literal(s string) Pattern { return Pattern{Kind: KindLiteral, Literal: s} }

// Any builds a Pattern that matches exactly one non-slash segment.
func Any() Pattern { return Pattern{Kind: KindAny} }

// AnyPath builds a Pattern that consumes the remainder of a path.
func AnyPath() Pattern { return Pattern{Kind: KindAnyPath} }

// Regex builds a Pattern matching the segment against a full-anchored regex.
func Regex(src string) Pattern {
	p := Pattern{Kind: KindRegex, Source: src}
	p.re = regexp.MustCompile("^(?:" + src + ")$")
	return p
}

// Equal reports structural equality, used for route-tree child dedup.
func (p Pattern) Equal(o Pattern) bool {
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case KindLiteral:
		return p.Literal == o.Literal
	case KindRegex:
		return p.Source == o.Source
	default:
		return true
	}
}

// Matches reports whether seg satisfies the Pattern. AnyPath always matches
// (it is only ever consulted as the last resort by the routing walk).
func (p Pattern) Matches(seg string) bool {
	switch p.Kind {
	case KindLiteral:
		return p.Literal == seg
	case KindAny:
		return true
	case KindAnyPath:
		return true
	case KindRegex:
		if p.re == nil {
			p.re = regexp.MustCompile("^(?:" + p.Source + ")$")
		}
		return p.re.MatchString(seg)
	}
	return false
}

func (p Pattern) String() string {
	switch p.Kind {
	case KindLiteral:
		return p.Literal
	case KindRegex:
		return "<" + p.Source + ">"
	case KindAny:
		return "<any>"
	case KindAnyPath:
		return "<**path>"
	}
	return "?"
}

// typeRegex maps the recognized angle-group type keywords to their regex
// bodies. Path is handled separately since it never expands to a regex.
var typeRegex = map[string]string{
	"int":     `-?\d+`,
	"uint":    `\d+`,
	"decimal": `-?\d+(?:\.\d+)?`,
	"str":     `[^/]+`,
	"uuid":    `(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`,
}

// ParseError describes a structural problem in a pattern string.
type ParseError struct {
	Index   int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pattern: %s at index %d", e.Message, e.Index)
}

// segToken is one piece parsed out of a single path segment: either raw
// literal text, or a dynamic angle-group contributing a regex fragment (or
// an Any/AnyPath marker).
type segToken struct {
	literal string
	dynKind Kind    // KindAny, KindRegex, or KindAnyPath when this is dynamic; KindLiteral otherwise
	regex   string  // regex fragment for KindRegex
	name    *string // capture name, if declared
}

// Parse compiles a route pattern string into its per-segment matchers and
// the parallel name list: names[i] is the capture name declared for
// patterns[i], or nil if that segment declares none. len(names) always
// equals len(patterns).
func Parse(input string) ([]Pattern, []*string, error) {
	segments, err := splitSegments(input)
	if err != nil {
		return nil, nil, err
	}

	patterns := make([]Pattern, 0, len(segments))
	names := make([]*string, 0, len(segments))

	for _, seg := range segments {
		toks, err := parseSegment(seg.text, seg.start)
		if err != nil {
			return nil, nil, err
		}

		pat, name, err := reduceSegment(toks, seg.start)
		if err != nil {
			return nil, nil, err
		}

		patterns = append(patterns, pat)
		names = append(names, name)
	}

	return patterns, names, nil
}

type rawSegment struct {
	text  string
	start int
}

// splitSegments splits the input on '/' that occurs outside angle groups,
// honoring "\<" / "\>" as escaped literal angle characters (the escape is
// kept in the segment text for parseSegment to resolve). A trailing '/'
// produces an explicit empty final segment (Literal("")).
func splitSegments(input string) ([]rawSegment, error) {
	var segs []rawSegment
	start := 0
	depth := 0
	cur := strings.Builder{}
	segStart := 0

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\\' && i+1 < len(runes) && (runes[i+1] == '<' || runes[i+1] == '>') {
			cur.WriteRune(c)
			cur.WriteRune(runes[i+1])
			i++
			continue
		}
		if c == '<' {
			depth++
			cur.WriteRune(c)
			continue
		}
		if c == '>' {
			if depth > 0 {
				depth--
			}
			cur.WriteRune(c)
			continue
		}
		if c == '/' && depth == 0 {
			segs = append(segs, rawSegment{text: cur.String(), start: segStart})
			cur.Reset()
			segStart = i + 1
			continue
		}
		cur.WriteRune(c)
	}
	segs = append(segs, rawSegment{text: cur.String(), start: segStart})

	if depth != 0 {
		return nil, &ParseError{Index: start, Message: "unterminated angle group"}
	}

	// A leading "/" produces an empty first segment that carries no
	// meaning (the route always starts at the tree root); drop it.
	if len(segs) > 0 && segs[0].text == "" && strings.HasPrefix(input, "/") {
		segs = segs[1:]
	}

	return segs, nil
}

// parseSegment tokenizes the content of a single path segment into a
// left-to-right list of literal runs and dynamic angle-groups.
func parseSegment(text string, base int) ([]segToken, error) {
	var toks []segToken
	lit := strings.Builder{}
	flush := func() {
		if lit.Len() > 0 {
			toks = append(toks, segToken{literal: lit.String()})
			lit.Reset()
		}
	}

	runes := []rune(text)
	for i := 0; i < len(runes); {
		if runes[i] == '\\' && i+1 < len(runes) && (runes[i+1] == '<' || runes[i+1] == '>') {
			lit.WriteRune(runes[i+1])
			i += 2
			continue
		}
		if runes[i] != '<' {
			lit.WriteRune(runes[i])
			i++
			continue
		}

		flush()
		close := indexOf(runes, i+1, '>')
		if close < 0 {
			return nil, &ParseError{Index: base + i, Message: "unterminated angle group"}
		}
		body := string(runes[i+1 : close])
		tok, err := parseAngleBody(body, base+i+1)
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		i = close + 1
	}
	flush()

	return toks, nil
}

func indexOf(runes []rune, from int, target rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}
	return -1
}

// parseAngleBody interprets the content between < and > of a single
// dynamic group: "**path[:name]", "str" with no name (unnamed wildcard),
// "type[:name]", "name" (bare wildcard),
// "||...||[:name]" (pipe-delimited raw regex), or a free-form regex body
// terminated by ":" or end-of-group.
func parseAngleBody(body string, base int) (segToken, error) {
	if body == "" {
		return segToken{}, &ParseError{Index: base, Message: "empty angle group"}
	}

	if strings.HasPrefix(body, "**") {
		rest := body[2:]
		name := strings.TrimPrefix(rest, "path")
		if !strings.HasPrefix(rest, "path") {
			return segToken{}, &ParseError{Index: base, Message: "expected 'path' after '**'"}
		}
		var namePtr *string
		if strings.HasPrefix(name, ":") {
			n := name[1:]
			if n == "" {
				return segToken{}, &ParseError{Index: base, Message: "expected identifier after ':'"}
			}
			namePtr = &n
		} else if name != "" {
			return segToken{}, &ParseError{Index: base, Message: "unexpected content after '**path'"}
		}
		return segToken{dynKind: KindAnyPath, name: namePtr}, nil
	}

	if body[0] == '|' {
		n := 1
		for n < len(body) && body[n] == '|' {
			n++
		}
		delim := strings.Repeat("|", n)
		rest := body[n:]
		end := strings.Index(rest, delim)
		if end < 0 {
			return segToken{}, &ParseError{Index: base, Message: "missing closing pipes"}
		}
		raw := rest[:end]
		tail := rest[end+n:]
		namePtr, err := parseNameTail(tail, base)
		if err != nil {
			return segToken{}, err
		}
		return segToken{dynKind: KindRegex, regex: raw, name: namePtr}, nil
	}

	// Either "type[:name]", a bare "name" (Any), or a free-form regex
	// body ending at the first ':'.
	colon := strings.IndexByte(body, ':')
	head := body
	tail := ""
	if colon >= 0 {
		head = body[:colon]
		tail = body[colon:]
	}

	if head == "str" && colon < 0 {
		return segToken{dynKind: KindAny}, nil
	}

	if rx, ok := typeRegex[head]; ok {
		namePtr, err := parseNameTail(tail, base)
		if err != nil {
			return segToken{}, err
		}
		return segToken{dynKind: KindRegex, regex: rx, name: namePtr}, nil
	}

	if colon < 0 && isIdent(head) {
		name := head
		return segToken{dynKind: KindAny, name: &name}, nil
	}

	// Free-form regex with no recognized type keyword.
	namePtr, err := parseNameTail(tail, base)
	if err != nil {
		return segToken{}, err
	}
	return segToken{dynKind: KindRegex, regex: head, name: namePtr}, nil
}

func parseNameTail(tail string, base int) (*string, error) {
	if tail == "" {
		return nil, nil
	}
	if tail[0] != ':' {
		return nil, &ParseError{Index: base, Message: "expected ':' before name"}
	}
	n := tail[1:]
	if n == "" || !isIdent(n) {
		return nil, &ParseError{Index: base, Message: "expected identifier after ':'"}
	}
	return &n, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

// reduceSegment turns the per-segment token list into exactly one Pattern
// plus its capture name (if any). A segment with a single dynamic token and
// no surrounding literal text keeps that token's kind (Any/Regex/AnyPath);
// anything mixing literal text with dynamic content collapses into one
// Regex with the literal parts escaped.
func reduceSegment(toks []segToken, base int) (Pattern, *string, error) {
	if len(toks) == 0 {
		return Literal(""), nil, nil
	}

	for _, t := range toks {
		if t.dynKind == KindAnyPath && len(toks) != 1 {
			return Pattern{}, nil, &ParseError{Index: base, Message: "AnyPath must be the sole content of its segment"}
		}
	}

	if len(toks) == 1 {
		t := toks[0]
		switch t.dynKind {
		case KindAnyPath:
			return AnyPath(), t.name, nil
		case KindAny:
			return Any(), t.name, nil
		case KindRegex:
			return Regex(t.regex), t.name, nil
		default:
			return Literal(t.literal), nil, nil
		}
	}

	// Mixed literal + dynamic content: collapse to a single Regex.
	var b strings.Builder
	var name *string
	for _, t := range toks {
		switch t.dynKind {
		case KindRegex:
			b.WriteString("(?:" + t.regex + ")")
		case KindAny:
			b.WriteString(`[^/]+`)
		case KindLiteral:
			if t.dynKind == 0 && t.literal == "" && t.regex == "" && t.name == nil {
				// plain literal run
			}
			b.WriteString(regexp.QuoteMeta(t.literal))
		}
		if t.name != nil {
			name = t.name
		}
	}
	return Regex(b.String()), name, nil
}

// Substitute renders a concrete path from parsed patterns, the parallel name
// list returned by Parse, and a set of named values. AnyPath consumes the
// remainder verbatim (its leading '/' stripped) and ends substitution.
func Substitute(patterns []Pattern, names []*string, values map[string]string) (string, error) {
	if len(patterns) != len(names) {
		return "", fmt.Errorf("pattern: pattern and name list length mismatch")
	}

	segs := make([]string, 0, len(patterns))

	for i, p := range patterns {
		switch p.Kind {
		case KindLiteral:
			segs = append(segs, p.Literal)
		case KindAny, KindRegex:
			if names[i] == nil {
				return "", fmt.Errorf("pattern: missing parameter name at segment %d", i)
			}
			v, ok := values[*names[i]]
			if !ok {
				return "", fmt.Errorf("pattern: missing parameter %q", *names[i])
			}
			segs = append(segs, v)
		case KindAnyPath:
			if names[i] == nil {
				return "", fmt.Errorf("pattern: missing parameter name at segment %d", i)
			}
			v, ok := values[*names[i]]
			if !ok {
				return "", fmt.Errorf("pattern: missing parameter %q", *names[i])
			}
			segs = append(segs, strings.TrimPrefix(v, "/"))
			return "/" + strings.Join(segs, "/"), nil
		}
	}

	if len(segs) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(segs, "/"), nil
}
