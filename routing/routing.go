// Package routing implements the URL routing tree: nodes keyed by a
// PathPattern, priority-ordered children (Literal < Regex < Any < AnyPath),
// backtracking segment-by-segment lookup, an ancestor back-link used to
// reach the owning application, and a per-node middleware chain and
// parameter bag inherited at registration time.
package routing

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
	"github.com/Field-of-Dreams-Studio/hotaru-go/pattern"
)

// maxAncestorDepth bounds App() traversal so a corrupted or cyclic ancestor
// chain fails loudly instead of recursing forever.
const maxAncestorDepth = 100

// Handler is the terminal function attached to a node: it consumes a
// request context and returns the context carrying the response.
type Handler[C any] func(ctx C) C

// AppHandle is the thing a tree's root ancestor ultimately resolves to. It
// is kept as a narrow interface so routing does not depend on whatever
// concrete application type embeds it.
type AppHandle interface{}

// Params is a per-node bag of arbitrary registration-time configuration,
// inherited by children and overridable per node.
type Params map[string]interface{}

// Combine returns a new Params with p as the base and override layered on
// top; keys in override win.
func (p Params) Combine(override Params) Params {
	out := make(Params, len(p)+len(override))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// ancestorKind distinguishes what an Url's ancestor back-link points to.
type ancestorKind uint8

const (
	ancestorNil ancestorKind = iota
	ancestorApp
	ancestorParent
)

type ancestor[C any] struct {
	kind   ancestorKind
	app    AppHandle
	parent *Url[C]
}

// Url is one node of the routing tree.
type Url[C any] struct {
	path  pattern.Pattern
	names []*string

	mu       sync.RWMutex
	children []*Url[C]
	ancestor ancestor[C]
	handler  Handler[C]
	chain    middleware.Chain[C]
	params   Params

	appCacheMu sync.RWMutex
	appCache   AppHandle
}

// New creates a detached root node for the given path pattern, typically
// pattern.Literal(""), with no ancestor.
func New[C any](path pattern.Pattern) *Url[C] {
	return &Url[C]{
		path:   path,
		params: Params{},
	}
}

// Dangling returns a sentinel leaf with no handler, no children and no
// ancestor. Walk returns it when lookup fails so callers always have a node
// to run; running it surfaces as the protocol's not-found response path.
func Dangling[C any]() *Url[C] {
	return &Url[C]{path: pattern.Any(), params: Params{}}
}

// IsDangling reports whether u is a sentinel leaf with no handler and no
// children, i.e. what Dangling returns or what Walk falls back to.
func (u *Url[C]) IsDangling() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.handler == nil && len(u.children) == 0 && u.ancestor.kind == ancestorNil
}

// Pattern returns the node's own path pattern.
func (u *Url[C]) Pattern() pattern.Pattern {
	return u.path
}

// SegmentIndex returns the index of the declared capture name among this
// node's registered pattern names, or -1 if none declared it.
func (u *Url[C]) SegmentIndex(name string) int {
	for i, n := range u.names {
		if n != nil && *n == name {
			return i
		}
	}
	return -1
}

// NameAt returns the capture name declared at segment index in the path
// that terminates at u, or ("", false) if that segment was unnamed or out
// of range. Index is relative to the whole registered path, matching
// SegmentIndex's numbering.
func (u *Url[C]) NameAt(index int) (string, bool) {
	if index < 0 || index >= len(u.names) {
		return "", false
	}
	n := u.names[index]
	if n == nil {
		return "", false
	}
	return *n, true
}

// SegmentCount returns the number of segments in the path registered down
// to u, i.e. the length of the names list SegmentIndex/NameAt index into.
func (u *Url[C]) SegmentCount() int {
	return len(u.names)
}

// insertOrdered inserts child keeping children sorted by pattern priority:
// Literal, then Regex, then Any, then AnyPath. Stable among equal priority.
func insertOrdered[C any](children []*Url[C], child *Url[C]) []*Url[C] {
	pos := len(children)
	for i, c := range children {
		if child.path.Kind.Priority() < c.path.Kind.Priority() {
			pos = i
			break
		}
	}
	out := make([]*Url[C], 0, len(children)+1)
	out = append(out, children[:pos]...)
	out = append(out, child)
	out = append(out, children[pos:]...)
	return out
}

// findChild returns the existing child whose pattern equals p, if any.
func (u *Url[C]) findChild(p pattern.Pattern) *Url[C] {
	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, c := range u.children {
		if c.path.Equal(p) {
			return c
		}
	}
	return nil
}

// Childbirth creates, or updates in place, a direct child of u for pattern
// p. An existing child keeps its own children and identity (pattern and
// names never change); only its handler, middleware chain and params are
// overwritten. declared may be nil to mean "use u's current chain
// unmodified" at registration time.
func (u *Url[C]) Childbirth(
	p pattern.Pattern,
	names []*string,
	handler Handler[C],
	declared []middleware.Step[C],
	params Params,
) *Url[C] {
	if existing := u.findChild(p); existing != nil {
		existing.mu.Lock()
		existing.handler = handler
		if declared != nil {
			existing.chain = middleware.Resolve(declared, u.rootChain())
		}
		existing.params = u.combineParams(params)
		existing.mu.Unlock()
		return existing
	}

	var chain middleware.Chain[C]
	if declared != nil {
		chain = middleware.Resolve(declared, u.rootChain())
	} else {
		u.mu.RLock()
		chain = u.chain
		u.mu.RUnlock()
	}

	child := &Url[C]{
		path:    p,
		names:   names,
		handler: handler,
		chain:   chain,
		params:  u.combineParams(params),
		ancestor: ancestor[C]{
			kind:   ancestorParent,
			parent: u,
		},
	}

	u.mu.Lock()
	u.children = insertOrdered(u.children, child)
	u.mu.Unlock()

	if app, ok := u.cachedApp(); ok {
		child.setAppCache(app)
	}

	return child
}

// rootChain returns u's own resolved chain, which Childbirth splices into a
// child's Inherit sentinel. For the protocol root this is the root chain;
// for any other node it is the chain that node received when it was
// created or last registered.
func (u *Url[C]) rootChain() middleware.Chain[C] {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.chain
}

// combineParams layers override on top of u's own params.
func (u *Url[C]) combineParams(override Params) Params {
	u.mu.RLock()
	base := u.params
	u.mu.RUnlock()
	return base.Combine(override)
}

// GetOrCreateChild returns the existing child matching p, or creates an
// empty one (no handler, no middleware override, inherited params).
func (u *Url[C]) GetOrCreateChild(p pattern.Pattern) *Url[C] {
	if existing := u.findChild(p); existing != nil {
		return existing
	}
	return u.Childbirth(p, nil, nil, nil, nil)
}

// Register walks/creates nodes along patterns and attaches handler,
// declared middleware and params to the final node. Re-registering an
// identical pattern sequence updates that node in place rather than
// duplicating it.
func (u *Url[C]) Register(
	patterns []pattern.Pattern,
	names []*string,
	handler Handler[C],
	declared []middleware.Step[C],
	params Params,
) (*Url[C], error) {
	if len(patterns) != len(names) {
		return nil, errors.New("routing: pattern and name list length mismatch")
	}
	return u.register(patterns, names, handler, declared, params)
}

// register is the recursive worker for Register. names is carried through
// every recursive step unsliced: only the destination node (the one that
// receives handler) stores the full, path-wide capture-name list, so
// SegmentIndex on that node maps a name to its index across the entire
// registered path, not just its own segment.
func (u *Url[C]) register(
	remaining []pattern.Pattern,
	names []*string,
	handler Handler[C],
	declared []middleware.Step[C],
	params Params,
) (*Url[C], error) {
	if len(remaining) == 0 {
		return u.Childbirth(pattern.Literal(""), names, handler, declared, params), nil
	}
	if len(remaining) == 1 {
		return u.Childbirth(remaining[0], names, handler, declared, params), nil
	}

	next := u.GetOrCreateChild(remaining[0])
	return next.register(remaining[1:], names, handler, declared, params)
}

// RegisterPath parses path with pattern.Parse and registers it under u.
func (u *Url[C]) RegisterPath(
	path string,
	handler Handler[C],
	declared []middleware.Step[C],
	params Params,
) (*Url[C], error) {
	patterns, names, err := pattern.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("routing: parsing %q: %w", path, err)
	}
	return u.Register(patterns, names, handler, declared, params)
}

// KillChild removes the direct child matching p. Returns an error if no
// such child exists.
func (u *Url[C]) KillChild(p pattern.Pattern) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, c := range u.children {
		if c.path.Equal(p) {
			u.children = append(u.children[:i], u.children[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("routing: child not found: %s", p)
}

// Walk matches segments against the tree rooted at u, backtracking across
// priority-ordered siblings (Literal, Regex, Any, AnyPath in that order) so
// a more specific sibling that fails deeper in the tree does not preclude a
// lower-priority sibling from matching. Returns Dangling() if no node
// matches.
func (u *Url[C]) Walk(segments []string) *Url[C] {
	found := u.walk(segments)
	if found == nil {
		return Dangling[C]()
	}
	return found
}

func (u *Url[C]) walk(segments []string) *Url[C] {
	if len(segments) == 0 {
		return u
	}

	this := segments[0]
	rest := segments[1:]

	u.mu.RLock()
	children := make([]*Url[C], len(u.children))
	copy(children, u.children)
	u.mu.RUnlock()

	for _, child := range children {
		if !child.path.Matches(this) {
			continue
		}
		if child.path.Kind == pattern.KindAnyPath {
			return child
		}
		if len(rest) == 0 {
			return child
		}
		if result := child.walk(rest); result != nil {
			return result
		}
	}

	return nil
}

// WalkPath splits a request path on '/' and calls Walk.
func (u *Url[C]) WalkPath(path string) *Url[C] {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return u.Walk(nil)
	}
	return u.Walk(strings.Split(trimmed, "/"))
}

// Handler returns the node's attached terminal handler, or nil.
func (u *Url[C]) Handler() Handler[C] {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.handler
}

// Chain returns the node's resolved middleware chain.
func (u *Url[C]) Chain() middleware.Chain[C] {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.chain
}

// SetChain sets the node's own resolved middleware chain directly, with no
// sentinel resolution. Used to install a protocol's root-level chain, which
// descendants then inherit via the Inherit sentinel at registration time.
func (u *Url[C]) SetChain(chain middleware.Chain[C]) {
	u.mu.Lock()
	u.chain = chain
	u.mu.Unlock()
}

// Run executes the node's middleware chain around its handler. A node with
// no handler runs notFound instead.
func (u *Url[C]) Run(ctx C, notFound Handler[C]) C {
	handler := u.Handler()
	final := notFound
	if handler != nil {
		final = handler
	}
	return middleware.Run(u.Chain(), final, ctx)
}

// SetApp attaches app as the ancestor of u (making u a protocol root) and
// propagates the cache to every descendant.
func (u *Url[C]) SetApp(app AppHandle) {
	u.mu.Lock()
	u.ancestor = ancestor[C]{kind: ancestorApp, app: app}
	u.mu.Unlock()
	u.setAppCache(app)
}

func (u *Url[C]) setAppCache(app AppHandle) {
	u.appCacheMu.Lock()
	u.appCache = app
	u.appCacheMu.Unlock()

	u.mu.RLock()
	children := make([]*Url[C], len(u.children))
	copy(children, u.children)
	u.mu.RUnlock()

	for _, c := range children {
		c.setAppCache(app)
	}
}

func (u *Url[C]) cachedApp() (AppHandle, bool) {
	u.appCacheMu.RLock()
	defer u.appCacheMu.RUnlock()
	return u.appCache, u.appCache != nil
}

// App resolves the owning application by walking the ancestor chain,
// consulting the cache first. Returns an error if the chain exceeds
// maxAncestorDepth (a circular reference) or terminates without an App
// ancestor.
func (u *Url[C]) App() (AppHandle, error) {
	if app, ok := u.cachedApp(); ok {
		return app, nil
	}
	app, err := u.appWithDepth(0)
	if err != nil {
		return nil, err
	}
	u.setAppCache(app)
	return app, nil
}

func (u *Url[C]) appWithDepth(depth int) (AppHandle, error) {
	if depth > maxAncestorDepth {
		return nil, fmt.Errorf("routing: ancestor chain exceeds max depth %d, possible circular reference", maxAncestorDepth)
	}

	u.mu.RLock()
	a := u.ancestor
	u.mu.RUnlock()

	switch a.kind {
	case ancestorApp:
		return a.app, nil
	case ancestorParent:
		return a.parent.appWithDepth(depth + 1)
	default:
		return nil, errors.New("routing: no ancestor found")
	}
}

// String renders a debug view of the node and its subtree.
func (u *Url[C]) String() string {
	u.mu.RLock()
	defer u.mu.RUnlock()

	has := "nil"
	if u.handler != nil {
		has = "set"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Url(%s handler=%s children=%d)", u.path, has, len(u.children))
	return b.String()
}
