// Package middleware implements the ordered interceptor chain that wraps a
// final handler: Handler(ctx, next) -> ctx, composed right-to-left around a
// terminal handler, plus the inheritance sentinel used when a node does not
// declare its own chain and instead splices in its protocol-root chain.
package middleware

// Next is the one-shot continuation a middleware calls to proceed to the
// rest of the chain. It consumes a context and yields the context produced
// by the remainder of the pipeline.
type Next[C any] func(ctx C) C

// Func is a single middleware: given a context and the next step, it
// produces the final context for this request. A middleware that wants to
// abort the pipeline writes its terminal response into ctx and returns
// without calling next.
type Func[C any] func(ctx C, next Next[C]) C

// Step is one declared entry in a node's middleware list: either a concrete
// Func or the inherit sentinel. Declared lists are []Step[C] rather than
// []Func[C] so the sentinel can be recognized and spliced out before the
// chain is ever run; Resolve never leaves a Step in the returned chain.
type Step[C any] struct {
	fn      Func[C]
	inherit bool
}

// Of wraps a concrete middleware function as a declared step.
func Of[C any](fn Func[C]) Step[C] {
	return Step[C]{fn: fn}
}

// Inherit returns the sentinel step meaning "splice the protocol-root chain
// in here". It may appear at most once in a declared list.
func Inherit[C any]() Step[C] {
	return Step[C]{inherit: true}
}

// Resolve expands a declared list against the protocol-root chain: the
// sentinel, if present, is replaced in place by root; a declared list with
// no sentinel is returned as its concrete Func list unchanged. The root
// chain is never mutated or re-resolved itself.
func Resolve[C any](declared []Step[C], root []Func[C]) []Func[C] {
	out := make([]Func[C], 0, len(declared)+len(root))
	for _, step := range declared {
		if step.inherit {
			out = append(out, root...)
			continue
		}
		out = append(out, step.fn)
	}
	return out
}

// Chain is a resolved, runnable middleware list: no sentinel remains.
type Chain[C any] []Func[C]

// Run composes chain right-to-left around final and executes it against
// ctx: chain[0] is invoked first, with its next continuation running
// chain[1], and so on until final runs at the tail.
func Run[C any](chain Chain[C], final func(ctx C) C, ctx C) C {
	next := final
	for i := len(chain) - 1; i >= 0; i-- {
		mw := chain[i]
		prevNext := next
		next = func(c C) C {
			return mw(c, prevNext)
		}
	}
	return next(ctx)
}
