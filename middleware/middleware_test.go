package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubCtx struct {
	trail []string
}

func appendStep(name string) Func[*stubCtx] {
	return func(ctx *stubCtx, next Next[*stubCtx]) *stubCtx {
		ctx.trail = append(ctx.trail, name+":before")
		ctx = next(ctx)
		ctx.trail = append(ctx.trail, name+":after")
		return ctx
	}
}

func TestRunComposesRightToLeft(t *testing.T) {
	chain := Chain[*stubCtx]{appendStep("a"), appendStep("b")}
	final := func(ctx *stubCtx) *stubCtx {
		ctx.trail = append(ctx.trail, "final")
		return ctx
	}

	ctx := Run(chain, final, &stubCtx{})

	assert.Equal(t, []string{"a:before", "b:before", "final", "b:after", "a:after"}, ctx.trail)
}

func TestRunEmptyChainCallsFinalDirectly(t *testing.T) {
	final := func(ctx *stubCtx) *stubCtx {
		ctx.trail = append(ctx.trail, "final")
		return ctx
	}
	ctx := Run(Chain[*stubCtx]{}, final, &stubCtx{})
	assert.Equal(t, []string{"final"}, ctx.trail)
}

func TestMiddlewareCanAbortWithoutCallingNext(t *testing.T) {
	abort := func(ctx *stubCtx, next Next[*stubCtx]) *stubCtx {
		ctx.trail = append(ctx.trail, "abort")
		return ctx
	}
	final := func(ctx *stubCtx) *stubCtx {
		ctx.trail = append(ctx.trail, "final")
		return ctx
	}

	ctx := Run(Chain[*stubCtx]{abort}, final, &stubCtx{})

	assert.Equal(t, []string{"abort"}, ctx.trail)
}

func TestResolveSplicesInheritSentinel(t *testing.T) {
	root := []Func[*stubCtx]{appendStep("root1"), appendStep("root2")}
	declared := []Step[*stubCtx]{
		Of(appendStep("local1")),
		Inherit[*stubCtx](),
		Of(appendStep("local2")),
	}

	resolved := Resolve(declared, root)

	assert.Len(t, resolved, 4)
}

func TestResolveWithoutSentinelIgnoresRoot(t *testing.T) {
	root := []Func[*stubCtx]{appendStep("root1")}
	declared := []Step[*stubCtx]{Of(appendStep("local1"))}

	resolved := Resolve(declared, root)

	assert.Len(t, resolved, 1)
}

func TestResolveBareSentinelYieldsRootOnly(t *testing.T) {
	root := []Func[*stubCtx]{appendStep("root1"), appendStep("root2")}
	declared := []Step[*stubCtx]{Inherit[*stubCtx]()}

	resolved := Resolve(declared, root)

	assert.Len(t, resolved, 2)
}
