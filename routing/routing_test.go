package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
	"github.com/Field-of-Dreams-Studio/hotaru-go/pattern"
)

type testCtx struct {
	matched string
}

func handlerFor(name string) Handler[*testCtx] {
	return func(ctx *testCtx) *testCtx {
		ctx.matched = name
		return ctx
	}
}

func notFound(ctx *testCtx) *testCtx {
	ctx.matched = "404"
	return ctx
}

func TestRegisterPathAndWalk(t *testing.T) {
	root := New[*testCtx](pattern.Literal(""))

	_, err := root.RegisterPath("/users/<id>", handlerFor("user"), nil, nil)
	assert.NoError(t, err)

	node := root.WalkPath("/users/42")
	assert.False(t, node.IsDangling())

	ctx := node.Run(&testCtx{}, notFound)
	assert.Equal(t, "user", ctx.matched)
}

func TestWalkUnmatchedReturnsDangling(t *testing.T) {
	root := New[*testCtx](pattern.Literal(""))
	_, err := root.RegisterPath("/users/<id>", handlerFor("user"), nil, nil)
	assert.NoError(t, err)

	node := root.WalkPath("/nowhere")
	assert.True(t, node.IsDangling())

	ctx := node.Run(&testCtx{}, notFound)
	assert.Equal(t, "404", ctx.matched)
}

func TestLiteralBeatsAnyOnBacktrack(t *testing.T) {
	root := New[*testCtx](pattern.Literal(""))

	_, err := root.RegisterPath("/users/settings", handlerFor("settings"), nil, nil)
	assert.NoError(t, err)
	_, err = root.RegisterPath("/users/<id>", handlerFor("user"), nil, nil)
	assert.NoError(t, err)

	settingsNode := root.WalkPath("/users/settings")
	assert.Equal(t, "settings", settingsNode.Run(&testCtx{}, notFound).matched)

	profileNode := root.WalkPath("/users/99")
	assert.Equal(t, "user", profileNode.Run(&testCtx{}, notFound).matched)
}

func TestBacktrackAcrossFailedDeepMatch(t *testing.T) {
	root := New[*testCtx](pattern.Literal(""))

	// "settings" (literal) matches the literal segment "settings" but has
	// no "extra" child; the walk must backtrack and try the lower-priority
	// <id> sibling, which does.
	_, err := root.RegisterPath("/users/settings", handlerFor("settings-only"), nil, nil)
	assert.NoError(t, err)
	_, err = root.RegisterPath("/users/<id>/extra", handlerFor("id-extra"), nil, nil)
	assert.NoError(t, err)

	node := root.WalkPath("/users/settings/extra")
	assert.Equal(t, "id-extra", node.Run(&testCtx{}, notFound).matched)
}

func TestReRegisterUpdatesInPlace(t *testing.T) {
	root := New[*testCtx](pattern.Literal(""))

	first, err := root.RegisterPath("/health", handlerFor("v1"), nil, nil)
	assert.NoError(t, err)

	second, err := root.RegisterPath("/health", handlerFor("v2"), nil, nil)
	assert.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "v2", second.Run(&testCtx{}, notFound).matched)
}

func TestMiddlewareInheritanceSentinel(t *testing.T) {
	root := New[*testCtx](pattern.Literal(""))
	root.SetChain(middleware.Chain[*testCtx]{
		func(ctx *testCtx, next middleware.Next[*testCtx]) *testCtx {
			ctx.matched += "root,"
			return next(ctx)
		},
	})

	child, err := root.RegisterPath("/ping", handlerFor("ping"), []middleware.Step[*testCtx]{
		middleware.Inherit[*testCtx](),
		middleware.Of(func(ctx *testCtx, next middleware.Next[*testCtx]) *testCtx {
			ctx.matched += "local,"
			return next(ctx)
		}),
	}, nil)
	assert.NoError(t, err)

	ctx := child.Run(&testCtx{}, notFound)
	assert.Equal(t, "root,local,ping", ctx.matched)
}

func TestSetAppPropagatesToDescendants(t *testing.T) {
	root := New[*testCtx](pattern.Literal(""))
	child, err := root.RegisterPath("/a/b", nil, nil, nil)
	assert.NoError(t, err)

	root.SetApp("the-app")

	app, err := child.App()
	assert.NoError(t, err)
	assert.Equal(t, "the-app", app)
}

func TestSegmentIndexFindsDeclaredName(t *testing.T) {
	patterns, names, err := pattern.Parse("/users/<id>")
	assert.NoError(t, err)

	root := New[*testCtx](pattern.Literal(""))
	node, err := root.Register(patterns, names, nil, nil, nil)
	assert.NoError(t, err)

	assert.Equal(t, 1, node.SegmentIndex("id"))
	assert.Equal(t, -1, node.SegmentIndex("missing"))
}

func TestWalkAnyPathConsumesMultiSegmentRemainder(t *testing.T) {
	root := New[*testCtx](pattern.Literal(""))
	_, err := root.RegisterPath("/files/<**path:rest>", handlerFor("static"), nil, nil)
	assert.NoError(t, err)

	node := root.WalkPath("/files/a/b/c")
	assert.False(t, node.IsDangling())

	ctx := node.Run(&testCtx{}, notFound)
	assert.Equal(t, "static", ctx.matched)
}

func TestKillChildRemovesRegisteredRoute(t *testing.T) {
	root := New[*testCtx](pattern.Literal(""))
	_, err := root.RegisterPath("/gone", handlerFor("gone"), nil, nil)
	assert.NoError(t, err)

	assert.NoError(t, root.KillChild(pattern.Literal("gone")))

	node := root.WalkPath("/gone")
	assert.True(t, node.IsDangling())
}
