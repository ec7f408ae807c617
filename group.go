package hotaru

// Group is a set of sub-routes sharing a path prefix and a gas chain
// inherited from its parent App or Group, mirroring the teacher's Group.
type Group struct {
	app    *App
	prefix string
	gases  []Gas
}

func (g *Group) combined(gases []Gas) []Gas {
	out := make([]Gas, 0, len(g.gases)+len(gases))
	out = append(out, g.gases...)
	out = append(out, gases...)
	return out
}

func (g *Group) GET(path string, h Handler, gases ...Gas) {
	g.app.GET(g.prefix+path, h, g.combined(gases)...)
}

func (g *Group) HEAD(path string, h Handler, gases ...Gas) {
	g.app.HEAD(g.prefix+path, h, g.combined(gases)...)
}

func (g *Group) POST(path string, h Handler, gases ...Gas) {
	g.app.POST(g.prefix+path, h, g.combined(gases)...)
}

func (g *Group) PUT(path string, h Handler, gases ...Gas) {
	g.app.PUT(g.prefix+path, h, g.combined(gases)...)
}

func (g *Group) PATCH(path string, h Handler, gases ...Gas) {
	g.app.PATCH(g.prefix+path, h, g.combined(gases)...)
}

func (g *Group) DELETE(path string, h Handler, gases ...Gas) {
	g.app.DELETE(g.prefix+path, h, g.combined(gases)...)
}

func (g *Group) OPTIONS(path string, h Handler, gases ...Gas) {
	g.app.OPTIONS(g.prefix+path, h, g.combined(gases)...)
}

// Group creates a sub-group nested under g, combining prefixes and gases.
func (g *Group) Group(prefix string, gases ...Gas) *Group {
	return &Group{app: g.app, prefix: g.prefix + prefix, gases: g.combined(gases)}
}
