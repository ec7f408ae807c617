package hotaru

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"golang.org/x/crypto/acme/autocert"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
	"github.com/Field-of-Dreams-Studio/hotaru-go/pattern"
	"github.com/Field-of-Dreams-Studio/hotaru-go/protocol"
	"github.com/Field-of-Dreams-Studio/hotaru-go/routing"
)

// Handler serves one matched route: it consumes the request context and
// returns the context carrying the response, same shape as routing.Handler
// instantiated for the HTTP/1.1 Context.
type Handler = routing.Handler[*httpproto.Context]

// Gas is a single middleware step, instantiated for the HTTP/1.1 Context.
// The name is kept from the teacher for familiarity; the type underneath is
// middleware.Func.
type Gas = middleware.Func[*httpproto.Context]

// App is the top-level struct of the framework: it owns the routing tree
// rooted at HTTP/1.1, a protocol registry so other protocols (see wsproto,
// h2proto, grpcproto, tcpproto) can share the same listener, a Logger, and
// the object Pool. It corresponds to the teacher's Air.
type App struct {
	Config *Config
	Logger *Logger

	// Gases is the chain installed as the HTTP root's own middleware
	// chain; every route registered with Inherit() in its declared list
	// splices this chain in at registration time. The teacher's
	// Pregases/Gases split (before/after routing) collapses into this one
	// inherited chain: the new middleware model has no before-routing
	// phase distinct from the matched route's own chain. Gases installed
	// here therefore do not run for a path that walks to no node: that
	// request reaches the Dangling sentinel, which carries no chain, and
	// the built-in 404 runs without them.
	Gases []Gas

	NotFoundHandler Handler

	root     *routing.Url[*httpproto.Context]
	registry *protocol.Registry
	http     *httpproto.Server
	pool     *Pool

	listeners   []net.Listener
	listenerMu  sync.Mutex
	shutdownJobs []func()
	shutdownMu   sync.Mutex
}

// Default is the default instance of the App.
var Default = New("hotaru")

// New returns a new App named appName with default Config.
func New(appName string) *App {
	return NewWithConfig(NewConfig(appName))
}

// NewWithConfig returns a new App using the given Config.
func NewWithConfig(cfg *Config) *App {
	root := routing.New[*httpproto.Context](pattern.Literal(""))

	a := &App{
		Config:          cfg,
		NotFoundHandler: DefaultNotFoundHandler,
		root:            root,
		registry:        protocol.NewRegistry(),
		pool:            newPool(),
	}
	a.Logger = NewLogger(cfg.AppName, cfg.LogFormat, &cfg.DebugMode)

	a.http = &httpproto.Server{Safety: httpproto.NewSafety(), KeepAliveRequests: cfg.KeepAliveRequests}
	protocol.Register[*httpproto.Context](a.registry, a.http, root)
	a.registry.AttachApp(a)

	return a
}

// DefaultNotFoundHandler writes a 404 response.
func DefaultNotFoundHandler(c *httpproto.Context) *httpproto.Context {
	c.Response = httpproto.NotFound()
	return c
}

// Use appends gases to the App's root chain and re-installs it. Call
// before registering routes that rely on Inherit() picking up the full
// list — Inherit splices the chain as declared at registration time, not
// by later reference.
func (a *App) Use(gases ...Gas) {
	a.Gases = append(a.Gases, gases...)
	a.root.SetChain(middleware.Chain[*httpproto.Context](a.Gases))
}

func (a *App) declare(gases []Gas) []middleware.Step[*httpproto.Context] {
	steps := make([]middleware.Step[*httpproto.Context], 0, len(gases)+1)
	steps = append(steps, middleware.Inherit[*httpproto.Context]())
	for _, g := range gases {
		steps = append(steps, middleware.Of(g))
	}
	return steps
}

func (a *App) register(method, path string, h Handler, gases ...Gas) {
	wrapped := func(c *httpproto.Context) *httpproto.Context {
		if c.Request.Method() != method {
			c.Response = httpproto.MethodNotAllowed()
			return c
		}
		return h(c)
	}
	if _, err := a.root.RegisterPath(path, wrapped, a.declare(gases), nil); err != nil {
		a.Logger.Errorf("hotaru: registering route %s %s: %v", method, path, err)
	}
}

func (a *App) GET(path string, h Handler, gases ...Gas)     { a.register("GET", path, h, gases...) }
func (a *App) HEAD(path string, h Handler, gases ...Gas)    { a.register("HEAD", path, h, gases...) }
func (a *App) POST(path string, h Handler, gases ...Gas)    { a.register("POST", path, h, gases...) }
func (a *App) PUT(path string, h Handler, gases ...Gas)     { a.register("PUT", path, h, gases...) }
func (a *App) PATCH(path string, h Handler, gases ...Gas)   { a.register("PATCH", path, h, gases...) }
func (a *App) DELETE(path string, h Handler, gases ...Gas)  { a.register("DELETE", path, h, gases...) }
func (a *App) OPTIONS(path string, h Handler, gases ...Gas) { a.register("OPTIONS", path, h, gases...) }

// Group returns a new Group rooted at prefix, inheriting the App's gases.
func (a *App) Group(prefix string, gases ...Gas) *Group {
	return &Group{app: a, prefix: prefix, gases: gases}
}

// Registry exposes the protocol registry so other protocol packages
// (wsproto, h2proto, grpcproto, tcpproto) can register their own root next
// to the HTTP/1.1 one sharing the same listener.
func (a *App) Registry() *protocol.Registry { return a.registry }

// Root exposes the HTTP/1.1 routing tree root for protocols that need to
// attach sibling nodes, such as a WebSocket upgrade target mounted under
// the same path space.
func (a *App) Root() *routing.Url[*httpproto.Context] { return a.root }

// Pool exposes the App's Request/Context object pool so a custom Handler
// can reuse allocations. The HTTP/1.1 dispatch path does not draw from it;
// it allocates a fresh Request and Context per request.
func (a *App) Pool() *Pool { return a.pool }

// AddShutdownJob registers f to run once when Shutdown is called.
func (a *App) AddShutdownJob(f func()) {
	a.shutdownMu.Lock()
	defer a.shutdownMu.Unlock()
	a.shutdownJobs = append(a.shutdownJobs, f)
}

// Serve starts accepting connections on Config.Address and dispatches each
// one through the protocol registry. It blocks until the listener is
// closed (by Close/Shutdown) or ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	ln, err := a.listen()
	if err != nil {
		return err
	}

	a.listenerMu.Lock()
	a.listeners = append(a.listeners, ln)
	a.listenerMu.Unlock()

	if a.Config.DebugMode {
		a.Logger.Info("hotaru: serving in debug mode on", ln.Addr().String())
	}

	return a.registry.Serve(ctx, ln, a, a.Config.ReadTimeout)
}

func (a *App) listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", a.Config.Address)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := a.tlsConfig()
	if err != nil {
		ln.Close()
		return nil, err
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}
	return ln, nil
}

// tlsConfig builds a TLS configuration from the static certificate pair in
// Config. Returns nil when no pair is configured, meaning Serve listens in
// plaintext. autocert provisioning is only available through ServeACME,
// which Serve does not use.
func (a *App) tlsConfig() (*tls.Config, error) {
	if a.Config.TLSCertFile != "" && a.Config.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(a.Config.TLSCertFile, a.Config.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("hotaru: loading TLS key pair: %w", err)
		}
		return &tls.Config{Certificates: []tls.Certificate{cert}}, nil
	}
	return nil, nil
}

// ServeACME is a convenience that builds an autocert.Manager rooted at
// certRoot for hosts and returns a TLS config driven by it, for callers
// that want Let's Encrypt-style provisioning instead of a static cert pair.
func ServeACME(certRoot string, hosts ...string) *tls.Config {
	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(certRoot),
		HostPolicy: autocert.HostWhitelist(hosts...),
	}
	return m.TLSConfig()
}

// Close closes every listener the App opened, immediately.
func (a *App) Close() error {
	a.listenerMu.Lock()
	defer a.listenerMu.Unlock()
	var firstErr error
	for _, ln := range a.listeners {
		if err := ln.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Shutdown closes listeners and runs every registered shutdown job
// concurrently, waiting for them all to finish or for ctx to expire.
func (a *App) Shutdown(ctx context.Context) error {
	closeErr := a.Close()

	a.shutdownMu.Lock()
	jobs := a.shutdownJobs
	a.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, job := range jobs {
			job := job
			wg.Add(1)
			go func() {
				defer wg.Done()
				job()
			}()
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return closeErr
	}
}
