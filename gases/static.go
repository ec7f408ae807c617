package gases

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"path"
	"strings"

	"github.com/aofei/mimesniffer"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/routing"
)

// StaticConfig defines the config for the static file Handler.
type StaticConfig struct {
	// Root directory from where the static content is served. Required.
	Root string `json:"root"`

	// Index file for serving a directory.
	// Optional. Default value "index.html".
	Index string `json:"index"`

	// Browse enables directory listing when no index file is found.
	// Optional. Default value false.
	Browse bool `json:"browse"`

	// ParamName is the capture name of the trailing "<**path:name>"
	// segment of the route this Handler is registered under, e.g.
	// registering App.GET("/static/<**path:file>", Static(...)) pairs
	// with ParamName "file" (the default).
	ParamName string `json:"param_name"`
}

// DefaultStaticConfig is the default static Handler config.
var DefaultStaticConfig = StaticConfig{
	Index:     "index.html",
	ParamName: "file",
}

// Static returns a Handler that serves static content from root. Unlike a
// Gas, it is terminal — register it directly as a route's Handler with a
// trailing "<**path:file>" segment (e.g.
// App.GET("/static/<**path:file>", Static("./public"))), since serving a
// file does not compose with a downstream handler the way a gas's next()
// does.
func Static(root string) routing.Handler[*httpproto.Context] {
	config := DefaultStaticConfig
	config.Root = root
	return StaticWithConfig(config)
}

// StaticWithConfig returns a static file Handler from config.
// See Static.
func StaticWithConfig(config StaticConfig) routing.Handler[*httpproto.Context] {
	if config.Index == "" {
		config.Index = DefaultStaticConfig.Index
	}
	if config.ParamName == "" {
		config.ParamName = DefaultStaticConfig.ParamName
	}
	fs := http.Dir(config.Root)

	return func(c *httpproto.Context) *httpproto.Context {
		p := c.Param(config.ParamName)
		if p == "" {
			p = c.Request.Path()
			if i := strings.IndexByte(p, '?'); i >= 0 {
				p = p[:i]
			}
		}

		file := path.Clean(p)
		f, err := fs.Open(file)
		if err != nil {
			c.Response = httpproto.NotFound()
			return c
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil {
			c.Response = httpproto.InternalServerError()
			return c
		}

		if fi.IsDir() {
			dir := f
			indexFile := path.Join(file, config.Index)
			indexF, err := fs.Open(indexFile)
			if err == nil {
				defer indexF.Close()
				if _, err := indexF.Stat(); err == nil {
					return serveFile(c, indexF)
				}
			}
			if config.Browse {
				return serveDirectoryListing(c, dir)
			}
			c.Response = httpproto.NotFound()
			return c
		}

		return serveFile(c, f)
	}
}

func serveFile(c *httpproto.Context, f http.File) *httpproto.Context {
	data, err := ioutil.ReadAll(f)
	if err != nil {
		c.Response = httpproto.InternalServerError()
		return c
	}
	resp := httpproto.OK(httpproto.BinaryBody(data))
	resp.ContentType(mimesniffer.Sniff(data))
	c.Response = resp
	return c
}

func serveDirectoryListing(c *httpproto.Context, dir http.File) *httpproto.Context {
	entries, err := dir.Readdir(-1)
	if err != nil {
		c.Response = httpproto.InternalServerError()
		return c
	}

	var buf strings.Builder
	fmt.Fprint(&buf, "<pre>\n")
	for _, entry := range entries {
		name := entry.Name()
		color := "#212121"
		if entry.IsDir() {
			color = "#e91e63"
			name += "/"
		}
		fmt.Fprintf(&buf, "<a href=\"%s\" style=\"color: %s;\">%s</a>\n", name, color, name)
	}
	fmt.Fprint(&buf, "</pre>\n")

	resp := httpproto.OK(httpproto.TextBody(buf.String()))
	resp.ContentType("text/html; charset=utf-8")
	c.Response = resp
	return c
}
