package gases

import (
	"bytes"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"text/template"
	"time"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
)

type (
	// LoggerConfig defines the config for the access-log gas.
	LoggerConfig struct {
		Skipper Skipper

		// Format is a text/template body evaluated against a map carrying
		// time_rfc3339, remote_ip, host, uri, method, path, status, latency,
		// latency_human, rx_bytes, tx_bytes.
		// Optional. Default value DefaultLoggerConfig.Format.
		Format string `json:"format"`

		// Output is a writer where logs are written.
		// Optional. Default value os.Stdout.
		Output io.Writer

		template   *template.Template
		bufferPool sync.Pool
	}
)

// DefaultLoggerConfig is the default access-log gas config.
var DefaultLoggerConfig = LoggerConfig{
	Skipper: defaultSkipper,
	Format: `{"time":"{{.time_rfc3339}}","remote_ip":"{{.remote_ip}}",` +
		`"method":"{{.method}}","uri":"{{.uri}}","status":{{.status}},` +
		`"latency":{{.latency}},"latency_human":"{{.latency_human}}",` +
		`"rx_bytes":{{.rx_bytes}},"tx_bytes":{{.tx_bytes}}}` + "\n",
	Output: os.Stdout,
}

// Logger returns a gas that logs one line per request after the rest of
// the chain has run.
func Logger() middleware.Func[*httpproto.Context] {
	return LoggerWithConfig(DefaultLoggerConfig)
}

// LoggerWithConfig returns an access-log gas from config.
// See Logger.
func LoggerWithConfig(config LoggerConfig) middleware.Func[*httpproto.Context] {
	if config.Skipper == nil {
		config.Skipper = DefaultLoggerConfig.Skipper
	}
	if config.Format == "" {
		config.Format = DefaultLoggerConfig.Format
	}
	if config.Output == nil {
		config.Output = DefaultLoggerConfig.Output
	}

	config.template = template.Must(template.New("access-log").Parse(config.Format))
	config.bufferPool = sync.Pool{
		New: func() interface{} {
			return new(bytes.Buffer)
		},
	}

	return func(c *httpproto.Context, next middleware.Next[*httpproto.Context]) *httpproto.Context {
		if config.Skipper(c) {
			return next(c)
		}

		start := time.Now()
		c = next(c)
		stop := time.Now()

		remoteIP := remoteAddress(c)
		if ip := c.Request.Meta.Header("X-Real-IP"); ip != "" {
			remoteIP = ip
		} else if ip := c.Request.Meta.Header("X-Forwarded-For"); ip != "" {
			remoteIP = ip
		}

		rxBytes := c.Request.Meta.Header("Content-Length")
		if rxBytes == "" {
			rxBytes = "0"
		}

		txBytes := 0
		if bin := c.Response.Body.IntoStatic(c.Response.Meta); bin != nil {
			txBytes = len(bin)
		}

		data := map[string]interface{}{
			"time_rfc3339":  stop.Format(time.RFC3339),
			"remote_ip":     remoteIP,
			"host":          c.Request.Meta.Header("Host"),
			"uri":           c.Request.Path(),
			"method":        c.Request.Method(),
			"path":          c.Request.Path(),
			"status":        c.Response.Meta.Start.StatusCode,
			"latency":       stop.Sub(start).Microseconds(),
			"latency_human": stop.Sub(start).String(),
			"rx_bytes":      rxBytes,
			"tx_bytes":      txBytes,
		}

		buf := config.bufferPool.Get().(*bytes.Buffer)
		buf.Reset()
		defer config.bufferPool.Put(buf)

		if err := config.template.Execute(buf, data); err == nil {
			config.Output.Write(buf.Bytes())
		}

		return c
	}
}

// remoteAddress reads the peer address off the connection's underlying
// net.Conn, stripping the port the same way the teacher's RemoteAddress
// accessor did.
func remoteAddress(c *httpproto.Context) string {
	if c.Stream == nil {
		return ""
	}
	addr := c.Stream.Conn().RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
