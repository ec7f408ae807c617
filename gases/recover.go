package gases

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/Field-of-Dreams-Studio/hotaru-go/httpproto"
	"github.com/Field-of-Dreams-Studio/hotaru-go/middleware"
)

type (
	// RecoverConfig defines the config for the recover gas.
	RecoverConfig struct {
		Skipper Skipper

		// Size of the stack to be printed.
		// Optional. Default value 4KB.
		StackSize int `json:"stack_size"`

		// DisableStackAll disables formatting stack traces of all other
		// goroutines into the buffer after the trace for the current one.
		// Optional. Default value false.
		DisableStackAll bool `json:"disable_stack_all"`

		// DisablePrintStack disables printing the recovered stack trace.
		// Optional. Default value false.
		DisablePrintStack bool `json:"disable_print_stack"`

		// Output is where the recovered panic and its stack are written.
		// Optional. Default value os.Stderr.
		Output io.Writer
	}
)

// DefaultRecoverConfig is the default recover gas config.
var DefaultRecoverConfig = RecoverConfig{
	Skipper:           defaultSkipper,
	StackSize:         4 << 10, // 4 KB
	DisableStackAll:   false,
	DisablePrintStack: false,
	Output:            os.Stderr,
}

func (c *RecoverConfig) fill() {
	if c.Skipper == nil {
		c.Skipper = DefaultRecoverConfig.Skipper
	}
	if c.StackSize == 0 {
		c.StackSize = DefaultRecoverConfig.StackSize
	}
	if c.Output == nil {
		c.Output = DefaultRecoverConfig.Output
	}
}

// Recover returns a gas that converts a panic anywhere downstream of it
// into a 500 response instead of taking down the connection's handling
// goroutine.
func Recover() middleware.Func[*httpproto.Context] {
	return RecoverWithConfig(DefaultRecoverConfig)
}

// RecoverWithConfig returns a recover gas from config.
// See Recover.
func RecoverWithConfig(config RecoverConfig) middleware.Func[*httpproto.Context] {
	config.fill()

	return func(c *httpproto.Context, next middleware.Next[*httpproto.Context]) (out *httpproto.Context) {
		if config.Skipper(c) {
			return next(c)
		}

		defer func() {
			r := recover()
			if r == nil {
				return
			}

			var err error
			switch r := r.(type) {
			case error:
				err = r
			default:
				err = fmt.Errorf("%v", r)
			}

			if !config.DisablePrintStack {
				stack := make([]byte, config.StackSize)
				length := runtime.Stack(stack, !config.DisableStackAll)
				fmt.Fprintf(config.Output, "[PANIC RECOVER] %s %s\n", err, stack[:length])
			}

			c.Response = httpproto.InternalServerError()
			out = c
		}()

		return next(c)
	}
}
