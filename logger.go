package hotaru

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"time"
)

// Logger logs information generated at runtime. It mirrors the teacher's
// logger.go exactly: leveled, each level with a plain and a structured (j)
// variant, rendered through a text/template format string and gated by
// DebugMode/enabled. No external logging library is used.
type Logger struct {
	appName string
	enabled *bool

	template   *template.Template
	format     string
	bufferPool *sync.Pool
	mutex      *sync.Mutex

	Output io.Writer
}

type loggerLevel uint8

const (
	lvlDebug loggerLevel = iota
	lvlInfo
	lvlWarn
	lvlError
	lvlFatal
)

var loggerLevelNames = []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// NewLogger returns a Logger for appName, rendering format (empty means
// defaultLogFormat), writing to os.Stdout until Output is reassigned.
// enabled is read on every call so toggling App.Config.DebugMode at
// runtime takes effect without rebuilding the Logger.
func NewLogger(appName, format string, enabled *bool) *Logger {
	if format == "" {
		format = defaultLogFormat
	}
	return &Logger{
		appName: appName,
		enabled: enabled,
		format:  format,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 256))
			},
		},
		mutex:  &sync.Mutex{},
		Output: os.Stdout,
	}
}

func (l *Logger) Print(i ...interface{})                 { fmt.Fprintln(l.Output, i...) }
func (l *Logger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(l.Output, format+"\n", args...)
}
func (l *Logger) Printj(m map[string]interface{}) { json.NewEncoder(l.Output).Encode(m) }

func (l *Logger) Debug(i ...interface{})                    { l.log(lvlDebug, "", i...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(lvlDebug, format, args...) }
func (l *Logger) Debugj(m map[string]interface{})           { l.log(lvlDebug, "json", m) }

func (l *Logger) Info(i ...interface{})                    { l.log(lvlInfo, "", i...) }
func (l *Logger) Infof(format string, args ...interface{}) { l.log(lvlInfo, format, args...) }
func (l *Logger) Infoj(m map[string]interface{})           { l.log(lvlInfo, "json", m) }

func (l *Logger) Warn(i ...interface{})                    { l.log(lvlWarn, "", i...) }
func (l *Logger) Warnf(format string, args ...interface{}) { l.log(lvlWarn, format, args...) }
func (l *Logger) Warnj(m map[string]interface{})           { l.log(lvlWarn, "json", m) }

func (l *Logger) Error(i ...interface{})                    { l.log(lvlError, "", i...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(lvlError, format, args...) }
func (l *Logger) Errorj(m map[string]interface{})           { l.log(lvlError, "json", m) }

func (l *Logger) Fatal(i ...interface{}) {
	l.log(lvlFatal, "", i...)
	os.Exit(1)
}
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log(lvlFatal, format, args...)
	os.Exit(1)
}
func (l *Logger) Fatalj(m map[string]interface{}) {
	l.log(lvlFatal, "json", m)
	os.Exit(1)
}

func (l *Logger) log(lvl loggerLevel, format string, args ...interface{}) {
	if l.enabled != nil && !*l.enabled {
		return
	}
	if l.template == nil {
		l.template = template.Must(template.New("logger").Parse(l.format))
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	buf := l.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		l.bufferPool.Put(buf)
	}()

	message := ""
	switch format {
	case "":
		message = strings.TrimSuffix(fmt.Sprintln(args...), "\n")
	case "json":
		b, _ := json.Marshal(args[0])
		message = string(b)
	default:
		message = fmt.Sprintf(format, args...)
	}

	_, file, line, _ := runtime.Caller(2)

	data := map[string]interface{}{
		"app_name":     l.appName,
		"time_rfc3339": time.Now().Format(time.RFC3339),
		"level":        loggerLevelNames[lvl],
		"short_file":   path.Base(file),
		"long_file":    file,
		"line":         strconv.Itoa(line),
	}

	if err := l.template.Execute(buf, data); err != nil {
		return
	}

	s := buf.String()
	if n := buf.Len(); n > 0 && s[n-1] == '}' {
		buf.Truncate(n - 1)
		buf.WriteByte(',')
		if format == "json" {
			buf.WriteString(message[1:])
		} else {
			buf.WriteString(`"message":"`)
			buf.WriteString(message)
			buf.WriteString(`"}`)
		}
	} else {
		buf.WriteByte(' ')
		buf.WriteString(message)
	}
	buf.WriteByte('\n')
	l.Output.Write(buf.Bytes())
}
