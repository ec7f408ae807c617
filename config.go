package hotaru

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

// Config is the set of configurations for an App. Zero value is usable;
// NewConfig and Config.Load fill in the rest.
type Config struct {
	AppName string

	DebugMode bool

	// LogFormat is the text/template source the Logger renders a log line
	// from.
	LogFormat string

	Address string

	TLSCertFile string
	TLSKeyFile  string

	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration

	MaxHeaderBytes int

	// KeepAliveRequests caps requests served per connection, 0 means
	// unlimited. Threaded into httpproto.Server.
	KeepAliveRequests int

	// Raw is the generic map a loaded config file decoded into, before
	// mapstructure typed it into the fields above. Kept so callers can
	// also see keys this Config doesn't declare a field for.
	Raw map[string]interface{}
}

// defaultLogFormat matches the teacher's JSON-shaped default.
const defaultLogFormat = `{"app_name":"{{.app_name}}","time":"{{.time_rfc3339}}",` +
	`"level":"{{.level}}","file":"{{.short_file}}","line":"{{.line}}"}`

// NewConfig returns a Config with built-in defaults and the given app name.
func NewConfig(appName string) *Config {
	return &Config{
		AppName:        appName,
		LogFormat:      defaultLogFormat,
		Address:        "localhost:8080",
		MaxHeaderBytes: 1 << 20,
	}
}

// Load reads path and decodes it over c, dispatching on file extension:
// ".toml" via BurntSushi/toml, ".yaml"/".yml" via gopkg.in/yaml.v2. The
// decoded generic map is typed onto c with mitchellh/mapstructure and kept
// verbatim in c.Raw.
func (c *Config) Load(path string) error {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}

	m := map[string]interface{}{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(b, &m)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &m)
	default:
		err = fmt.Errorf("hotaru: unsupported configuration file extension: %s", ext)
	}
	if err != nil {
		return err
	}

	if err := mapstructure.Decode(m, c); err != nil {
		return err
	}
	c.Raw = m
	return nil
}
