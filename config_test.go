package hotaru

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig("myapp")
	assert.Equal(t, "myapp", c.AppName)
	assert.Equal(t, "localhost:8080", c.Address)
	assert.Equal(t, defaultLogFormat, c.LogFormat)
	assert.Equal(t, 1<<20, c.MaxHeaderBytes)
}

func TestConfigLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.toml")
	err := ioutil.WriteFile(path, []byte("AppName = \"from-toml\"\nAddress = \"0.0.0.0:9090\"\nDebugMode = true\n"), 0o644)
	assert.NoError(t, err)

	c := NewConfig("placeholder")
	assert.NoError(t, c.Load(path))
	assert.Equal(t, "from-toml", c.AppName)
	assert.Equal(t, "0.0.0.0:9090", c.Address)
	assert.True(t, c.DebugMode)
}

func TestConfigLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	err := ioutil.WriteFile(path, []byte("AppName: from-yaml\nAddress: 127.0.0.1:7070\n"), 0o644)
	assert.NoError(t, err)

	c := NewConfig("placeholder")
	assert.NoError(t, c.Load(path))
	assert.Equal(t, "from-yaml", c.AppName)
	assert.Equal(t, "127.0.0.1:7070", c.Address)
}

func TestConfigLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.ini")
	assert.NoError(t, ioutil.WriteFile(path, []byte("x"), 0o644))

	c := NewConfig("placeholder")
	assert.Error(t, c.Load(path))
}

func TestConfigLoadMissingFile(t *testing.T) {
	c := NewConfig("placeholder")
	assert.Error(t, c.Load(filepath.Join(os.TempDir(), "does-not-exist.toml")))
}
