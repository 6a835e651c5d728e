// Package res contains various resources embedded within xmacro that are
// used elsewhere.
package res

import (
	"crypto/sha1"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	DefaultConfigPath = "default.toml"
	ExampleMacroPath  = "example.xmacro"
)

// DefaultConfig contains the example configuration.
//
//go:embed default.toml
var DefaultConfig []byte

// ExampleMacro contains a short macro script showing each kind of
// instruction.
//
//go:embed example.xmacro
var ExampleMacro []byte

// This variable is intended for packagers. It can be modified using LDFLAGS.
var overrideDataDir string

// GetDataDirectory returns the path to the data directory for xmacro. If an
// override was specified at build time, it will be used. Otherwise,
// $XDG_DATA_HOME/xmacro or $HOME/.local/share/xmacro will be used.
func GetDataDirectory() (string, error) {
	if overrideDataDir != "" {
		return overrideDataDir, nil
	}
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok && dir != "" {
		return filepath.Join(dir, "xmacro"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "xmacro"), nil
}

// WriteResources writes the embedded resources to the data directory. Files
// which already have the right contents are left alone.
func WriteResources() (string, error) {
	dir, err := GetDataDirectory()
	if err != nil {
		return "", errors.Wrap(err, "get data dir")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "create data dir")
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return "", errors.Wrap(err, "access data dir")
	}

	resources := map[string][]byte{
		DefaultConfigPath: DefaultConfig,
		ExampleMacroPath:  ExampleMacro,
	}
	for name, contents := range resources {
		path := filepath.Join(dir, name)
		if file, err := os.ReadFile(path); err == nil && sha1.Sum(contents) == sha1.Sum(file) {
			continue
		}
		if err := os.WriteFile(path, contents, 0644); err != nil {
			return "", errors.Wrapf(err, "write %s", name)
		}
	}
	return dir, nil
}
