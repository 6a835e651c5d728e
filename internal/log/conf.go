package log

import (
	"os"
	"path/filepath"
	"sync"
)

// LogConf stores the configuration a named Logger is built from.
type LogConf struct {
	LogLevel       LogLevel
	FilePath       string // Empty for DefaultPath(name)
	DisableConsole bool
}

var (
	registry   = make(map[string]*Logger)
	registryMu sync.Mutex
)

// DefaultPath returns the log file used when none is configured:
// $XMACRO_LOG_PATH, or <name>.log in the temporary directory.
func DefaultPath(name string) string {
	if path, ok := os.LookupEnv("XMACRO_LOG_PATH"); ok && path != "" {
		return path
	}
	return filepath.Join(os.TempDir(), name+".log")
}

// DefaultLogger creates a Logger writing to the configured log file and,
// unless disabled, standard error. The Logger is registered under name so
// that it can be retrieved with FromName.
func DefaultLogger(name string, conf LogConf) (*Logger, error) {
	path := conf.FilePath
	if path == "" {
		path = DefaultPath(name)
	}
	file, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	sinks := []Sink{file}
	if !conf.DisableConsole {
		sinks = append(sinks, Stderr())
	}
	logger := NewLogger(conf.LogLevel, sinks...)
	Register(name, logger)
	return logger, nil
}

// Register makes the logger available through FromName.
func Register(name string, logger *Logger) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = logger
}

// FromName returns the logger registered under name. If there is none, a
// logger writing only to standard error is returned.
func FromName(name string) *Logger {
	registryMu.Lock()
	defer registryMu.Unlock()
	if logger, ok := registry[name]; ok {
		return logger
	}
	return NewLogger(INFO, Stderr())
}
