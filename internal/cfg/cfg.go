// Package cfg allows for reading the user's configuration.
package cfg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/tesselslate/xmacro/internal/log"
	"github.com/tesselslate/xmacro/internal/playback"
	"github.com/tesselslate/xmacro/internal/record"
	"github.com/tesselslate/xmacro/internal/res"
)

// Playback contains the playback settings.
type Playback struct {
	OnInvalid  string `toml:"on_invalid"`  // "abort" or "skip"
	EventDelay uint32 `toml:"event_delay"` // XTEST delay for each event
}

// Record contains the recording settings.
type Record struct {
	Keys         string  `toml:"keys"`          // "sym" or "code"
	Motion       bool    `toml:"motion"`        // Record pointer motion
	Delays       bool    `toml:"delays"`        // Record time between events
	StopKey      StopKey `toml:"stop_key"`      // Preselected stop key
	PollInterval int     `toml:"poll_interval"` // Idle pause between polls
	DrainTimeout int     `toml:"drain_timeout"` // Time to wait for trailing events
}

// Log contains the logging settings.
type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

// Profile contains an entire configuration profile.
type Profile struct {
	Display  string   `toml:"display"` // Empty for $DISPLAY
	Playback Playback `toml:"playback"`
	Record   Record   `toml:"record"`
	Log      Log      `toml:"log"`
}

// GetDirectory returns the path to the user's configuration directory.
func GetDirectory() (string, error) {
	// UserConfigDir checks $XDG_CONFIG_HOME and falls back to $HOME/.config.
	xdgDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgDir, "xmacro"), nil
}

// GetPath returns the path to the user's configuration file.
func GetPath() (string, error) {
	dir, err := GetDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns the default configuration profile.
func Default() (Profile, error) {
	profile := Profile{}
	if err := decode(res.DefaultConfig, &profile); err != nil {
		return Profile{}, errors.Wrap(err, "parse default config")
	}
	return profile, nil
}

// Load returns the parsed configuration profile at path. If path is empty,
// the user's configuration file is used, or the defaults if there is none.
// Options missing from the file keep their default values.
func Load(path string) (Profile, error) {
	if path == "" {
		p, err := GetPath()
		if err != nil {
			return Profile{}, errors.Wrap(err, "get config path")
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return Default()
		}
		path = p
	}
	file, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.Wrap(err, "read config file")
	}
	profile, err := Default()
	if err != nil {
		return Profile{}, err
	}
	if err := decode(file, &profile); err != nil {
		return Profile{}, errors.Wrapf(err, "parse config file %s", path)
	}
	if err := validateProfile(&profile); err != nil {
		return Profile{}, errors.Wrap(err, "validate config")
	}
	return profile, nil
}

// MakeProfile writes the default configuration to the user's configuration
// file and returns its path. An existing file is not overwritten.
func MakeProfile() (string, error) {
	path, err := GetPath()
	if err != nil {
		return "", errors.Wrap(err, "get config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.Wrap(err, "create config directory")
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", errors.Wrap(err, "create config file")
	}
	if _, err := file.Write(res.DefaultConfig); err != nil {
		file.Close()
		return "", errors.Wrap(err, "write config file")
	}
	return path, file.Close()
}

// Validate checks the profile after it has been modified, e.g. by command
// line flags.
func (p *Profile) Validate() error {
	return validateProfile(p)
}

// Policy returns the playback policy for malformed lines.
func (p *Profile) Policy() playback.Policy {
	if p.Playback.OnInvalid == "skip" {
		return playback.Skip
	}
	return playback.Abort
}

// RecordOptions returns the options for a record.Engine.
func (p *Profile) RecordOptions() record.Options {
	keys := record.Symbols
	if p.Record.Keys == "code" {
		keys = record.Codes
	}
	return record.Options{
		Keys:         keys,
		Motion:       p.Record.Motion,
		Delays:       p.Record.Delays,
		PollInterval: time.Duration(p.Record.PollInterval) * time.Millisecond,
		DrainTimeout: time.Duration(p.Record.DrainTimeout) * time.Millisecond,
	}
}

// LogConf returns the logger configuration.
func (p *Profile) LogConf() log.LogConf {
	level, err := log.ParseLevel(p.Log.Level)
	if err != nil {
		level = log.INFO
	}
	return log.LogConf{
		LogLevel: level,
		FilePath: p.Log.Path,
	}
}

// decode unmarshals data over the existing values of profile. Unknown options
// are an error.
func decode(data []byte, profile *Profile) error {
	meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(profile)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return errors.Errorf("unknown options: %s", strings.Join(keys, ", "))
	}
	return nil
}

// validateProfile ensures that the user's configuration profile does not have
// any illegal or invalid settings.
func validateProfile(conf *Profile) error {
	switch conf.Playback.OnInvalid {
	case "abort", "skip":
	default:
		return errors.Errorf("invalid on_invalid setting %q", conf.Playback.OnInvalid)
	}

	switch conf.Record.Keys {
	case "sym", "code":
	default:
		return errors.Errorf("invalid keys setting %q", conf.Record.Keys)
	}
	if conf.Record.PollInterval <= 0 {
		return errors.New("invalid poll interval")
	}
	if conf.Record.PollInterval > 100 {
		log.FromName("xmacro").Warn("Very high poll interval in config. Consider decreasing.")
	}
	if conf.Record.DrainTimeout <= 0 {
		return errors.New("invalid drain timeout")
	}

	if _, err := log.ParseLevel(conf.Log.Level); err != nil {
		return err
	}
	return nil
}
