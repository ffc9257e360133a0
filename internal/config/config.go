// Package config loads the editor's TOML configuration file and watches
// it for live reload.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the front end's settings, decoded from a TOML file.
type Config struct {
	Core   CoreConfig   `toml:"core"`
	Editor EditorConfig `toml:"editor"`
	Log    LogConfig    `toml:"log"`
}

// CoreConfig tells the front end how to launch the back-end process.
type CoreConfig struct {
	// Command is the core executable, resolved through PATH when not
	// absolute.
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	// ConfigDir is passed to the core in client_started; empty means let
	// the core pick its own.
	ConfigDir string `toml:"config_dir"`
}

// EditorConfig holds display preferences.
type EditorConfig struct {
	Theme     string `toml:"theme"`
	WrapWidth int    `toml:"wrap_width"`
}

// LogConfig controls front-end logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// ParseError reports a configuration file that exists but cannot be
// decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Core: CoreConfig{
			Command: "xi-core",
		},
		Editor: EditorConfig{
			Theme:     "default",
			WrapWidth: 0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the conventional location of the config file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "vex", "config.toml")
}

// Load reads the configuration at path. A missing file is not an error:
// defaults are returned. Unreadable or malformed files return a
// *ParseError alongside the defaults so the caller can keep running.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, &ParseError{Path: path, Err: err}
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), &ParseError{Path: path, Err: err}
	}
	return cfg, nil
}
