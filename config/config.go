package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/tysh/errors"
)

// Mode is a tri-state switch for terminal features.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeOn   Mode = "on"
	ModeOff  Mode = "off"
)

// Resolve reports whether the feature is on, deciding auto with detected.
func (m Mode) Resolve(detected bool) bool {
	switch m {
	case ModeOn:
		return true
	case ModeOff:
		return false
	default:
		return detected
	}
}

func (m Mode) valid() bool {
	return m == ModeAuto || m == ModeOn || m == ModeOff
}

// Config is the full configuration.
type Config struct {
	Shell  Shell  `toml:"shell"`
	Layout Layout `toml:"layout"`
	Cache  Cache  `toml:"cache"`
	Log    Log    `toml:"log"`
}

// Shell configures the interactive session.
type Shell struct {
	Prompt      string `toml:"prompt"`
	Color       Mode   `toml:"color"`
	UI          Mode   `toml:"ui"`
	HistorySize int    `toml:"history_size"`
}

// Layout configures size and alignment queries.
type Layout struct {
	PointerSize int `toml:"pointer_size"`
	MaxDepth    int `toml:"max_depth"`
}

// Cache configures the snapshot cache.
type Cache struct {
	Dir     string `toml:"dir"`
	Enabled bool   `toml:"enabled"`
}

// Log configures diagnostics on stderr.
type Log struct {
	Level string `toml:"level"`
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Shell: Shell{
			Prompt:      ">> ",
			Color:       ModeAuto,
			UI:          ModeAuto,
			HistorySize: 500,
		},
		Layout: Layout{MaxDepth: 64},
		Log:    Log{Level: "warn"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/tysh/config.toml, falling back to
// ~/.config/tysh/config.toml.
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "locate config directory")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "tysh", "config.toml"), nil
}

// Load reads the file at path over the defaults. An empty path reads the
// default location, where a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && stderrors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(path).
			Cause(err).
			Detail("%s: failed to parse TOML", path).
			Build()
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.InvalidInput(errors.PhaseConfig, path,
			fmt.Sprintf("%s: unknown keys: %s", path, strings.Join(keys, ", ")))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values and numeric ranges.
func (c Config) Validate() error {
	if !c.Shell.Color.valid() {
		return invalid("shell.color", string(c.Shell.Color), "want auto, on or off")
	}
	if !c.Shell.UI.valid() {
		return invalid("shell.ui", string(c.Shell.UI), "want auto, on or off")
	}
	if c.Shell.HistorySize < 0 {
		return invalid("shell.history_size", fmt.Sprint(c.Shell.HistorySize), "must not be negative")
	}
	if c.Layout.PointerSize < 0 {
		return invalid("layout.pointer_size", fmt.Sprint(c.Layout.PointerSize), "must not be negative")
	}
	if c.Layout.MaxDepth < 1 {
		return invalid("layout.max_depth", fmt.Sprint(c.Layout.MaxDepth), "must be at least 1")
	}
	for _, l := range logLevels {
		if c.Log.Level == l {
			return nil
		}
	}
	return invalid("log.level", c.Log.Level, "want one of "+strings.Join(logLevels, ", "))
}

func invalid(key, value, want string) error {
	return errors.InvalidInput(errors.PhaseConfig, value, fmt.Sprintf("%s = %q: %s", key, value, want))
}
