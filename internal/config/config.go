// Package config loads and validates qtranscode's TOML configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Logging controls log verbosity and output format.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Defaults holds the codec and speed defaults applied when flags are omitted.
type Defaults struct {
	AudioCodec   string `toml:"audio_codec"`
	VideoCodec   string `toml:"video_codec"`
	EncoderSpeed int    `toml:"encoder_speed"`
}

// History controls the per-run history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Process controls scheduling behaviour of the run.
type Process struct {
	Niceness int `toml:"niceness"`
}

// Config is the root configuration document.
type Config struct {
	Logging  Logging  `toml:"logging"`
	Defaults Defaults `toml:"defaults"`
	History  History  `toml:"history"`
	Process  Process  `toml:"process"`
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	return filepath.Join(configHome(), "qtranscode", "config.toml")
}

func configHome() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}

// Load reads the config at path, or defaults when path is empty and no file
// exists at the conventional location. An explicit path that is missing is an
// error; a missing default file is not.
func Load(path string) (*Config, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample config to path, refusing to clobber
// an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
