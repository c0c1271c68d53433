package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultLogLevel     = "info"
	defaultAudioCodec   = "opus"
	defaultVideoCodec   = "av1"
	defaultEncoderSpeed = 3
	defaultHistoryPath  = "~/.local/share/qtranscode/history.db"
	defaultNiceness     = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Logging: Logging{
			Level: defaultLogLevel,
		},
		Defaults: Defaults{
			AudioCodec:   defaultAudioCodec,
			VideoCodec:   defaultVideoCodec,
			EncoderSpeed: defaultEncoderSpeed,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Process: Process{
			Niceness: defaultNiceness,
		},
	}
}

// HistoryPath returns the history database path with "~" expanded.
func (c *Config) HistoryPath() string {
	return expandHome(c.History.Path)
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}
