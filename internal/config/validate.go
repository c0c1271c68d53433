package config

import (
	"fmt"
	"strings"

	"qtranscode/internal/services"
)

var (
	audioCodecs = map[string]bool{"aac": true, "flac": true, "mp3": true, "opus": true, "vorbis": true, "copy": true}
	videoCodecs = map[string]bool{"av1": true, "h264": true, "vp9": true, "vp8": true}
)

// Validate checks the configuration for values the pipeline cannot honor.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return services.Wrap(services.ErrConfiguration, "config", "", fmt.Sprintf("unknown log level %q", c.Logging.Level), nil)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return services.Wrap(services.ErrConfiguration, "config", "", fmt.Sprintf("unknown log format %q", c.Logging.Format), nil)
	}
	if codec := strings.ToLower(strings.TrimSpace(c.Defaults.AudioCodec)); codec != "" && !audioCodecs[codec] {
		return services.Wrap(services.ErrConfiguration, "config", "", fmt.Sprintf("unknown default audio codec %q", c.Defaults.AudioCodec), nil)
	}
	if codec := strings.ToLower(strings.TrimSpace(c.Defaults.VideoCodec)); codec != "" && !videoCodecs[codec] {
		return services.Wrap(services.ErrConfiguration, "config", "", fmt.Sprintf("unknown default video codec %q", c.Defaults.VideoCodec), nil)
	}
	if c.Defaults.EncoderSpeed < 0 || c.Defaults.EncoderSpeed > 8 {
		return services.Wrap(services.ErrConfiguration, "config", "", fmt.Sprintf("encoder speed %d outside 0..8", c.Defaults.EncoderSpeed), nil)
	}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return services.Wrap(services.ErrConfiguration, "config", "", "history enabled without a database path", nil)
	}
	return nil
}
