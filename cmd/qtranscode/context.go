package main

import (
	"log/slog"

	"qtranscode/internal/config"
	"qtranscode/internal/logging"
)

// commandContext shares lazily resolved configuration and logging between
// commands so every subcommand sees the same view.
type commandContext struct {
	configPath *string
	cfg        *config.Config
}

func newCommandContext(configPath *string) *commandContext {
	return &commandContext{configPath: configPath}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configPath != nil {
		path = *c.configPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}
