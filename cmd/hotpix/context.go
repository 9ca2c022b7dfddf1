package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"hotpix/internal/config"
	"hotpix/internal/importer"
	"hotpix/internal/logging"
	"hotpix/internal/photos"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
}

// withStore opens the photo store for the duration of one command.
func (c *commandContext) withStore(fn func(*config.Config, *photos.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := photos.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// withTracker opens the store and builds an import tracker around it.
func (c *commandContext) withTracker(fn func(*config.Config, *importer.Tracker, *photos.Store) error) error {
	return c.withStore(func(cfg *config.Config, store *photos.Store) error {
		logger, err := c.newLogger()
		if err != nil {
			return err
		}
		return fn(cfg, importer.NewTracker(cfg, store, logger), store)
	})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
