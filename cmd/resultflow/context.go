package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ivlev/resultflow/internal/config"
	"github.com/ivlev/resultflow/internal/logging"
	"github.com/ivlev/resultflow/internal/source"
)

type commandContext struct {
	configFlag *string
	levelFlag  *string
	formatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, levelFlag, formatFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		levelFlag:  levelFlag,
		formatFlag: formatFlag,
	}
}

// ensureConfig loads the configuration once and applies the logging flags.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.levelFlag != nil && *c.levelFlag != "" {
			cfg.LogLevel = *c.levelFlag
		}
		if c.formatFlag != nil && *c.formatFlag != "" {
			cfg.LogFormat = *c.formatFlag
		}
		cfg.BuildVersion = BuildVersion
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	log, err := logging.New(w, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return log.With("version", cfg.BuildVersion), nil
}

// openIcons returns the embedded icons, overridden by files in the assets
// directory when one is configured.
func openIcons(cfg *config.Config, log *slog.Logger) (source.IconSource, error) {
	embedded, err := source.NewFitzSVGSource()
	if err != nil {
		return nil, fmt.Errorf("load icons: %w", err)
	}
	log.Debug("embedded icons", "names", embedded.Names())
	if cfg.AssetsDir == "" {
		return embedded, nil
	}
	dir, err := source.NewDirSource(cfg.AssetsDir)
	if err != nil {
		embedded.Close()
		return nil, fmt.Errorf("load assets: %w", err)
	}
	log.Debug("icon overrides", "dir", cfg.AssetsDir, "files", dir.Len())
	return source.Chain{dir, embedded}, nil
}
