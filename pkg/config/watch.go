package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/marmos91/storfiler/internal/logger"
	"github.com/marmos91/storfiler/pkg/gateway"
	"github.com/spf13/viper"
)

// ReloadFunc receives a freshly loaded configuration and its catalog.
type ReloadFunc func(cfg *Config, cat *gateway.Catalog)

// Watch watches the config file at path and calls apply with every valid
// new version.
//
// A change that fails to load, validate or build a catalog is logged and
// ignored; the previous configuration stays in effect. After ctx is done no
// further calls to apply are made.
//
// Returns an error if the file cannot be read when watching starts.
func Watch(ctx context.Context, path string, apply ReloadFunc) error {
	v := viper.New()
	setupViper(v, path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot watch config: %w", err)
	}
	file := v.ConfigFileUsed()

	v.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		logger.Info("Config file changed: %s", e.Name)

		// Reload from scratch so defaults and validation apply exactly as at
		// startup.
		cfg, err := Load(file)
		if err != nil {
			logger.Warn("Ignoring config change: %v", err)
			return
		}
		cat, err := BuildCatalog(cfg)
		if err != nil {
			logger.Warn("Ignoring config change: %v", err)
			return
		}

		apply(cfg, cat)
	})
	v.WatchConfig()

	logger.Debug("Watching config file %s", file)
	return nil
}
