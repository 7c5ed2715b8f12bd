package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/eolscan/internal/adapters/driven/config/file"
	"github.com/custodia-labs/eolscan/internal/adapters/driven/metrics"
	"github.com/custodia-labs/eolscan/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/eolscan/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/eolscan/internal/adapters/driving/cli"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
	"github.com/custodia-labs/eolscan/internal/core/ports/driving"
	"github.com/custodia-labs/eolscan/internal/core/services"
	"github.com/custodia-labs/eolscan/internal/logger"
	"github.com/custodia-labs/eolscan/internal/sources"
)

func configDir(opts cli.Options) (string, error) {
	if opts.ConfigDir != "" {
		return opts.ConfigDir, nil
	}
	return file.DefaultDir()
}

func newSettingsService(opts cli.Options) (*services.SettingsService, error) {
	dir, err := configDir(opts)
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	logger.Debug("Config: %s", store.Path())
	return services.NewSettingsService(store), nil
}

func loadSettings(opts cli.Options) (driving.SettingsService, error) {
	return newSettingsService(opts)
}

// buildRuntime assembles the lookup pipeline: sources, router, engine,
// cache with its optional SQLite tier, and the orchestrator.
func buildRuntime(ctx context.Context, opts cli.Options) (*cli.Runtime, error) {
	defer logger.Timed("Startup")()

	settings, err := newSettingsService(opts)
	if err != nil {
		logger.Warn("Using default settings: %v", err)
		settings = services.NewSettingsService(memory.NewConfigStore())
	}
	engineSettings := settings.Engine()
	if err := engineSettings.Validate(); err != nil {
		return nil, err
	}

	builtin, err := sources.Builtin(ctx, settings.Sources())
	if err != nil {
		return nil, fmt.Errorf("creating lookup sources: %w", err)
	}

	registry, err := services.NewSourceRegistry(builtin...)
	if err != nil {
		for _, s := range builtin {
			if c, ok := s.(driven.Closer); ok {
				_ = c.Close()
			}
		}
		return nil, err
	}
	logger.Info("Registered %d lookup sources", registry.Len())

	recorder := metrics.NewRecorder()

	engine, err := services.NewSearchEngine(services.NewSourceRouter(registry), engineSettings, recorder)
	if err != nil {
		_ = registry.Close()
		return nil, err
	}

	closers := []func() error{registry.Close}

	var store driven.ResultStore
	if engineSettings.PersistCache && !opts.NoPersist {
		dir, err := configDir(opts)
		if err != nil {
			_ = registry.Close()
			return nil, err
		}
		db, err := sqlite.NewStore(filepath.Join(dir, "data"))
		if err != nil {
			// The cache still works in memory without its disk tier.
			logger.Warn("Persistent cache disabled: %v", err)
		} else {
			store = db.ResultStore()
			closers = append(closers, db.Close)
			if n, err := store.PurgeExpired(ctx); err != nil {
				logger.Warn("Purging expired cache entries: %v", err)
			} else if n > 0 {
				logger.Info("Purged %d expired cache entries", n)
			}
		}
	}

	cache := services.NewResultCache(engineSettings, store, recorder)
	orchestrator := services.NewOrchestrator(engine, cache, engineSettings, recorder)

	return &cli.Runtime{
		Lookup:  orchestrator,
		Cache:   orchestrator,
		Sources: registry,
		Metrics: recorder.Handler(),
		SetProgress: func(fn func(done, total int)) {
			orchestrator.SetProgress(fn)
		},
		Close: func() error {
			var errs []error
			for i := len(closers) - 1; i >= 0; i-- {
				errs = append(errs, closers[i]())
			}
			return errors.Join(errs...)
		},
	}, nil
}
