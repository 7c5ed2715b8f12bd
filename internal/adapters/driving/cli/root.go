// Package cli provides the eolscan command line interface built on cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/eolscan/internal/core/ports/driving"
	"github.com/custodia-labs/eolscan/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
	noPersist bool
)

// Options are the global flags handed to the wiring functions.
type Options struct {
	// ConfigDir overrides the configuration directory (~/.eolscan).
	ConfigDir string

	// NoPersist disables the on-disk result cache for this run.
	NoPersist bool
}

// Runtime is the assembled lookup pipeline.
type Runtime struct {
	Lookup  driving.LookupService
	Cache   driving.CacheAdmin
	Sources driving.SourceCatalog

	// Metrics serves Prometheus metrics. Optional.
	Metrics http.Handler

	// SetProgress registers a progress callback for batch runs. Optional.
	SetProgress func(func(done, total int))

	// Close releases sources and stores.
	Close func() error
}

// Factory builds the services commands depend on. Settings is cheap and
// never touches the network; Runtime constructs sources and stores.
type Factory struct {
	Settings func(opts Options) (driving.SettingsService, error)
	Runtime  func(ctx context.Context, opts Options) (*Runtime, error)
}

var (
	factoryMu sync.Mutex
	factory   Factory

	settingsService driving.SettingsService
	activeRuntime   *Runtime
)

var rootCmd = &cobra.Command{
	Use:   "eolscan",
	Short: "Resolve end-of-life dates for installed software",
	Long: `eolscan resolves end-of-life dates for a software inventory by querying
several lifecycle sources, and classifies every record into a risk tier.

Inventory rows are normalised and deduplicated, so a package installed on
thousands of machines is looked up once. Results are cached in memory and,
unless disabled, on disk under ~/.eolscan/data.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeRuntime()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.eolscan)")
	rootCmd.PersistentFlags().BoolVar(&noPersist, "no-persist", false, "do not read or write the on-disk result cache")
}

// SetFactory installs the wiring used to build services on demand.
func SetFactory(f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factory = f
	settingsService = nil
	activeRuntime = nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_ = closeRuntime()
		os.Exit(1)
	}
}

// ExecuteContext runs the root command with ctx and returns its error.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeRuntime(); err == nil {
		err = cerr
	}
	return err
}

func currentOptions() Options {
	return Options{ConfigDir: configDir, NoPersist: noPersist}
}

// requireSettings returns the settings service, building it on first use.
func requireSettings() (driving.SettingsService, error) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if settingsService != nil {
		return settingsService, nil
	}
	if factory.Settings == nil {
		return nil, errors.New("settings service not configured")
	}

	s, err := factory.Settings(currentOptions())
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	settingsService = s
	return s, nil
}

// requireRuntime returns the lookup pipeline, building it on first use.
func requireRuntime(ctx context.Context) (*Runtime, error) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if activeRuntime != nil {
		return activeRuntime, nil
	}
	if factory.Runtime == nil {
		return nil, errors.New("lookup service not configured")
	}

	rt, err := factory.Runtime(ctx, currentOptions())
	if err != nil {
		return nil, err
	}
	if rt.Lookup == nil {
		return nil, errors.New("lookup service not configured")
	}
	activeRuntime = rt
	return rt, nil
}

func closeRuntime() error {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if activeRuntime == nil || activeRuntime.Close == nil {
		activeRuntime = nil
		return nil
	}
	err := activeRuntime.Close()
	activeRuntime = nil
	return err
}
