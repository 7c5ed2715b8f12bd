package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheStatsJSON bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the result cache",
	Long:  `Inspect or clear cached lookup results, in memory and on disk.`,
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Remove every cached result",
	Args:  cobra.NoArgs,
	RunE:  runCacheFlush,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

func init() {
	cacheStatsCmd.Flags().BoolVar(&cacheStatsJSON, "json", false, "output statistics as JSON")
	cacheCmd.AddCommand(cacheFlushCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}

func cacheContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runCacheFlush(cmd *cobra.Command, _ []string) error {
	ctx := cacheContext(cmd)
	rt, err := requireRuntime(ctx)
	if err != nil {
		return err
	}
	if rt.Cache == nil {
		cmd.Println("Cache is disabled.")
		return nil
	}

	if err := rt.Cache.FlushCache(ctx); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	cmd.Println("Cache flushed.")
	return nil
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	ctx := cacheContext(cmd)
	rt, err := requireRuntime(ctx)
	if err != nil {
		return err
	}
	if rt.Cache == nil {
		cmd.Println("Cache is disabled.")
		return nil
	}

	stats, err := rt.Cache.CacheStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	if cacheStatsJSON {
		return writeJSON(cmd.OutOrStdout(), stats)
	}

	cmd.Println("Result Cache")
	cmd.Println("============")
	cmd.Printf("  In memory:  %d\n", stats.Entries)
	if stats.Persistent {
		cmd.Printf("  On disk:    %d\n", stats.Persisted)
	} else {
		cmd.Println("  On disk:    disabled")
	}
	cmd.Printf("  Hits:       %d\n", stats.Hits)
	cmd.Printf("  Misses:     %d\n", stats.Misses)
	cmd.Printf("  Shared:     %d\n", stats.Shared)
	cmd.Printf("  Evictions:  %d\n", stats.Evictions)
	return nil
}
