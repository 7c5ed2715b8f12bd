package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change settings stored in ~/.eolscan/config.toml.

Durations use Go syntax ("10s", "1h30m"); lists are comma separated.`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Example: `  eolscan config set engine.source_timeout 5s
  eolscan config set sources.github.repos "caddy=caddyserver/caddy,traefik=traefik/traefik"
  eolscan config set sources.disabled github`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	settings, err := requireSettings()
	if err != nil {
		return err
	}

	engine := settings.Engine()
	sources := settings.Sources()

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Engine]")
	cmd.Printf("  Max concurrent queries: %d\n", engine.MaxConcurrentQueries)
	cmd.Printf("  Max concurrent calls:   %d\n", engine.MaxConcurrentCalls)
	cmd.Printf("  Source timeout:         %s\n", engine.SourceTimeout)
	cmd.Printf("  Query deadline:         %s\n", engine.QueryDeadline)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  TTL:          %s\n", engine.CacheTTL)
	cmd.Printf("  Negative TTL: %s\n", engine.NegativeCacheTTL)
	cmd.Printf("  Capacity:     %d\n", engine.CacheCapacity)
	cmd.Printf("  Persist:      %t\n", engine.PersistCache)
	cmd.Println()

	cmd.Println("[Sources]")
	cmd.Printf("  endoflife.date URL:  %s\n", sources.EndOfLifeBaseURL)
	cmd.Printf("  endoflife.date rate: %.1f req/s\n", sources.EndOfLifeRate)
	if sources.GitHubToken != "" {
		cmd.Printf("  GitHub token:        %s\n", maskToken(sources.GitHubToken))
	} else {
		cmd.Println("  GitHub token:        (not set)")
	}
	cmd.Printf("  GitHub repos:        %d\n", len(sources.GitHubRepos))
	cmd.Printf("  Local overrides:     %s\n", dash(sources.LocalPath))
	cmd.Printf("  Disabled:            %s\n", dash(strings.Join(sources.Disabled, ", ")))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	settings, err := requireSettings()
	if err != nil {
		return err
	}

	if err := settings.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	settings, err := requireSettings()
	if err != nil {
		return err
	}

	for _, key := range settings.Keys() {
		cmd.Println(key)
	}
	return nil
}

// maskToken hides all but the last four characters of a secret.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
