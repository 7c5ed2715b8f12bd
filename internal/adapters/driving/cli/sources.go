package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var sourcesJSON bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered lookup sources",
	Long: `Lists the lookup sources in registration order with their routing affinity.

Specific sources only receive queries matching one of their keywords and must
reach a higher confidence before a search stops. Generic sources receive
every query.`,
	Args: cobra.NoArgs,
	RunE: runSources,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output sources as JSON")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := requireRuntime(ctx)
	if err != nil {
		return err
	}
	if rt.Sources == nil {
		cmd.Println("No lookup sources registered.")
		return nil
	}

	sources := rt.Sources.Sources()
	if sourcesJSON {
		return writeJSON(cmd.OutOrStdout(), sources)
	}

	renderSources(cmd.OutOrStdout(), stylesFor(cmd.OutOrStdout()), sources)
	return nil
}
