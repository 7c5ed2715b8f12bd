package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/eolscan/internal/core/domain"
)

var (
	lookupPublisher string
	lookupJSON      bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <name> [version]",
	Short: "Resolve the end-of-life date of one piece of software",
	Long: `Resolves a single software identity through the same pipeline as scan:
normalisation, cache, then the routed lookup sources.`,
	Example: `  eolscan lookup Ubuntu "20.04.6 LTS"
  eolscan lookup "Microsoft SQL Server 2014" 12.0.6024.0 --publisher "Microsoft Corporation"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupPublisher, "publisher", "p", "", "publisher or vendor name")
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	rec := domain.SoftwareRecord{Name: args[0], Publisher: lookupPublisher}
	if len(args) == 2 {
		rec.Version = args[1]
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := requireRuntime(ctx)
	if err != nil {
		return err
	}

	result, err := rt.Lookup.Lookup(ctx, rec)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if lookupJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}

	st := stylesFor(cmd.OutOrStdout())
	name := strings.TrimSpace(rec.Name + " " + rec.Version)
	cmd.Println(st.Title.Render(name))
	cmd.Printf("  Risk:       %s\n", st.Risk(result.RiskLevel).Render(string(result.RiskLevel)))
	cmd.Printf("  EOL:        %s\n", formatDate(result.EOLDate))
	if result.Cycle != "" {
		cmd.Printf("  Cycle:      %s\n", result.Cycle)
	}
	if result.LatestVersion != "" {
		cmd.Printf("  Latest:     %s\n", result.LatestVersion)
	}
	if result.IsLTS {
		cmd.Println("  LTS:        yes")
	}
	cmd.Printf("  Source:     %s\n", dash(result.SourceID))
	cmd.Printf("  Confidence: %.2f\n", result.ResolutionConfidence)
	cmd.Println(st.Muted.Render("  Query:      " + result.QueryKey))
	return nil
}
