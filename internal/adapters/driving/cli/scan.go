package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/inventory"
	"github.com/custodia-labs/eolscan/internal/logger"
)

// ErrRiskThreshold is returned by scan when --fail-on is reached.
var ErrRiskThreshold = errors.New("risk threshold reached")

var (
	scanInput       string
	scanOutput      string
	scanFormat      string
	scanMinRisk     string
	scanFailOn      string
	scanMetricsAddr string
	scanNoProgress  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Resolve end-of-life dates for an inventory file",
	Long: `Reads software inventory records and resolves the end-of-life date and
risk tier of each one.

Input is a JSON array or JSON lines of objects with computer, name, version
and publisher fields. Use "-" (the default) to read from stdin.

Output is a table on terminals and JSON otherwise; --format overrides this.`,
	Example: `  eolscan scan --input inventory.json
  eolscan scan -i inventory.jsonl --format json -o report.json
  cat inventory.json | eolscan scan --min-risk high --fail-on critical`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanInput, "input", "i", "-", "inventory file (- for stdin)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "write the report to a file instead of stdout")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", formatAuto, "output format: auto, json or table")
	scanCmd.Flags().StringVar(&scanMinRisk, "min-risk", "", "only show records at or above this risk tier")
	scanCmd.Flags().StringVar(&scanFailOn, "fail-on", "", "exit non-zero when any record is at or above this risk tier")
	scanCmd.Flags().StringVar(&scanMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the scan")
	scanCmd.Flags().BoolVar(&scanNoProgress, "no-progress", false, "do not print progress on stderr")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	minRisk, err := parseOptionalRisk(scanMinRisk, domain.RiskUnknown)
	if err != nil {
		return err
	}
	failOn, err := parseOptionalRisk(scanFailOn, "")
	if err != nil {
		return err
	}

	records, err := readInventory(cmd, scanInput)
	if err != nil {
		return err
	}
	logger.Info("Read %d inventory records", len(records))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := requireRuntime(ctx)
	if err != nil {
		return err
	}

	if scanMetricsAddr != "" {
		if rt.Metrics == nil {
			return errors.New("metrics are not available")
		}
		stop, err := serveMetrics(scanMetricsAddr, rt.Metrics)
		if err != nil {
			return err
		}
		defer stop()
	}

	if rt.SetProgress != nil {
		if !scanNoProgress && isTerminal(cmd.ErrOrStderr()) {
			rt.SetProgress(progressPrinter(cmd.ErrOrStderr()))
		} else {
			rt.SetProgress(nil)
		}
	}

	enriched, summary, err := rt.Lookup.Enrich(ctx, records)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if scanOutput != "" {
		f, err := os.Create(scanOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	format, err := resolveFormat(scanFormat, out)
	if err != nil {
		return err
	}

	shown := filterByRisk(enriched, minRisk)
	if format == formatJSON {
		if err := writeJSON(out, scanReport{Records: shown, Summary: summary}); err != nil {
			return err
		}
	} else {
		st := stylesFor(out)
		renderRecords(out, st, shown)
		fmt.Fprintln(out)
		renderSummary(out, st, summary)
	}

	if failOn != "" {
		for _, level := range domain.RiskLevels {
			if level.Severity() >= failOn.Severity() && summary.Count(level) > 0 {
				return fmt.Errorf("%w: %d record(s) at %s", ErrRiskThreshold, summary.Count(level), level)
			}
		}
	}
	return nil
}

func readInventory(cmd *cobra.Command, path string) ([]domain.SoftwareRecord, error) {
	if path == "-" || path == "" {
		return inventory.Read(cmd.InOrStdin())
	}
	return inventory.ReadFile(path)
}

// parseOptionalRisk parses a risk flag, returning def when it is empty.
func parseOptionalRisk(value string, def domain.RiskLevel) (domain.RiskLevel, error) {
	if value == "" {
		return def, nil
	}
	return domain.ParseRiskLevel(value)
}

// progressPrinter rewrites a single status line on w.
func progressPrinter(w io.Writer) func(done, total int) {
	return func(done, total int) {
		fmt.Fprintf(w, "\rResolving queries: %d/%d", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}

// serveMetrics exposes handler at /metrics until the returned stop func is called.
func serveMetrics(addr string, handler http.Handler) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped: %v", err)
		}
	}()
	logger.Info("Serving metrics on http://%s/metrics", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
