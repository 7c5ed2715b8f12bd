package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driving"
)

// Output formats.
const (
	formatAuto  = "auto"
	formatJSON  = "json"
	formatTable = "table"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resolveFormat turns "auto" into table for terminals and JSON otherwise.
func resolveFormat(format string, w io.Writer) (string, error) {
	switch format {
	case formatJSON, formatTable:
		return format, nil
	case formatAuto, "":
		if isTerminal(w) {
			return formatTable, nil
		}
		return formatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q (want auto, json or table)",
			domain.ErrInvalidInput, format)
	}
}

// stylesFor picks coloured styles for terminals and plain ones otherwise.
func stylesFor(w io.Writer) *Styles {
	if isTerminal(w) {
		return NewStyles(nil)
	}
	return PlainStyles()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	return nil
}

// scanReport is the JSON document written by scan.
type scanReport struct {
	Records []domain.EnrichedRecord `json:"records"`
	Summary domain.BatchSummary     `json:"summary"`
}

// renderRecords draws enriched records as a bordered table.
func renderRecords(w io.Writer, st *Styles, records []domain.EnrichedRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, st.Muted.Render("No records to show."))
		return
	}

	risks := make([]domain.RiskLevel, len(records))
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Border).
		Headers("COMPUTER", "SOFTWARE", "VERSION", "EOL", "RISK", "LATEST", "SOURCE", "CONF")

	for i := range records {
		r := &records[i]
		risks[i] = r.RiskLevel
		t.Row(
			dash(r.Computer),
			r.Name,
			dash(r.Version),
			formatDate(r.EOLDate),
			string(r.RiskLevel),
			dash(r.LatestVersion),
			dash(r.SourceID),
			fmt.Sprintf("%.2f", r.ResolutionConfidence),
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return st.Header
		}
		if col == 4 && row >= 0 && row < len(risks) {
			return st.Risk(risks[row]).Padding(0, 1)
		}
		return st.Cell
	})

	fmt.Fprintln(w, t.Render())
}

// renderSummary prints the per-tier counts of a batch.
func renderSummary(w io.Writer, st *Styles, s domain.BatchSummary) {
	fmt.Fprintln(w, st.Title.Render("Summary"))

	parts := make([]string, 0, len(domain.RiskLevels))
	for _, level := range domain.RiskLevels {
		parts = append(parts, st.Risk(level).Render(fmt.Sprintf("%s %d", level, s.Count(level))))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  "))
	fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf(
		"  %d records, %d distinct queries, %d cache hits, %d unresolved in %s (run %s)",
		s.Total, s.Distinct, s.CacheHits, s.Unresolved, s.Duration.Round(time.Millisecond), s.RunID)))
}

// renderSources lists registered sources in routing order.
func renderSources(w io.Writer, st *Styles, sources []driving.SourceInfo) {
	if len(sources) == 0 {
		fmt.Fprintln(w, st.Muted.Render("No lookup sources registered."))
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Border).
		Headers("#", "ID", "KIND", "THRESHOLD", "KEYWORDS")

	for _, s := range sources {
		kind := "generic"
		if s.Affinity.Specific {
			kind = "specific"
		}
		t.Row(
			fmt.Sprintf("%d", s.Position+1),
			s.ID,
			kind,
			fmt.Sprintf("%.2f", s.Affinity.Threshold()),
			dash(strings.Join(s.Affinity.Keywords, ", ")),
		)
	}

	t.StyleFunc(func(row, _ int) lipgloss.Style {
		if row == table.HeaderRow {
			return st.Header
		}
		return st.Cell
	})

	fmt.Fprintln(w, t.Render())
}

// filterByRisk keeps records at or above floor.
func filterByRisk(records []domain.EnrichedRecord, floor domain.RiskLevel) []domain.EnrichedRecord {
	if floor == domain.RiskUnknown {
		return records
	}
	out := make([]domain.EnrichedRecord, 0, len(records))
	for i := range records {
		if records[i].RiskLevel.Severity() >= floor.Severity() {
			out = append(out, records[i])
		}
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
