package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/eolscan/internal/core/domain"
)

// maxScanRecords bounds a single scan_inventory call.
const maxScanRecords = 5000

// LookupInput is the input schema for the lookup_eol tool.
type LookupInput struct {
	Name      string `json:"name" jsonschema:"software name as it appears in the inventory, e.g. Ubuntu or Python 3.8"`
	Version   string `json:"version,omitempty" jsonschema:"installed version, e.g. 20.04.6 LTS"`
	Publisher string `json:"publisher,omitempty" jsonschema:"publisher or vendor, e.g. Microsoft Corporation"`
}

// RecordOutput is one resolved record.
type RecordOutput struct {
	Computer      string  `json:"computer,omitempty"`
	Name          string  `json:"name"`
	Version       string  `json:"version,omitempty"`
	QueryKey      string  `json:"query_key"`
	EOLDate       string  `json:"eol_date,omitempty"`
	Cycle         string  `json:"cycle,omitempty"`
	LatestVersion string  `json:"latest_version,omitempty"`
	IsLTS         bool    `json:"is_lts"`
	Risk          string  `json:"risk"`
	Confidence    float64 `json:"confidence"`
	Source        string  `json:"source,omitempty"`
}

// ScanInput is the input schema for the scan_inventory tool.
type ScanInput struct {
	Records []domain.SoftwareRecord `json:"records" jsonschema:"inventory rows with computer, name, version and publisher"`
	MinRisk string                  `json:"min_risk,omitempty" jsonschema:"only return records at or above this risk: critical, high, medium, low or unknown"`
}

// ScanOutput is the output schema for the scan_inventory tool.
type ScanOutput struct {
	Records []RecordOutput `json:"records"`
	Summary SummaryOutput  `json:"summary"`
}

// SummaryOutput mirrors domain.BatchSummary with a readable duration.
type SummaryOutput struct {
	RunID      string `json:"run_id"`
	Total      int    `json:"total"`
	Distinct   int    `json:"distinct"`
	Critical   int    `json:"critical"`
	High       int    `json:"high"`
	Medium     int    `json:"medium"`
	Low        int    `json:"low"`
	Unknown    int    `json:"unknown"`
	Unresolved int    `json:"unresolved"`
	CacheHits  int    `json:"cache_hits"`
	Duration   string `json:"duration"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "lookup_eol",
		Description: "Resolve the end-of-life date and risk tier of one piece of software",
	}, s.handleLookup)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scan_inventory",
		Description: "Resolve end-of-life dates and risk tiers for a batch of inventory records",
	}, s.handleScan)
}

// handleLookup handles the lookup_eol tool invocation.
func (s *Server) handleLookup(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LookupInput,
) (*mcp.CallToolResult, RecordOutput, error) {
	if input.Name == "" {
		return nil, RecordOutput{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	rec, err := s.ports.Lookup.Lookup(ctx, domain.SoftwareRecord{
		Name:      input.Name,
		Version:   input.Version,
		Publisher: input.Publisher,
	})
	if err != nil {
		return nil, RecordOutput{}, err
	}

	return nil, toRecordOutput(rec), nil
}

// handleScan handles the scan_inventory tool invocation.
func (s *Server) handleScan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ScanInput,
) (*mcp.CallToolResult, ScanOutput, error) {
	if len(input.Records) == 0 {
		return nil, ScanOutput{}, ErrEmptyInventory
	}
	if len(input.Records) > maxScanRecords {
		return nil, ScanOutput{}, fmt.Errorf("%w: at most %d records per call", domain.ErrInvalidInput, maxScanRecords)
	}

	minRisk := domain.RiskUnknown
	if input.MinRisk != "" {
		level, err := domain.ParseRiskLevel(input.MinRisk)
		if err != nil {
			return nil, ScanOutput{}, err
		}
		minRisk = level
	}

	records, summary, err := s.ports.Lookup.Enrich(ctx, input.Records)
	if err != nil {
		return nil, ScanOutput{}, err
	}

	output := ScanOutput{
		Records: make([]RecordOutput, 0, len(records)),
		Summary: toSummaryOutput(summary),
	}
	for i := range records {
		if records[i].RiskLevel.Severity() < minRisk.Severity() {
			continue
		}
		output.Records = append(output.Records, toRecordOutput(records[i]))
	}

	return nil, output, nil
}

func toRecordOutput(rec domain.EnrichedRecord) RecordOutput {
	out := RecordOutput{
		Computer:      rec.Computer,
		Name:          rec.Name,
		Version:       rec.Version,
		QueryKey:      rec.QueryKey,
		Cycle:         rec.Cycle,
		LatestVersion: rec.LatestVersion,
		IsLTS:         rec.IsLTS,
		Risk:          string(rec.RiskLevel),
		Confidence:    rec.ResolutionConfidence,
		Source:        rec.SourceID,
	}
	if rec.EOLDate != nil {
		out.EOLDate = rec.EOLDate.Format(time.DateOnly)
	}
	return out
}

func toSummaryOutput(s domain.BatchSummary) SummaryOutput {
	return SummaryOutput{
		RunID:      s.RunID,
		Total:      s.Total,
		Distinct:   s.Distinct,
		Critical:   s.Critical,
		High:       s.High,
		Medium:     s.Medium,
		Low:        s.Low,
		Unknown:    s.Unknown,
		Unresolved: s.Unresolved,
		CacheHits:  s.CacheHits,
		Duration:   s.Duration.Round(time.Millisecond).String(),
	}
}
