package domain

import "time"

// SoftwareRecord is one inventory row as delivered by the inventory collector.
// The core never mutates it.
type SoftwareRecord struct {
	Computer  string `json:"computer"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Publisher string `json:"publisher,omitempty"`
}

// EnrichedRecord is a SoftwareRecord augmented with resolved lifecycle data.
type EnrichedRecord struct {
	SoftwareRecord

	// QueryKey is the dedup key the record was grouped under.
	QueryKey string `json:"query_key"`

	EOLDate              *time.Time `json:"eol_date,omitempty"`
	Cycle                string     `json:"cycle,omitempty"`
	LatestVersion        string     `json:"latest_version,omitempty"`
	IsLTS                bool       `json:"is_lts"`
	RiskLevel            RiskLevel  `json:"risk_level"`
	ResolutionConfidence float64    `json:"resolution_confidence"`
	SourceID             string     `json:"source_id,omitempty"`
}

// Enrich builds an EnrichedRecord from a record, its query key, and the
// resolved result. Risk is computed against now and never cached.
func Enrich(rec SoftwareRecord, key string, res LookupResult, now time.Time) EnrichedRecord {
	res = res.Normalise()
	return EnrichedRecord{
		SoftwareRecord:       rec,
		QueryKey:             key,
		EOLDate:              res.EOLDate,
		Cycle:                res.Cycle,
		LatestVersion:        res.LatestVersion,
		IsLTS:                res.IsLTS,
		RiskLevel:            Classify(res.EOLDate, now),
		ResolutionConfidence: res.Confidence,
		SourceID:             res.SourceID,
	}
}
