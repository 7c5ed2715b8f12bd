package domain

import "time"

// BatchSummary reports the outcome of one orchestration run.
type BatchSummary struct {
	RunID      string        `json:"run_id"`
	Total      int           `json:"total"`
	Distinct   int           `json:"distinct"`
	Critical   int           `json:"critical"`
	High       int           `json:"high"`
	Medium     int           `json:"medium"`
	Low        int           `json:"low"`
	Unknown    int           `json:"unknown"`
	Unresolved int           `json:"unresolved"`
	CacheHits  int           `json:"cache_hits"`
	Duration   time.Duration `json:"duration"`
}

// Add counts one enriched record.
func (s *BatchSummary) Add(rec EnrichedRecord) {
	s.Total++
	switch rec.RiskLevel {
	case RiskCritical:
		s.Critical++
	case RiskHigh:
		s.High++
	case RiskMedium:
		s.Medium++
	case RiskLow:
		s.Low++
	default:
		s.Unknown++
	}
}

// Count returns the number of records in a tier.
func (s BatchSummary) Count(l RiskLevel) int {
	switch l {
	case RiskCritical:
		return s.Critical
	case RiskHigh:
		return s.High
	case RiskMedium:
		return s.Medium
	case RiskLow:
		return s.Low
	default:
		return s.Unknown
	}
}
