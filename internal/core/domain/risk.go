package domain

import (
	"fmt"
	"time"
)

// RiskLevel is the tier derived from an end-of-life date.
type RiskLevel string

// Risk tiers.
const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
	RiskUnknown  RiskLevel = "unknown"
)

// HighRiskWindow is the span before EOL during which software is High risk.
const HighRiskWindow = 180 * 24 * time.Hour

// RiskLevels lists every tier from most to least severe.
var RiskLevels = []RiskLevel{RiskCritical, RiskHigh, RiskMedium, RiskLow, RiskUnknown}

// Classify maps an EOL date to a risk tier relative to now.
// Bands are inclusive on the lower bound and exclusive on the upper bound.
func Classify(eol *time.Time, now time.Time) RiskLevel {
	if eol == nil {
		return RiskUnknown
	}
	switch {
	case eol.Before(now):
		return RiskCritical
	case eol.Before(now.Add(HighRiskWindow)):
		return RiskHigh
	case eol.Before(now.AddDate(2, 0, 0)):
		return RiskMedium
	default:
		return RiskLow
	}
}

// IsValid returns true if the level is recognised.
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskCritical, RiskHigh, RiskMedium, RiskLow, RiskUnknown:
		return true
	default:
		return false
	}
}

// ParseRiskLevel parses a tier name.
func ParseRiskLevel(s string) (RiskLevel, error) {
	l := RiskLevel(s)
	if !l.IsValid() {
		return "", fmt.Errorf("%w: risk level %q", ErrInvalidInput, s)
	}
	return l, nil
}

// Severity orders tiers; higher is worse. Unknown ranks below Low.
func (l RiskLevel) Severity() int {
	switch l {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}
