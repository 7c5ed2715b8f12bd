package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Boundaries(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	at := func(d time.Time) *time.Time { return &d }

	tests := []struct {
		name     string
		eol      *time.Time
		expected RiskLevel
	}{
		{"no date is unknown", nil, RiskUnknown},
		{"yesterday is critical", at(now.Add(-day)), RiskCritical},
		{"now is high", at(now), RiskHigh},
		{"179 days is high", at(now.Add(179 * day)), RiskHigh},
		{"exactly 180 days is medium", at(now.Add(180 * day)), RiskMedium},
		{"181 days is medium", at(now.Add(181 * day)), RiskMedium},
		{"two years minus a day is medium", at(now.AddDate(2, 0, 0).Add(-day)), RiskMedium},
		{"exactly two years is low", at(now.AddDate(2, 0, 0)), RiskLow},
		{"ten years is low", at(now.AddDate(10, 0, 0)), RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.eol, now))
		})
	}
}

func TestRiskLevel_IsValid(t *testing.T) {
	for _, l := range RiskLevels {
		assert.True(t, l.IsValid(), l)
	}
	assert.False(t, RiskLevel("severe").IsValid())
}

func TestParseRiskLevel(t *testing.T) {
	l, err := ParseRiskLevel("high")
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, l)

	_, err = ParseRiskLevel("HIGH")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRiskLevel_Severity(t *testing.T) {
	for i := 1; i < len(RiskLevels); i++ {
		assert.Greater(t, RiskLevels[i-1].Severity(), RiskLevels[i].Severity())
	}
}
