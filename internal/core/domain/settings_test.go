package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEngineSettings_WithDefaults(t *testing.T) {
	s := EngineSettings{MaxConcurrentQueries: 3}.WithDefaults()

	assert.Equal(t, 3, s.MaxConcurrentQueries)
	assert.Equal(t, DefaultMaxConcurrentCalls, s.MaxConcurrentCalls)
	assert.Equal(t, DefaultSourceTimeout, s.SourceTimeout)
	assert.Equal(t, DefaultQueryDeadline, s.QueryDeadline)
	assert.Equal(t, DefaultCacheTTL, s.CacheTTL)
	assert.Equal(t, DefaultNegativeCacheTTL, s.NegativeCacheTTL)
	assert.Equal(t, DefaultCacheCapacity, s.CacheCapacity)
}

func TestEngineSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultEngineSettings().Validate())

	bad := DefaultEngineSettings()
	bad.QueryDeadline = time.Second
	bad.SourceTimeout = 5 * time.Second
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)
}

func TestBatchSummary_Add(t *testing.T) {
	var s BatchSummary
	for _, l := range []RiskLevel{RiskCritical, RiskCritical, RiskHigh, RiskLow, RiskUnknown} {
		s.Add(EnrichedRecord{RiskLevel: l})
	}

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Count(RiskCritical))
	assert.Equal(t, 1, s.Count(RiskHigh))
	assert.Equal(t, 0, s.Count(RiskMedium))
	assert.Equal(t, 1, s.Count(RiskLow))
	assert.Equal(t, 1, s.Count(RiskUnknown))
}
