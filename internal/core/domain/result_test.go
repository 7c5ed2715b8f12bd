package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLookupResult_Normalise_NotFoundDropsDate(t *testing.T) {
	eol := time.Now()
	r := LookupResult{Found: false, EOLDate: &eol, Confidence: 0.7, SourceID: "x"}

	n := r.Normalise()

	assert.Nil(t, n.EOLDate)
	assert.Zero(t, n.Confidence)
	assert.Equal(t, "x", n.SourceID)
	// original untouched
	assert.NotNil(t, r.EOLDate)
}

func TestLookupResult_Normalise_ClampsConfidence(t *testing.T) {
	assert.Equal(t, 1.0, LookupResult{Found: true, Confidence: 1.4}.Normalise().Confidence)
	assert.Equal(t, 0.0, LookupResult{Found: true, Confidence: -2}.Normalise().Confidence)
	assert.Equal(t, 0.5, LookupResult{Found: true, Confidence: 0.5}.Normalise().Confidence)
}

func TestNotFound(t *testing.T) {
	r := NotFound("generic")
	assert.False(t, r.Found)
	assert.Nil(t, r.EOLDate)
	assert.Equal(t, "generic", r.SourceID)
}

func TestDate_TruncatesToUTCDay(t *testing.T) {
	in := time.Date(2024, 6, 30, 23, 59, 0, 0, time.FixedZone("x", 3600))
	d := Date(in)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), *d)
}

func TestCacheEntry_Expired(t *testing.T) {
	now := time.Now()
	e := CacheEntry{ExpiresAt: now}
	assert.True(t, e.Expired(now))
	assert.False(t, e.Expired(now.Add(-time.Second)))
}

func TestEnrich(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	eol := now.AddDate(-1, 0, 0)
	rec := SoftwareRecord{Computer: "web-01", Name: "Ubuntu", Version: "18.04"}
	res := LookupResult{Found: true, Cycle: "18.04", EOLDate: &eol, Confidence: 0.95, SourceID: "endoflife-distro"}

	out := Enrich(rec, "ubuntu@18.04", res, now)

	assert.Equal(t, rec, out.SoftwareRecord)
	assert.Equal(t, RiskCritical, out.RiskLevel)
	assert.Equal(t, 0.95, out.ResolutionConfidence)
	assert.Equal(t, "ubuntu@18.04", out.QueryKey)
	assert.Equal(t, "endoflife-distro", out.SourceID)
}
