package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizedQuery_Key_IgnoresVendorHint(t *testing.T) {
	a := NormalizedQuery{ProductKey: "python", Version: "3.8", VendorHint: "python"}
	b := NormalizedQuery{ProductKey: "python", Version: "3.8", VendorHint: ""}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "python@3.8", a.Key())
}

func TestNormalizedQuery_IsDegenerate(t *testing.T) {
	assert.True(t, NormalizedQuery{}.IsDegenerate())
	assert.True(t, NormalizedQuery{ProductKey: DegenerateProductKey}.IsDegenerate())
	assert.False(t, NormalizedQuery{ProductKey: "nginx"}.IsDegenerate())
	assert.False(t, NormalizedQuery{ProductKey: "unknown", Version: "1.0"}.IsDegenerate())
}

func TestStrategy_TextRoundTrip(t *testing.T) {
	for _, s := range Strategies {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var got Strategy
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, s, got)
	}

	var s Strategy
	assert.ErrorIs(t, s.UnmarshalText([]byte("fuzzy")), ErrInvalidInput)
}

func TestStrategies_Order(t *testing.T) {
	assert.Equal(t, []Strategy{StrategyExact, StrategyNameOnly, StrategyNormalized}, Strategies)
	assert.Less(t, int(StrategyExact), int(StrategyNormalized))
}

func TestVariantFor(t *testing.T) {
	vs := []Variant{
		{Strategy: StrategyExact, Name: "Python 3.8", Version: "3.8.10"},
		{Strategy: StrategyNameOnly, Name: "Python 3.8"},
	}

	v, ok := VariantFor(vs, StrategyNameOnly)
	require.True(t, ok)
	assert.Equal(t, "Python 3.8", v.Name)

	_, ok = VariantFor(vs, StrategyNormalized)
	assert.False(t, ok)
}
