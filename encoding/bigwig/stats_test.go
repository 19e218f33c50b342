package bigwig

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatType(t *testing.T) {
	cases := map[string]StatType{
		"mean":     StatMean,
		"average":  StatMean,
		"min":      StatMin,
		"max":      StatMax,
		"sum":      StatSum,
		"coverage": StatCoverage,
		"stdev":    StatStdev,
	}
	for s, want := range cases {
		got, err := ParseStatType(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseStatType("bogus")
	assert.True(t, errIsKind(err, KindBadStatType))
}

func TestStatsExactEmptyBinIsNaNForMean(t *testing.T) {
	vals := []Value{{Start: 100, End: 110, Val: 5}}
	out := statsExact(vals, region{ChromIdx: 0, Start: 0, End: 10}, 1, StatMean)
	require.Len(t, out, 1)
	assert.True(t, math.IsNaN(out[0]))
}

func TestStatsExactCoverageAndStdev(t *testing.T) {
	vals := []Value{
		{Start: 0, End: 5, Val: 2},
		{Start: 5, End: 10, Val: 4},
	}
	q := region{ChromIdx: 0, Start: 0, End: 10}

	cov := statsExact(vals, q, 1, StatCoverage)
	assert.Equal(t, 1.0, cov[0])

	sd := statsExact(vals, q, 1, StatStdev)
	// 5 samples of 2, 5 samples of 4: population split evenly, sample stdev
	// of a balanced two-value set is the half-difference scaled by
	// sqrt(n/(n-1)): 1 * sqrt(10/9) ~= 1.054.
	assert.InDelta(t, 1.054, sd[0], 0.01)
}
