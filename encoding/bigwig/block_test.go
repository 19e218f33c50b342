package bigwig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWigBlockBedGraph(t *testing.T) {
	buf := buildWigBlock(t, 3, []wigRecord{
		{start: 0, end: 5, val: 1.0},
		{start: 5, end: 10, val: 2.0},
	})
	chromIdx, vals, err := decodeWigBlock(buf)
	require.NoError(t, err)
	assert.EqualValues(t, 3, chromIdx)
	require.Len(t, vals, 2)
	assert.Equal(t, Value{Start: 0, End: 5, Val: 1.0}, vals[0])
	assert.Equal(t, Value{Start: 5, End: 10, Val: 2.0}, vals[1])
}

func TestDecodeBedBlock(t *testing.T) {
	buf := buildBedBlock(t, []BedEntry{
		{ChromIdx: 0, Start: 1, End: 2, Rest: "a\tb"},
		{ChromIdx: 0, Start: 3, End: 4, Rest: ""},
	})
	entries, err := decodeBedBlock(buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a\tb", entries[0].Rest)
	assert.Equal(t, "", entries[1].Rest)
}

func TestInflateUncompressedPassthrough(t *testing.T) {
	raw := []byte{1, 2, 3}
	out, err := inflate(raw, false)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}
