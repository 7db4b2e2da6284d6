package booster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermPackUnpackRoundTrip(t *testing.T) {
	indices := []int{0, 3, 1, 7, 2, 5, 6, 4, 0, 1}
	term, err := NewTerm(indices, 8, 8)
	require.NoError(t, err)

	assert.Equal(t, 8, term.Bins())
	assert.Equal(t, len(indices), term.Samples())
	assert.Equal(t, 8, term.ItemsPerPack())
	assert.Equal(t, 8, term.BitsPerItem()) // 64-bit word / 8 entries
	assert.Equal(t, indices, term.Unpack())
}

func TestTermDefaultWidthDerivation(t *testing.T) {
	cases := []struct {
		itemsPerPack int
		wantBits     int
	}{
		{64, 1}, {32, 2}, {16, 4}, {8, 8}, {4, 16}, {2, 32}, {1, 64}, {33, 1}, {3, 21},
	}
	for _, tc := range cases {
		term, err := NewTerm([]int{0, 1, 0}, 2, tc.itemsPerPack)
		require.NoError(t, err)
		assert.Equal(t, tc.wantBits, term.BitsPerItem(), "itemsPerPack=%d", tc.itemsPerPack)
	}
}

// Decode must be independent of how many entries share a word: an 8x3-bit
// packing and a 4x6-bit packing of the same assignment decode identically.
func TestTermDecodeIndependentOfPackWidth(t *testing.T) {
	indices := []int{5, 0, 7, 3, 1, 6, 2, 4, 5, 5, 0, 7, 1}

	wide, err := NewTermWithWidth(indices, 8, 8, 3)
	require.NoError(t, err)
	narrow, err := NewTermWithWidth(indices, 8, 4, 6)
	require.NoError(t, err)

	assert.Equal(t, indices, wide.Unpack())
	assert.Equal(t, wide.Unpack(), narrow.Unpack())
	// Fewer entries per word means more words for the same stream.
	assert.Greater(t, len(narrow.packed), len(wide.packed))
}

func TestTermTailWordSizing(t *testing.T) {
	cases := []struct {
		samples   int
		wantWords int
	}{
		{10, 2}, // one full word + 2-entry tail
		{8, 1},  // exact multiple: the only word is full
		{5, 1},  // below the pack width: first word is the tail
		{17, 3},
	}
	for _, tc := range cases {
		indices := make([]int, tc.samples)
		term, err := NewTerm(indices, 2, 8)
		require.NoError(t, err)
		assert.Len(t, term.packed, tc.wantWords, "samples=%d", tc.samples)
	}
}

func TestTermRejectsBadInputs(t *testing.T) {
	_, err := NewTerm(nil, 4, 8)
	assert.Error(t, err, "empty stream")

	_, err = NewTerm([]int{0}, 0, 8)
	assert.Error(t, err, "no bins")

	_, err = NewTerm([]int{0}, 2, 0)
	assert.Error(t, err, "zero pack width")

	_, err = NewTerm([]int{0}, 2, 65)
	assert.Error(t, err, "pack width beyond one word")

	_, err = NewTerm([]int{0, 4}, 4, 8)
	assert.Error(t, err, "bin index out of range")

	_, err = NewTermWithWidth([]int{0, 1}, 2, 8, 9)
	assert.Error(t, err, "entries overflow the word")

	_, err = NewTermWithWidth([]int{0, 1}, 16, 8, 3)
	assert.Error(t, err, "width too narrow for the bin count")
}
