package booster

import (
	"fmt"
	"math/bits"

	"github.com/ezoic/boostbin/pkg/errors"
)

const (
	// wordBits is the width of one packed storage word.
	wordBits = 64

	// TermNone routes accumulation to the single global bin instead of a
	// registered feature grouping.
	TermNone = -1
)

// Term is one feature grouping: the number of discretized bins it produces
// and the per-sample bin indices, bit-packed itemsPerPack to a storage word.
//
// Within a word, entries are packed low bits first: the index of the first
// sample occupies the lowest bitsPerItem bits, the next sample the bits above
// it, and so on. The final word is partial unless the sample count is an
// exact multiple of itemsPerPack.
type Term struct {
	cBins        int
	cSamples     int
	itemsPerPack int
	bitsPerItem  int
	packed       []uint64
}

// defaultBitsPerItem is the entry width used when none is given: the widest
// equal share of a storage word among itemsPerPack entries.
func defaultBitsPerItem(itemsPerPack int) int {
	return wordBits / itemsPerPack
}

// NewTerm packs the per-sample bin indices for a grouping with cBins bins,
// itemsPerPack entries per word, and the default entry width for that pack.
func NewTerm(binIndices []int, cBins, itemsPerPack int) (*Term, error) {
	if itemsPerPack < 1 || itemsPerPack > wordBits {
		return nil, errors.NewValueError("NewTerm",
			fmt.Sprintf("items per pack must be in [1, %d], got %d", wordBits, itemsPerPack))
	}
	return NewTermWithWidth(binIndices, cBins, itemsPerPack, defaultBitsPerItem(itemsPerPack))
}

// NewTermWithWidth packs with an explicit entry width. Narrower widths than
// the default trade range for density; the width must still cover every bin
// index and itemsPerPack*bitsPerItem may not exceed one word.
func NewTermWithWidth(binIndices []int, cBins, itemsPerPack, bitsPerItem int) (*Term, error) {
	const op = "NewTermWithWidth"
	if len(binIndices) == 0 {
		return nil, errors.NewValueError(op, "no samples to pack")
	}
	if cBins < 1 {
		return nil, errors.NewValueError(op, "bin count must be positive")
	}
	if itemsPerPack < 1 || itemsPerPack > wordBits {
		return nil, errors.NewValueError(op,
			fmt.Sprintf("items per pack must be in [1, %d], got %d", wordBits, itemsPerPack))
	}
	if bitsPerItem < 1 || itemsPerPack*bitsPerItem > wordBits {
		return nil, errors.NewValueError(op,
			fmt.Sprintf("%d entries of %d bits do not fit a %d-bit word", itemsPerPack, bitsPerItem, wordBits))
	}
	if need := bits.Len(uint(cBins - 1)); need > bitsPerItem {
		return nil, errors.NewValueError(op,
			fmt.Sprintf("%d bins need %d bits per entry, got %d", cBins, need, bitsPerItem))
	}

	n := len(binIndices)
	packed := make([]uint64, (n+itemsPerPack-1)/itemsPerPack)
	for i, idx := range binIndices {
		if idx < 0 || idx >= cBins {
			return nil, errors.NewValueError(op,
				fmt.Sprintf("bin index %d of sample %d outside [0, %d)", idx, i, cBins))
		}
		word, slot := i/itemsPerPack, i%itemsPerPack
		packed[word] |= uint64(idx) << (slot * bitsPerItem)
	}

	return &Term{
		cBins:        cBins,
		cSamples:     n,
		itemsPerPack: itemsPerPack,
		bitsPerItem:  bitsPerItem,
		packed:       packed,
	}, nil
}

// Bins returns the number of bins this grouping discretizes into.
func (t *Term) Bins() int { return t.cBins }

// Samples returns the number of packed per-sample entries.
func (t *Term) Samples() int { return t.cSamples }

// ItemsPerPack returns the number of entries per storage word.
func (t *Term) ItemsPerPack() int { return t.itemsPerPack }

// BitsPerItem returns the width of one packed entry.
func (t *Term) BitsPerItem() int { return t.bitsPerItem }

// Unpack decodes the stream back into per-sample bin indices. Decode depends
// only on the entry width and count, never on how many entries share a word.
func (t *Term) Unpack() []int {
	mask := uint64(1)<<t.bitsPerItem - 1
	out := make([]int, t.cSamples)
	for i := range out {
		word, slot := i/t.itemsPerPack, i%t.itemsPerPack
		out[i] = int(t.packed[word] >> (slot * t.bitsPerItem) & mask)
	}
	return out
}
