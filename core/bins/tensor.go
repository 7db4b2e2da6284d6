// Package bins holds the per-bin aggregate statistics written during one
// binning pass of a boosting round.
//
// A Tensor is a contiguous arena of fixed-layout bin records. Each record
// aggregates every sample routed to that bin: the occurrence-weighted sample
// count, the total sample weight, and one gradient sum (plus one hessian sum
// for classification targets) per score. Records are addressed by integer bin
// index; the float statistics of bin i start at offset i*Stride() in the
// backing slice, so the layout mirrors an array of structs without needing
// per-bin allocations.
//
// A Tensor is written by exactly one accumulation call at a time. It provides
// no locking; callers running passes concurrently must give each pass its own
// Tensor.
package bins

import (
	"github.com/ezoic/boostbin/pkg/errors"
)

// Tensor is an arena of bin records for a single feature grouping.
type Tensor struct {
	classification bool
	cScores        int
	stride         int // floats per record: 1 weight + cScores*(1 or 2)

	counts []uint64  // occurrence-weighted sample count per bin
	stats  []float64 // weight and gradient/hessian sums, stride floats per bin
}

// NewTensor allocates a zeroed tensor with cBins records of cScores scores
// each. Classification records carry a hessian sum per score; regression
// records do not.
func NewTensor(cBins, cScores int, classification bool) (*Tensor, error) {
	if cBins < 1 {
		return nil, errors.NewValueError("NewTensor", "bin count must be positive")
	}
	if cScores < 1 {
		return nil, errors.NewValueError("NewTensor", "score count must be positive")
	}
	stride := 1 + cScores
	if classification {
		stride = 1 + 2*cScores
	}
	return &Tensor{
		classification: classification,
		cScores:        cScores,
		stride:         stride,
		counts:         make([]uint64, cBins),
		stats:          make([]float64, cBins*stride),
	}, nil
}

// Len returns the number of bins.
func (t *Tensor) Len() int { return len(t.counts) }

// Scores returns the number of scores per bin.
func (t *Tensor) Scores() int { return t.cScores }

// Classification reports whether records carry hessian sums.
func (t *Tensor) Classification() bool { return t.classification }

// Stride returns the number of floats in one bin record.
func (t *Tensor) Stride() int { return t.stride }

// Reset zeroes every record, preparing the tensor for a fresh pass.
func (t *Tensor) Reset() {
	clear(t.counts)
	clear(t.stats)
}

// Record returns the raw float statistics of bin i: the weight at index 0,
// then per score k the gradient sum at 1+k (regression) or the gradient sum
// at 1+2k and hessian sum at 2+2k (classification). The slice aliases the
// tensor's backing storage; additions through it are the hot-path write.
func (t *Tensor) Record(i int) []float64 {
	off := i * t.stride
	return t.stats[off : off+t.stride : off+t.stride]
}

// AddCount adds occurrences to bin i's sample count.
func (t *Tensor) AddCount(i int, occurrences uint64) {
	t.counts[i] += occurrences
}

// Count returns bin i's occurrence-weighted sample count.
func (t *Tensor) Count(i int) uint64 { return t.counts[i] }

// Weight returns bin i's total sample weight.
func (t *Tensor) Weight(i int) float64 { return t.stats[i*t.stride] }

// Gradient returns bin i's gradient sum for score k.
func (t *Tensor) Gradient(i, k int) float64 {
	if t.classification {
		return t.stats[i*t.stride+1+2*k]
	}
	return t.stats[i*t.stride+1+k]
}

// Hessian returns bin i's hessian sum for score k. It is only meaningful for
// classification tensors; regression tensors store no hessians and return 0.
func (t *Tensor) Hessian(i, k int) float64 {
	if !t.classification {
		return 0
	}
	return t.stats[i*t.stride+2+2*k]
}

// TotalCount sums the sample counts over all bins.
func (t *Tensor) TotalCount() uint64 {
	var total uint64
	for _, c := range t.counts {
		total += c
	}
	return total
}

// TotalWeight sums the bin weights over all bins.
func (t *Tensor) TotalWeight() float64 {
	var total float64
	for i := 0; i < len(t.counts); i++ {
		total += t.stats[i*t.stride]
	}
	return total
}

// TotalGradient sums the gradient for score k over all bins.
func (t *Tensor) TotalGradient(k int) float64 {
	var total float64
	for i := 0; i < len(t.counts); i++ {
		total += t.Gradient(i, k)
	}
	return total
}
