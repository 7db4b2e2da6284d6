package booster

import (
	"fmt"
	"math/rand/v2"

	"github.com/ezoic/boostbin/pkg/errors"
)

// InnerBag is one bagged resampling of the training set: how many times each
// sample was drawn this round and the weight it carries. The precomputed
// weight total is the cross-check target for the accumulators' validating
// mode.
type InnerBag struct {
	occurrences []uint64
	weights     []float64
	weightTotal float64
}

// NewInnerBag builds a bag from caller-supplied parallel arrays. The weight
// total is computed here, ahead of any accumulation that validates against it.
func NewInnerBag(occurrences []uint64, weights []float64) (*InnerBag, error) {
	const op = "NewInnerBag"
	if len(occurrences) == 0 {
		return nil, errors.NewValueError(op, "bag must cover at least one sample")
	}
	if len(occurrences) != len(weights) {
		return nil, errors.NewDimensionError(op, len(occurrences), len(weights), 0)
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	return &InnerBag{occurrences: occurrences, weights: weights, weightTotal: total}, nil
}

// NewUniformBag builds the no-resampling bag: every sample drawn once with
// unit weight. Used for the first boosting round and whenever bagging is off.
func NewUniformBag(n int) (*InnerBag, error) {
	if n < 1 {
		return nil, errors.NewValueError("NewUniformBag", "sample count must be positive")
	}
	occurrences := make([]uint64, n)
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		occurrences[i] = 1
		weights[i] = 1
	}
	return &InnerBag{occurrences: occurrences, weights: weights, weightTotal: float64(n)}, nil
}

// NewBaggedRound draws n samples with replacement and records per-sample
// occurrence counts; a sample's weight equals its occurrence count, so
// samples left out of the round carry zero weight. The draw is deterministic
// for a given seed.
func NewBaggedRound(n int, seed uint64) (*InnerBag, error) {
	if n < 1 {
		return nil, errors.NewValueError("NewBaggedRound", "sample count must be positive")
	}
	r := rand.New(rand.NewPCG(seed, seed))
	occurrences := make([]uint64, n)
	for i := 0; i < n; i++ {
		occurrences[r.IntN(n)]++
	}
	weights := make([]float64, n)
	for i, c := range occurrences {
		weights[i] = float64(c)
	}
	return &InnerBag{occurrences: occurrences, weights: weights, weightTotal: float64(n)}, nil
}

// Samples returns the number of samples the bag covers.
func (b *InnerBag) Samples() int { return len(b.occurrences) }

// Occurrences returns the per-sample draw counts.
func (b *InnerBag) Occurrences() []uint64 { return b.occurrences }

// Weights returns the per-sample weights.
func (b *InnerBag) Weights() []float64 { return b.weights }

// WeightTotal returns the precomputed sum of weights.
func (b *InnerBag) WeightTotal() float64 { return b.weightTotal }

func (b *InnerBag) String() string {
	return fmt.Sprintf("InnerBag{samples: %d, weightTotal: %g}", len(b.occurrences), b.weightTotal)
}
