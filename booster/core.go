// Package booster implements the bin-statistics accumulation stage of a
// gradient-boosting training round.
//
// For every sample in the training set, the engine decodes which bin the
// sample falls into for a chosen feature grouping (Term) and accumulates the
// sample's occurrence count, weight, and per-score gradient/hessian products
// into that bin's record. The produced bins.Tensor feeds split evaluation
// downstream; nothing in this package searches splits, computes gradients, or
// chooses discretization boundaries.
//
// The accumulators come in a closed family of numerically specialized
// variants selected per call by score count and pack width, with fully
// dynamic fallbacks guaranteeing every runtime combination is served. See
// binsums.go.
package booster

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/boostbin/core/bins"
	"github.com/ezoic/boostbin/pkg/errors"
)

// BoosterCore is the training-run context the accumulators read from: sample
// and score counts, the interleaved gradient/hessian buffer, and the
// registered feature groupings. It owns its buffers for the duration of a
// training run; accumulation calls borrow them and never retain references.
type BoosterCore struct {
	cSamples       int
	classification bool
	cClasses       int
	cScores        int
	expandedLogits bool

	// gradHess holds cScores values per sample for regression and
	// 2*cScores per sample for classification, gradient and hessian
	// interleaved per score.
	gradHess []float64

	terms []*Term
}

// CoreOption configures a BoosterCore at construction.
type CoreOption func(*BoosterCore)

// WithExpandedBinaryLogits switches 2-class targets from the single-logit
// convention (one score) to one score per class. Multiclass targets are
// unaffected.
func WithExpandedBinaryLogits() CoreOption {
	return func(c *BoosterCore) { c.expandedLogits = true }
}

// NewRegressionCore builds a context for a regression target from an
// n x 1 gradient matrix. Regression carries no hessians.
func NewRegressionCore(gradients mat.Matrix, opts ...CoreOption) (*BoosterCore, error) {
	const op = "NewRegressionCore"
	n, cols := gradients.Dims()
	if n < 1 {
		return nil, errors.NewValueError(op, "need at least one sample")
	}
	if cols != 1 {
		return nil, errors.NewDimensionError(op, 1, cols, 1)
	}

	core := &BoosterCore{
		cSamples: n,
		cClasses: 0,
		cScores:  1,
		gradHess: make([]float64, n),
	}
	for _, opt := range opts {
		opt(core)
	}
	for i := 0; i < n; i++ {
		core.gradHess[i] = gradients.At(i, 0)
	}
	return core, nil
}

// NewClassificationCore builds a context for a classification target with
// cClasses classes from n x scores gradient and hessian matrices. The score
// count is 1 for a 2-class target under the single-logit convention, 2 for a
// 2-class target with expanded logits, and cClasses otherwise.
func NewClassificationCore(cClasses int, gradients, hessians mat.Matrix, opts ...CoreOption) (*BoosterCore, error) {
	const op = "NewClassificationCore"
	if cClasses < 2 {
		return nil, errors.NewValueError(op,
			fmt.Sprintf("classification needs at least 2 classes, got %d", cClasses))
	}

	core := &BoosterCore{
		classification: true,
		cClasses:       cClasses,
	}
	for _, opt := range opts {
		opt(core)
	}

	core.cScores = cClasses
	if cClasses == 2 && !core.expandedLogits {
		core.cScores = 1
	}

	n, gCols := gradients.Dims()
	if n < 1 {
		return nil, errors.NewValueError(op, "need at least one sample")
	}
	if gCols != core.cScores {
		return nil, errors.NewDimensionError(op, core.cScores, gCols, 1)
	}
	hRows, hCols := hessians.Dims()
	if hRows != n {
		return nil, errors.NewDimensionError(op, n, hRows, 0)
	}
	if hCols != core.cScores {
		return nil, errors.NewDimensionError(op, core.cScores, hCols, 1)
	}

	core.cSamples = n
	core.gradHess = make([]float64, 2*core.cScores*n)
	pos := 0
	for i := 0; i < n; i++ {
		for k := 0; k < core.cScores; k++ {
			core.gradHess[pos] = gradients.At(i, k)
			core.gradHess[pos+1] = hessians.At(i, k)
			pos += 2
		}
	}
	return core, nil
}

// Samples returns the training-set size.
func (c *BoosterCore) Samples() int { return c.cSamples }

// Classification reports whether the target is classification.
func (c *BoosterCore) Classification() bool { return c.classification }

// Classes returns the class count, or 0 for regression.
func (c *BoosterCore) Classes() int { return c.cClasses }

// Scores returns the number of predicted output dimensions per sample.
func (c *BoosterCore) Scores() int { return c.cScores }

// ExpandedBinaryLogits reports whether 2-class targets use one score per class.
func (c *BoosterCore) ExpandedBinaryLogits() bool { return c.expandedLogits }

// sampleStride is the number of buffer floats one sample occupies.
func (c *BoosterCore) sampleStride() int {
	if c.classification {
		return 2 * c.cScores
	}
	return c.cScores
}

// AddTerm registers a feature grouping and returns its index.
func (c *BoosterCore) AddTerm(t *Term) (int, error) {
	const op = "AddTerm"
	if t == nil {
		return 0, errors.NewValueError(op, "nil term")
	}
	if t.Samples() != c.cSamples {
		return 0, errors.NewDimensionError(op, c.cSamples, t.Samples(), 0)
	}
	c.terms = append(c.terms, t)
	return len(c.terms) - 1, nil
}

// CountTerms returns the number of registered groupings.
func (c *BoosterCore) CountTerms() int { return len(c.terms) }

// Term returns the grouping at index i.
func (c *BoosterCore) Term(i int) *Term { return c.terms[i] }

// NewBins allocates a zeroed destination tensor sized for the given term, or
// a single-bin tensor for TermNone.
func (c *BoosterCore) NewBins(term int) (*bins.Tensor, error) {
	cBins := 1
	if term != TermNone {
		if term < 0 || term >= len(c.terms) {
			return nil, errors.NewValueError("NewBins",
				fmt.Sprintf("term index %d outside [0, %d)", term, len(c.terms)))
		}
		cBins = c.terms[term].Bins()
	}
	return bins.NewTensor(cBins, c.cScores, c.classification)
}
