package booster

import (
	"math"

	"github.com/klauspost/cpuid/v2"

	"github.com/ezoic/boostbin/core/bins"
	"github.com/ezoic/boostbin/pkg/errors"
	"github.com/ezoic/boostbin/pkg/log"
)

// epsilonGradient bounds how far a centered gradient sum may drift from zero
// before the validating mode treats it as corrupted upstream state.
const epsilonGradient = 1e-7

var logger = log.GetLoggerWithName("booster")

// validationEnabled turns on the consistency bookkeeping in the hot loops:
// bin-index extent checks, the weight-total cross-check, and the centered
// gradient-sum checks. Off by default; the release hot path trusts upstream
// invariants.
var validationEnabled = false

// SetValidation toggles validating mode. A violation detected while it is on
// panics with an assertion failure; it means the surrounding training loop or
// feature encoding handed over corrupted state, and there is nothing safe to
// continue from.
func SetValidation(enabled bool) { validationEnabled = enabled }

// ValidationEnabled reports whether validating mode is on.
func ValidationEnabled() bool { return validationEnabled }

// wideLoops selects the pack-width-specialized ladder. Without wide vector
// registers the per-word unrolling does not pay for its code size, so the
// scalar path specializes only the score loop.
var wideLoops = cpuid.CPU.Supports(cpuid.AVX2)

// SetWideLoops overrides the pack-width ladder selection. Intended for tests
// that need to exercise both paths on one machine.
func SetWideLoops(enabled bool) { wideLoops = enabled }

// WideLoops reports whether the pack-width-specialized ladder is selected.
func WideLoops() bool { return wideLoops }

// BinSums accumulates one pass of per-bin statistics into dst. term selects
// the feature grouping whose packed bin indices route each sample, or
// TermNone to fold every sample into the single global bin. The bag supplies
// per-sample occurrence counts and weights for the current bagging round.
//
// Argument validation happens here, before the hot path; a non-nil error
// means dst is untouched. Once accumulation starts there is no partial
// result: the call either processes the whole buffer or panics on an
// internal invariant violation in validating mode.
func BinSums(core *BoosterCore, term int, bag *InnerBag, dst *bins.Tensor) error {
	const op = "BinSums"
	if core == nil {
		return errors.NewValueError(op, "nil core")
	}
	if bag == nil {
		return errors.NewValueError(op, "nil inner bag")
	}
	if dst == nil {
		return errors.NewValueError(op, "nil destination tensor")
	}
	if bag.Samples() != core.cSamples {
		return errors.NewDimensionError(op, core.cSamples, bag.Samples(), 0)
	}
	if dst.Scores() != core.cScores {
		return errors.NewDimensionError(op, core.cScores, dst.Scores(), 1)
	}
	if dst.Classification() != core.classification {
		return errors.NewValueError(op, "destination tensor target kind does not match core")
	}

	if term == TermNone {
		if dst.Len() != 1 {
			return errors.NewDimensionError(op, 1, dst.Len(), 0)
		}
		logger.Trace("bin accumulation started", "term", term, "samples", core.cSamples)
		binSumsZeroDim(core, bag, dst)
		logger.Trace("bin accumulation finished", "term", term)
		return nil
	}

	if term < 0 || term >= len(core.terms) {
		return errors.NewValueError(op, "term index out of range")
	}
	t := core.terms[term]
	if dst.Len() != t.Bins() {
		return errors.NewDimensionError(op, t.Bins(), dst.Len(), 0)
	}

	logger.Trace("bin accumulation started",
		"term", term, "samples", core.cSamples, "bins", t.Bins(), "itemsPerPack", t.ItemsPerPack())
	if wideLoops {
		binSumsTermWide(core, t, bag, dst)
	} else {
		binSumsTermScalar(core, t, bag, dst)
	}
	logger.Trace("bin accumulation finished", "term", term)
	return nil
}

// binSumsZeroDim walks the class-count ladder for the global-bin case.
func binSumsZeroDim(core *BoosterCore, bag *InnerBag, dst *bins.Tensor) {
	if !core.classification {
		accumulateAll(shapeRegression{}, core, bag, dst)
		return
	}
	if core.expandedLogits {
		accumulateAll(shapeClassDynamic{}, core, bag, dst)
		return
	}
	switch core.cClasses {
	case 2:
		accumulateAll(shapeClass2{}, core, bag, dst)
	case 3:
		accumulateAll(shapeClass3{}, core, bag, dst)
	case 4:
		accumulateAll(shapeClass4{}, core, bag, dst)
	case 5:
		accumulateAll(shapeClass5{}, core, bag, dst)
	case 6:
		accumulateAll(shapeClass6{}, core, bag, dst)
	case 7:
		accumulateAll(shapeClass7{}, core, bag, dst)
	case 8:
		accumulateAll(shapeClass8{}, core, bag, dst)
	default:
		accumulateAll(shapeClassDynamic{}, core, bag, dst)
	}
}

// binSumsTermWide walks the class-count ladder, then the pack-width ladder,
// for the vector-eligible packed case.
func binSumsTermWide(core *BoosterCore, t *Term, bag *InnerBag, dst *bins.Tensor) {
	if !core.classification {
		binSumsTermPacks(shapeRegression{}, core, t, bag, dst)
		return
	}
	if core.expandedLogits {
		binSumsTermPacks(shapeClassDynamic{}, core, t, bag, dst)
		return
	}
	switch core.cClasses {
	case 2:
		binSumsTermPacks(shapeClass2{}, core, t, bag, dst)
	case 3:
		binSumsTermPacks(shapeClass3{}, core, t, bag, dst)
	case 4:
		binSumsTermPacks(shapeClass4{}, core, t, bag, dst)
	case 5:
		binSumsTermPacks(shapeClass5{}, core, t, bag, dst)
	case 6:
		binSumsTermPacks(shapeClass6{}, core, t, bag, dst)
	case 7:
		binSumsTermPacks(shapeClass7{}, core, t, bag, dst)
	case 8:
		binSumsTermPacks(shapeClass8{}, core, t, bag, dst)
	default:
		binSumsTermPacks(shapeClassDynamic{}, core, t, bag, dst)
	}
}

// binSumsTermPacks walks the pack-width ladder for one score shape. Fixed
// pack shapes only apply when the term uses the default entry width for its
// pack; custom-width terms always take the dynamic variant.
func binSumsTermPacks[S scoreShape](s S, core *BoosterCore, t *Term, bag *InnerBag, dst *bins.Tensor) {
	if t.bitsPerItem != defaultBitsPerItem(t.itemsPerPack) {
		accumulateTerm(s, packDynamic{}, core, t, bag, dst)
		return
	}
	switch t.itemsPerPack {
	case 64:
		accumulateTerm(s, pack64{}, core, t, bag, dst)
	case 32:
		accumulateTerm(s, pack32{}, core, t, bag, dst)
	case 16:
		accumulateTerm(s, pack16{}, core, t, bag, dst)
	case 8:
		accumulateTerm(s, pack8{}, core, t, bag, dst)
	case 4:
		accumulateTerm(s, pack4{}, core, t, bag, dst)
	case 2:
		accumulateTerm(s, pack2{}, core, t, bag, dst)
	case 1:
		accumulateTerm(s, pack1{}, core, t, bag, dst)
	default:
		accumulateTerm(s, packDynamic{}, core, t, bag, dst)
	}
}

// binSumsTermScalar walks only the class-count ladder; every pack width runs
// through the dynamic pack shape.
func binSumsTermScalar(core *BoosterCore, t *Term, bag *InnerBag, dst *bins.Tensor) {
	if !core.classification {
		accumulateTerm(shapeRegression{}, packDynamic{}, core, t, bag, dst)
		return
	}
	if core.expandedLogits {
		accumulateTerm(shapeClassDynamic{}, packDynamic{}, core, t, bag, dst)
		return
	}
	switch core.cClasses {
	case 2:
		accumulateTerm(shapeClass2{}, packDynamic{}, core, t, bag, dst)
	case 3:
		accumulateTerm(shapeClass3{}, packDynamic{}, core, t, bag, dst)
	case 4:
		accumulateTerm(shapeClass4{}, packDynamic{}, core, t, bag, dst)
	case 5:
		accumulateTerm(shapeClass5{}, packDynamic{}, core, t, bag, dst)
	case 6:
		accumulateTerm(shapeClass6{}, packDynamic{}, core, t, bag, dst)
	case 7:
		accumulateTerm(shapeClass7{}, packDynamic{}, core, t, bag, dst)
	case 8:
		accumulateTerm(shapeClass8{}, packDynamic{}, core, t, bag, dst)
	default:
		accumulateTerm(shapeClassDynamic{}, packDynamic{}, core, t, bag, dst)
	}
}

// accumulateSample adds one sample's weighted gradient (and hessian) products
// into a bin record. rec is the record's raw floats, gh the sample's slice of
// the interleaved buffer. Returns the sample's raw gradient sum when
// validating, 0 otherwise. Shared by the zero-dimension and packed paths.
func accumulateSample[S scoreShape](s S, rec, gh []float64, cScores int, weight float64, validate bool) float64 {
	var gradSum float64
	if s.hessians() {
		for k := 0; k < cScores; k++ {
			gradient := gh[2*k]
			if validate {
				gradSum += gradient
			}
			rec[1+2*k] += gradient * weight
			rec[2+2*k] += gh[2*k+1] * weight
		}
	} else {
		for k := 0; k < cScores; k++ {
			gradient := gh[k]
			if validate {
				gradSum += gradient
			}
			rec[1+k] += gradient * weight
		}
	}
	return gradSum
}

// accumulateAll folds every sample into the single bin of dst. There is no
// per-sample bin decision at all; an unpredictable branch in this loop would
// measurably slow it, and the destination is fixed for the whole call.
func accumulateAll[S scoreShape](s S, core *BoosterCore, bag *InnerBag, dst *bins.Tensor) {
	cScores := s.scores(core.cScores)
	unit := cScores
	if s.hessians() {
		unit = 2 * cScores
	}
	validate := validationEnabled

	gh := core.gradHess
	occurrences := bag.occurrences
	weights := bag.weights
	rec := dst.Record(0)

	var weightDebug, gradDebug float64
	pos := 0
	for i := 0; i < core.cSamples; i++ {
		weight := weights[i]
		dst.AddCount(0, occurrences[i])
		rec[0] += weight

		gradSum := accumulateSample(s, rec, gh[pos:pos+unit], cScores, weight, validate)
		if validate {
			weightDebug += weight
			gradDebug += checkSampleGradients(core, gradSum)
		}
		pos += unit
	}

	if validate {
		checkPassTotals(core, bag, weightDebug, gradDebug)
	}
}

// termPass carries the cursor state of one packed accumulation pass so the
// full-word loop and the final partial word share one word routine.
type termPass[S scoreShape] struct {
	sshape  S
	core    *BoosterCore
	bag     *InnerBag
	dst     *bins.Tensor
	cScores int
	unit    int // gradHess floats per sample
	bits    int
	mask    uint64

	validate    bool
	pos         int // cursor into the gradient/hessian buffer
	sample      int
	weightDebug float64
	gradDebug   float64
}

// word accumulates count packed entries from one storage word. The mask
// extracts the lowest entry; the shift exposes the next one.
func (a *termPass[S]) word(packed uint64, count int) {
	gh := a.core.gradHess
	occurrences := a.bag.occurrences
	weights := a.bag.weights
	for j := 0; j < count; j++ {
		iBin := int(packed & a.mask)
		packed >>= a.bits

		if a.validate && iBin >= a.dst.Len() {
			panic(errors.AssertionFailedf(
				"bin index %d of sample %d outside tensor of %d bins", iBin, a.sample, a.dst.Len()))
		}
		rec := a.dst.Record(iBin)
		weight := weights[a.sample]
		a.dst.AddCount(iBin, occurrences[a.sample])
		rec[0] += weight

		gradSum := accumulateSample(a.sshape, rec, gh[a.pos:a.pos+a.unit], a.cScores, weight, a.validate)
		if a.validate {
			a.weightDebug += weight
			a.gradDebug += checkSampleGradients(a.core, gradSum)
		}
		a.pos += a.unit
		a.sample++
	}
}

// accumulateTerm routes every sample to the bin selected by its packed index
// for the grouping. All full words run first; the final partial word, holding
// ((n-1) mod itemsPerPack)+1 entries, runs through the same word routine with
// its own bound. When n <= itemsPerPack the first word is that partial word.
func accumulateTerm[S scoreShape, P packShape](s S, p P, core *BoosterCore, t *Term, bag *InnerBag, dst *bins.Tensor) {
	cScores := s.scores(core.cScores)
	unit := cScores
	if s.hessians() {
		unit = 2 * cScores
	}
	items := p.items(t.itemsPerPack)

	pass := termPass[S]{
		sshape:   s,
		core:     core,
		bag:      bag,
		dst:      dst,
		cScores:  cScores,
		unit:     unit,
		bits:     t.bitsPerItem,
		mask:     uint64(1)<<t.bitsPerItem - 1,
		validate: validationEnabled,
	}
	if pass.validate && items != t.itemsPerPack {
		panic(errors.AssertionFailedf(
			"dispatched pack width %d does not match term pack width %d", items, t.itemsPerPack))
	}

	n := core.cSamples
	tail := (n-1)%items + 1
	fullWords := (n - tail) / items
	for wi := 0; wi < fullWords; wi++ {
		pass.word(t.packed[wi], items)
	}
	pass.word(t.packed[fullWords], tail)

	if pass.validate {
		checkPassTotals(core, bag, pass.weightDebug, pass.gradDebug)
	}
}

// checkSampleGradients verifies the per-sample gradient sum is centered for
// multi-score classification, where the per-class gradients of one sample
// must cancel. The 2-class single-logit convention is exempt per sample; its
// raw gradient is returned instead and checked over the whole pass. NaN
// gradients are passed through untouched.
func checkSampleGradients(core *BoosterCore, gradSum float64) float64 {
	if !core.classification {
		return 0
	}
	if core.cClasses == 2 && !core.expandedLogits {
		return gradSum
	}
	if !math.IsNaN(gradSum) && (gradSum <= -epsilonGradient || epsilonGradient <= gradSum) {
		panic(errors.AssertionFailedf(
			"per-sample gradient sum %g is not centered within %g", gradSum, epsilonGradient))
	}
	return 0
}

// checkPassTotals runs the end-of-pass cross-checks: the accumulated weight
// must match the bag's precomputed total within 0.1%, and for the 2-class
// single-logit convention the raw gradient grand total must sit at zero.
func checkPassTotals(core *BoosterCore, bag *InnerBag, weightDebug, gradDebug float64) {
	if !(weightDebug > 0) {
		panic(errors.AssertionFailedf("accumulated weight total %g is not positive", weightDebug))
	}
	if !(weightDebug*0.999 <= bag.weightTotal && bag.weightTotal <= 1.001*weightDebug) {
		panic(errors.AssertionFailedf(
			"accumulated weight total %g disagrees with bag total %g", weightDebug, bag.weightTotal))
	}
	if core.classification && core.cClasses == 2 && !core.expandedLogits {
		limit := epsilonGradient * float64(core.cSamples)
		if !math.IsNaN(gradDebug) && (gradDebug <= -limit || limit <= gradDebug) {
			panic(errors.AssertionFailedf(
				"binary gradient grand total %g is not centered within %g", gradDebug, limit))
		}
	}
}
