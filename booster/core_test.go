package booster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewRegressionCore(t *testing.T) {
	gradients := mat.NewDense(4, 1, []float64{0.5, -1, 2, 0.25})
	core, err := NewRegressionCore(gradients)
	require.NoError(t, err)

	assert.Equal(t, 4, core.Samples())
	assert.False(t, core.Classification())
	assert.Equal(t, 0, core.Classes())
	assert.Equal(t, 1, core.Scores())
	assert.Equal(t, []float64{0.5, -1, 2, 0.25}, core.gradHess)
}

func TestNewRegressionCoreRejectsBadShapes(t *testing.T) {
	_, err := NewRegressionCore(mat.NewDense(3, 2, nil))
	assert.Error(t, err, "regression takes one gradient column")
}

func TestNewClassificationCoreScoreDerivation(t *testing.T) {
	cases := []struct {
		classes    int
		expand     bool
		wantScores int
	}{
		{2, false, 1},
		{2, true, 2},
		{3, false, 3},
		{7, false, 7},
	}
	for _, tc := range cases {
		gradients := mat.NewDense(3, tc.wantScores, nil)
		hessians := mat.NewDense(3, tc.wantScores, nil)
		var opts []CoreOption
		if tc.expand {
			opts = append(opts, WithExpandedBinaryLogits())
		}
		core, err := NewClassificationCore(tc.classes, gradients, hessians, opts...)
		require.NoError(t, err)
		assert.Equal(t, tc.wantScores, core.Scores(), "classes=%d expand=%v", tc.classes, tc.expand)
		assert.True(t, core.Classification())
	}
}

func TestNewClassificationCoreInterleavesBuffers(t *testing.T) {
	gradients := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	hessians := mat.NewDense(2, 3, []float64{10, 20, 30, 40, 50, 60})
	core, err := NewClassificationCore(3, gradients, hessians)
	require.NoError(t, err)

	want := []float64{1, 10, 2, 20, 3, 30, 4, 40, 5, 50, 6, 60}
	assert.Equal(t, want, core.gradHess)
}

func TestNewClassificationCoreRejectsBadShapes(t *testing.T) {
	_, err := NewClassificationCore(1, mat.NewDense(2, 1, nil), mat.NewDense(2, 1, nil))
	assert.Error(t, err, "need at least two classes")

	_, err = NewClassificationCore(3, mat.NewDense(2, 2, nil), mat.NewDense(2, 3, nil))
	assert.Error(t, err, "gradient columns must match the score count")

	_, err = NewClassificationCore(3, mat.NewDense(2, 3, nil), mat.NewDense(3, 3, nil))
	assert.Error(t, err, "hessian rows must match the sample count")
}

func TestAddTermAndNewBins(t *testing.T) {
	core, err := NewRegressionCore(mat.NewDense(6, 1, nil))
	require.NoError(t, err)

	term, err := NewTerm([]int{0, 1, 2, 0, 1, 2}, 3, 8)
	require.NoError(t, err)
	iTerm, err := core.AddTerm(term)
	require.NoError(t, err)
	assert.Equal(t, 0, iTerm)
	assert.Equal(t, 1, core.CountTerms())
	assert.Same(t, term, core.Term(0))

	dst, err := core.NewBins(iTerm)
	require.NoError(t, err)
	assert.Equal(t, 3, dst.Len())
	assert.Equal(t, 1, dst.Scores())
	assert.False(t, dst.Classification())

	global, err := core.NewBins(TermNone)
	require.NoError(t, err)
	assert.Equal(t, 1, global.Len())

	_, err = core.NewBins(5)
	assert.Error(t, err, "unknown term index")

	short, err := NewTerm([]int{0, 1}, 2, 8)
	require.NoError(t, err)
	_, err = core.AddTerm(short)
	assert.Error(t, err, "term sample count must match the core")
}
