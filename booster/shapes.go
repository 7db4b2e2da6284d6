package booster

// The accumulators are generic over two shape axes so the compiler
// monomorphizes one instantiation per enumerated constant and can fully
// unroll the innermost per-score loop. Each axis carries a fully dynamic
// shape so any runtime value outside the enumerated set is still served.

// scoreShape fixes the per-sample score count and whether hessians are
// carried. Fixed shapes ignore the runtime argument.
type scoreShape interface {
	scores(runtime int) int
	hessians() bool
}

// shapeRegression is the single-score, no-hessian target.
type shapeRegression struct{}

func (shapeRegression) scores(int) int { return 1 }
func (shapeRegression) hessians() bool { return false }

// shapeClass2 is the 2-class single-logit target: one score with a hessian.
type shapeClass2 struct{}

func (shapeClass2) scores(int) int { return 1 }
func (shapeClass2) hessians() bool { return true }

type shapeClass3 struct{}

func (shapeClass3) scores(int) int { return 3 }
func (shapeClass3) hessians() bool { return true }

type shapeClass4 struct{}

func (shapeClass4) scores(int) int { return 4 }
func (shapeClass4) hessians() bool { return true }

type shapeClass5 struct{}

func (shapeClass5) scores(int) int { return 5 }
func (shapeClass5) hessians() bool { return true }

type shapeClass6 struct{}

func (shapeClass6) scores(int) int { return 6 }
func (shapeClass6) hessians() bool { return true }

type shapeClass7 struct{}

func (shapeClass7) scores(int) int { return 7 }
func (shapeClass7) hessians() bool { return true }

type shapeClass8 struct{}

func (shapeClass8) scores(int) int { return 8 }
func (shapeClass8) hessians() bool { return true }

// shapeClassDynamic covers every classification score count the enumerated
// ladder does not, including expanded binary logits.
type shapeClassDynamic struct{}

func (shapeClassDynamic) scores(runtime int) int { return runtime }
func (shapeClassDynamic) hessians() bool         { return true }

// maxLadderClasses is the ceiling of the enumerated class-count ladder;
// larger class counts dispatch to shapeClassDynamic.
const maxLadderClasses = 8

// packShape fixes the number of packed entries per storage word. Fixed
// shapes ignore the runtime argument.
type packShape interface {
	items(runtime int) int
}

type pack64 struct{}

func (pack64) items(int) int { return 64 }

type pack32 struct{}

func (pack32) items(int) int { return 32 }

type pack16 struct{}

func (pack16) items(int) int { return 16 }

type pack8 struct{}

func (pack8) items(int) int { return 8 }

type pack4 struct{}

func (pack4) items(int) int { return 4 }

type pack2 struct{}

func (pack2) items(int) int { return 2 }

type pack1 struct{}

func (pack1) items(int) int { return 1 }

// packDynamic covers every pack width the enumerated ladder does not, and is
// the only pack shape used on the scalar path.
type packDynamic struct{}

func (packDynamic) items(runtime int) int { return runtime }
