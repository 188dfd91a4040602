package diagnostics

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/sklearn/ensemble"
	"github.com/mlps/physlearn/sklearn/model_selection"
)

// offsetBooster predicts column 0 of X plus an offset that is smallest at
// stage 2·depth, so neg_mean_absolute_error peaks there at −1/depth.
type offsetBooster struct {
	depth   int
	nStages int
}

func (b *offsetBooster) Fit(X, _ mat.Matrix) error {
	// The fold whose training rows start at 0 stops early.
	b.nStages = 6
	if X.At(0, 0) == 0 {
		b.nStages = 4
	}
	return nil
}

func (b *offsetBooster) offset(stage int) float64 {
	return math.Abs(float64(stage-2*b.depth)) + 1/float64(b.depth)
}

func (b *offsetBooster) Predict(X mat.Matrix) (mat.Matrix, error) {
	var last mat.Matrix
	err := b.StagedPredict(X, func(_ int, yPred mat.Matrix) error {
		last = yPred
		return nil
	})
	return last, err
}

func (b *offsetBooster) NStages() int { return b.nStages }

func (b *offsetBooster) StagedPredict(X mat.Matrix, fn func(int, mat.Matrix) error) error {
	r, _ := X.Dims()
	out := mat.NewVecDense(r, nil)
	for s := 1; s <= b.nStages; s++ {
		for i := 0; i < r; i++ {
			out.SetVec(i, X.At(i, 0)+b.offset(s))
		}
		if err := fn(s, out); err != nil {
			return err
		}
	}
	return nil
}

func identity(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i))
	}
	return X, y
}

func offsetFactory(depth int) StagedEstimator { return &offsetBooster{depth: depth} }

func TestBoostingDepth_Curves(t *testing.T) {
	X, y := identity(10)
	diag, err := BoostingDepth(context.Background(), offsetFactory, X, y, Config{
		Depths:   []int{1, 2},
		Splitter: model_selection.NewKFold(2, false, 0),
		Scoring:  "neg_mean_absolute_error",
		Window:   2,
	})
	require.NoError(t, err)
	require.Len(t, diag.Depths, 2)
	assert.Equal(t, "neg_mean_absolute_error", diag.Scoring)

	d1 := diag.Depths[0]
	assert.Equal(t, 1, d1.Depth)
	assert.Equal(t, []int{6, 4}, d1.FoldStages)
	require.Equal(t, 6, d1.NStages())
	// Stage 5: the 4-stage fold repeats its stage-4 score of −3.
	assert.InDelta(t, (-3.0+-4.0)/2, d1.TestMean[4], 1e-12)
	assert.InDelta(t, -1.0, d1.TestMean[1], 1e-12)
	assert.InDelta(t, 0.0, d1.TestStd[1], 1e-12)
	assert.Equal(t, d1.TestMean, d1.TrainMean)
	assert.Equal(t, 2, d1.BestStage)
	assert.InDelta(t, -1.0, d1.BestScore, 1e-12)
	assert.InDelta(t, (d1.TestMean[0]+d1.TestMean[1])/2, d1.Smoothed[1], 1e-12)

	d2 := diag.Depths[1]
	assert.Equal(t, 4, d2.BestStage)
	assert.InDelta(t, -0.5, d2.BestScore, 1e-12)

	depth, stage, score := diag.Best()
	assert.Equal(t, 2, depth)
	assert.Equal(t, 4, stage)
	assert.InDelta(t, -0.5, score, 1e-12)
}

func TestBoostingDepth_GradientBoosting(t *testing.T) {
	n := 90
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		X.Set(i, 0, x)
		y.Set(i, 0, math.Sin(2*math.Pi*x))
	}
	factory := func(depth int) StagedEstimator {
		return ensemble.NewGradientBoostingRegressor(ensemble.WithNEstimators(30), ensemble.WithMaxDepth(depth))
	}
	diag, err := BoostingDepth(context.Background(), factory, X, y, Config{
		Depths:   []int{1, 3},
		Splitter: model_selection.NewKFold(3, true, 4),
		Scoring:  "r2",
		Window:   5,
		NJobs:    2,
	})
	require.NoError(t, err)
	for _, c := range diag.Depths {
		require.Equal(t, 30, c.NStages())
		assert.Greater(t, c.TestMean[29], c.TestMean[0])
		assert.Greater(t, c.TrainMean[29], c.TrainMean[0])
		assert.GreaterOrEqual(t, c.BestStage, 1)
		assert.LessOrEqual(t, c.BestStage, 30)
		assert.Len(t, c.Smoothed, 30)
	}
}

func TestBoostingDepth_Classifier(t *testing.T) {
	n := 40
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		if i%4 == 0 || i >= 20 {
			y.Set(i, 0, 1)
		}
	}
	factory := func(depth int) StagedEstimator {
		return ensemble.NewAdaBoostClassifier(ensemble.WithNEstimators(10), ensemble.WithMaxDepth(depth))
	}
	for _, scoring := range []string{"accuracy", "roc_auc"} {
		diag, err := BoostingDepth(context.Background(), factory, X, y, Config{
			Depths:   []int{1},
			Splitter: model_selection.NewStratifiedKFold(4, true, 1),
			Scoring:  scoring,
		})
		require.NoError(t, err, scoring)
		c := diag.Depths[0]
		for _, v := range c.TestMean {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

type emptyBooster struct{ offsetBooster }

func (b *emptyBooster) Fit(_, _ mat.Matrix) error { return nil }

func TestBoostingDepth_Errors(t *testing.T) {
	X, y := identity(10)
	cfg := Config{Depths: []int{1}, Splitter: model_selection.NewKFold(2, false, 0), Scoring: "r2"}
	ctx := context.Background()

	var ve *errors.ValidationError
	_, err := BoostingDepth(ctx, offsetFactory, X, y, Config{Splitter: cfg.Splitter, Scoring: "r2"})
	assert.ErrorAs(t, err, &ve)

	bad := cfg
	bad.Depths = []int{2, 0}
	_, err = BoostingDepth(ctx, offsetFactory, X, y, bad)
	assert.ErrorAs(t, err, &ve)

	bad = cfg
	bad.Splitter = nil
	_, err = BoostingDepth(ctx, offsetFactory, X, y, bad)
	assert.ErrorAs(t, err, &ve)

	bad = cfg
	bad.Scoring = "bogus"
	_, err = BoostingDepth(ctx, offsetFactory, X, y, bad)
	assert.Error(t, err)

	empty := func(int) StagedEstimator { return &emptyBooster{} }
	_, err = BoostingDepth(ctx, empty, X, y, cfg)
	var vae *errors.ValueError
	assert.ErrorAs(t, err, &vae)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = BoostingDepth(canceled, offsetFactory, X, y, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMovingAverage(t *testing.T) {
	v := []float64{1, 2, 3, 4}
	assert.Equal(t, []float64{1, 1.5, 2.5, 3.5}, MovingAverage(v, 2))
	assert.Equal(t, []float64{1, 1.5, 2, 3}, MovingAverage(v, 3))
	assert.Equal(t, []float64{1, 1.5, 2, 2.5}, MovingAverage(v, 10))

	cp := MovingAverage(v, 1)
	assert.Equal(t, v, cp)
	cp[0] = 9
	assert.Equal(t, 1.0, v[0])
	assert.Empty(t, MovingAverage(nil, 3))
}
