package ensemble

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/sklearn/tree"
)

var (
	_ model.Model              = (*GradientBoostingRegressor)(nil)
	_ model.StagedPredictor    = (*GradientBoostingRegressor)(nil)
	_ model.FeatureImportancer = (*GradientBoostingRegressor)(nil)
	_ model.Classifier         = (*GradientBoostingClassifier)(nil)
	_ model.StagedPredictor    = (*GradientBoostingClassifier)(nil)
	_ model.DecisionFunctioner = (*GradientBoostingClassifier)(nil)
)

func TestGradientBoostingRegressor_Fit(t *testing.T) {
	X, y := wave(120)
	gb := NewGradientBoostingRegressor(WithNEstimators(100))
	require.NoError(t, gb.Fit(X, y))
	assert.Equal(t, 100, gb.NStages())

	score, err := gb.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.95)

	// Squared-loss stages never increase the training loss.
	ts := gb.TrainScore()
	require.Len(t, ts, 100)
	for i := 1; i < len(ts); i++ {
		assert.LessOrEqual(t, ts[i], ts[i-1]+1e-12)
	}

	imp, err := gb.FeatureImportances()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9)
	assert.Greater(t, imp[0], imp[1])
	assert.Empty(t, gb.ValidationScore())
	assert.Equal(t, 0, gb.BestIteration())
}

func TestGradientBoostingRegressor_SingleStumpMatchesTree(t *testing.T) {
	X, y := wave(40)
	gb := NewGradientBoostingRegressor(WithNEstimators(1), WithLearningRate(1), WithMaxDepth(1))
	require.NoError(t, gb.Fit(X, y))
	stump := tree.NewDecisionTreeRegressor(tree.WithMaxDepth(1))
	require.NoError(t, stump.Fit(X, y))

	a, err := gb.Predict(X)
	require.NoError(t, err)
	b, err := stump.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(a, b, 1e-12))
}

func TestGradientBoostingRegressor_StagedPredict(t *testing.T) {
	X, y := wave(60)
	gb := NewGradientBoostingRegressor(WithNEstimators(20))
	require.NoError(t, gb.Fit(X, y))

	var stages []int
	var last *mat.VecDense
	require.NoError(t, gb.StagedPredict(X, func(stage int, yPred mat.Matrix) error {
		stages = append(stages, stage)
		last = mat.VecDenseCopyOf(yPred.(*mat.VecDense))
		return nil
	}))
	assert.Len(t, stages, 20)
	assert.Equal(t, 1, stages[0])

	final, err := gb.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(last, final, 1e-12))

	sentinel := errors.New("stop")
	err = gb.StagedPredict(X, func(stage int, _ mat.Matrix) error {
		if stage == 3 {
			return sentinel
		}
		return nil
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestGradientBoostingRegressor_EarlyStopping(t *testing.T) {
	X, y := noise(200, 3)
	gb := NewGradientBoostingRegressor(
		WithNEstimators(500),
		WithNIterNoChange(3),
		WithValidationFraction(0.2),
		WithRandomState(1),
	)
	require.NoError(t, gb.Fit(X, y))
	assert.Less(t, gb.NStages(), 500)
	assert.Len(t, gb.ValidationScore(), gb.NStages())
	assert.GreaterOrEqual(t, gb.BestIteration(), 1)
	assert.LessOrEqual(t, gb.BestIteration(), gb.NStages())
}

func TestGradientBoostingRegressor_SubsampleDeterministic(t *testing.T) {
	X, y := wave(80)
	fit := func() mat.Matrix {
		gb := NewGradientBoostingRegressor(WithNEstimators(15), WithSubsample(0.5), WithRandomState(9))
		require.NoError(t, gb.Fit(X, y))
		p, err := gb.Predict(X)
		require.NoError(t, err)
		return p
	}
	assert.True(t, mat.Equal(fit(), fit()))
}

func TestGradientBoostingClassifier_NewtonLeaves(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 3, 4, 5})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	gb := NewGradientBoostingClassifier(WithNEstimators(1), WithLearningRate(1), WithMaxDepth(1))
	require.NoError(t, gb.Fit(X, y))

	// Residuals ±0.5 over p(1−p) = 0.25 give leaf values ±2.
	d, err := gb.DecisionFunction(X)
	require.NoError(t, err)
	assert.InDelta(t, -2.0, d.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, d.At(5, 0), 1e-12)

	proba, err := gb.PredictProba(X)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2)), proba.At(5, 1), 1e-12)
}

func TestGradientBoostingClassifier_Binary(t *testing.T) {
	X, y := blobs(2, 20)
	gb := NewGradientBoostingClassifier(WithNEstimators(30))
	require.NoError(t, gb.Fit(X, y))
	assert.Equal(t, []float64{0, 1}, gb.Classes())

	score, err := gb.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	proba, err := gb.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	require.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-12)
	}

	ts := gb.TrainScore()
	assert.Less(t, ts[len(ts)-1], ts[0])
}

func TestGradientBoostingClassifier_Multiclass(t *testing.T) {
	X, y := blobs(3, 10)
	gb := NewGradientBoostingClassifier(WithNEstimators(20), WithMaxDepth(2))
	require.NoError(t, gb.Fit(X, y))

	d, err := gb.DecisionFunction(X)
	require.NoError(t, err)
	_, c := d.Dims()
	assert.Equal(t, 3, c)
	for _, stage := range gb.stages {
		assert.Len(t, stage, 3)
	}

	score, err := gb.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	n := 0
	require.NoError(t, gb.StagedPredictProba(X, func(stage int, proba mat.Matrix) error {
		n++
		_, k := proba.Dims()
		assert.Equal(t, 3, k)
		return nil
	}))
	assert.Equal(t, 20, n)
}

func TestGradientBoostingClassifier_ArbitraryLabels(t *testing.T) {
	X, y := blobs(2, 10)
	for i := 0; i < 20; i++ {
		y.Set(i, 0, 5+2*y.At(i, 0))
	}
	gb := NewGradientBoostingClassifier(WithNEstimators(10))
	require.NoError(t, gb.Fit(X, y))
	pred, err := gb.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, 5.0, pred.At(0, 0))
	assert.Equal(t, 7.0, pred.At(19, 0))
}

func TestGradientBoosting_Validation(t *testing.T) {
	X, y := wave(20)
	assert.Error(t, NewGradientBoostingRegressor(WithNEstimators(0)).Fit(X, y))
	assert.Error(t, NewGradientBoostingRegressor(WithLearningRate(0)).Fit(X, y))
	assert.Error(t, NewGradientBoostingRegressor(WithSubsample(1.5)).Fit(X, y))
	assert.Error(t, NewGradientBoostingRegressor(WithMaxDepth(0)).Fit(X, y))
	assert.Error(t, NewGradientBoostingRegressor(WithNIterNoChange(2), WithValidationFraction(1)).Fit(X, y))

	_, err := NewGradientBoostingRegressor().Predict(X)
	var nf *errors.NotFittedError
	assert.ErrorAs(t, err, &nf)

	one := mat.NewDense(20, 1, nil)
	var ve *errors.ValueError
	assert.ErrorAs(t, NewGradientBoostingClassifier().Fit(X, one), &ve)
}

func TestGradientBoosting_Params(t *testing.T) {
	gb := NewGradientBoostingClassifier()
	params := gb.GetParams()
	assert.Equal(t, 100, params["n_estimators"])
	assert.Equal(t, 0.1, params["learning_rate"])
	assert.Equal(t, 3, params["max_depth"])

	require.NoError(t, gb.SetParams(map[string]interface{}{"n_estimators": 7, "subsample": 0.8}))
	assert.Equal(t, 7, gb.GetParams()["n_estimators"])
	assert.Error(t, gb.SetParams(map[string]interface{}{"loss": "huber"}))

	clone := gb.Clone().(*GradientBoostingClassifier)
	assert.Equal(t, gb.GetParams(), clone.GetParams())
	assert.Equal(t, 0, clone.NStages())
}
