package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

var (
	_ model.Classifier         = (*DecisionTreeClassifier)(nil)
	_ model.WeightedFitter     = (*DecisionTreeClassifier)(nil)
	_ model.FeatureImportancer = (*DecisionTreeClassifier)(nil)
	_ model.Model              = (*DecisionTreeClassifier)(nil)
)

func separable() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		2, 2,
		2, 3,
		3, 2,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func TestDecisionTreeClassifier_FitPredict_Binary(t *testing.T) {
	X := mat.NewDense(8, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
		3, 3,
		3, 4,
		4, 3,
		4, 4,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})

	dt := NewDecisionTreeClassifier(WithCriterion("gini"), WithMaxDepth(5))
	require.NoError(t, dt.Fit(X, y))

	pred, err := dt.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "sample %d", i)
	}

	testPred, err := dt.Predict(mat.NewDense(2, 2, []float64{0.5, 0.5, 3.5, 3.5}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, testPred.At(0, 0))
	assert.Equal(t, 1.0, testPred.At(1, 0))
	assert.Equal(t, 1, dt.GetDepth())
	assert.Equal(t, 2, dt.GetNLeaves())
}

func TestDecisionTreeClassifier_PredictProba(t *testing.T) {
	X, y := separable()
	dt := NewDecisionTreeClassifier(WithMaxDepth(3))
	require.NoError(t, dt.Fit(X, y))

	proba, err := dt.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	require.Equal(t, 6, r)
	require.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-12)
	}
	assert.Equal(t, []float64{0, 1}, dt.Classes())
}

func TestDecisionTreeClassifier_Score(t *testing.T) {
	// XOR-like: class 0 when both features are low or both high.
	X := mat.NewDense(8, 2, []float64{
		0.0, 0.0,
		0.0, 0.1,
		0.1, 1.0,
		0.0, 0.9,
		1.0, 0.0,
		0.9, 0.0,
		1.0, 1.0,
		0.9, 0.9,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 1, 1, 1, 1, 0, 0})

	dt := NewDecisionTreeClassifier(WithMaxDepth(5), WithMinSamplesLeaf(1))
	require.NoError(t, dt.Fit(X, y))
	score, err := dt.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	Xs, ys := separable()
	simple := NewDecisionTreeClassifier(WithMaxDepth(3))
	require.NoError(t, simple.Fit(Xs, ys))
	score, err = simple.Score(Xs, ys)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestDecisionTreeClassifier_Multiclass(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		3, 3,
		3, 4,
		4, 3,
		6, 6,
		6, 7,
		7, 6,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	dt := NewDecisionTreeClassifier(WithCriterion("gini"), WithMaxDepth(5))
	require.NoError(t, dt.Fit(X, y))
	assert.Equal(t, 3, dt.nClasses_)

	score, err := dt.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	proba, err := dt.PredictProba(X)
	require.NoError(t, err)
	_, c := proba.Dims()
	require.Equal(t, 3, c)
	for i := 0; i < 9; i++ {
		assert.Equal(t, 1.0, proba.At(i, int(y.At(i, 0))), "sample %d", i)
	}
}

func TestDecisionTreeClassifier_Entropy(t *testing.T) {
	X, y := separable()
	dt := NewDecisionTreeClassifier(WithCriterion("entropy"), WithMaxDepth(3))
	require.NoError(t, dt.Fit(X, y))
	score, err := dt.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestDecisionTreeClassifier_FeatureImportance(t *testing.T) {
	// Feature 0 alone determines the class.
	X := mat.NewDense(8, 3, []float64{
		0, 0, 0,
		0, 1, 1,
		0, 0, 1,
		0, 1, 0,
		1, 0, 0,
		1, 1, 1,
		1, 0, 1,
		1, 1, 0,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})

	dt := NewDecisionTreeClassifier()
	assert.Nil(t, dt.GetFeatureImportances())
	require.NoError(t, dt.Fit(X, y))

	imp := dt.GetFeatureImportances()
	require.Len(t, imp, 3)
	assert.InDelta(t, 1.0, imp[0], 1e-12)
	assert.Zero(t, imp[1])
	assert.Zero(t, imp[2])
}

func TestDecisionTreeClassifier_MaxDepth(t *testing.T) {
	X := mat.NewDense(16, 2, nil)
	y := mat.NewDense(16, 1, nil)
	for i := 0; i < 16; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%4))
		y.Set(i, 0, float64(i%2))
	}

	dt := NewDecisionTreeClassifier(WithMaxDepth(2))
	require.NoError(t, dt.Fit(X, y))
	assert.LessOrEqual(t, dt.GetDepth(), 2)

	unlimited := NewDecisionTreeClassifier()
	require.NoError(t, unlimited.Fit(X, y))
	score, err := unlimited.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestDecisionTreeClassifier_MinSamples(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%3))
		y.Set(i, 0, float64(i%2))
	}

	dt := NewDecisionTreeClassifier(WithMinSamplesSplit(5), WithMinSamplesLeaf(2))
	require.NoError(t, dt.Fit(X, y))
	assert.LessOrEqual(t, dt.GetNLeaves(), 5)
	for _, n := range dt.nodes {
		if n.isLeaf() {
			assert.GreaterOrEqual(t, n.nSamples, 2)
		}
	}
}

func TestDecisionTreeClassifier_SampleWeights(t *testing.T) {
	// Identical inputs: the weighted majority decides the leaf.
	X := mat.NewDense(3, 1, []float64{1, 1, 1})
	y := mat.NewDense(3, 1, []float64{0, 1, 1})

	dt := NewDecisionTreeClassifier()
	require.NoError(t, dt.FitWeighted(X, y, []float64{5, 1, 1}))
	proba, err := dt.PredictProba(mat.NewDense(1, 1, []float64{1}))
	require.NoError(t, err)
	assert.InDelta(t, 5.0/7.0, proba.At(0, 0), 1e-12)

	pred, err := dt.Predict(mat.NewDense(1, 1, []float64{1}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))

	err = dt.FitWeighted(X, y, []float64{1, -1, 1})
	var verr *errors.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Error(t, dt.FitWeighted(X, y, []float64{1, 1}))
	assert.Error(t, dt.FitWeighted(X, y, []float64{0, 0, 0}))
}

func TestDecisionTreeClassifier_GetSetParams(t *testing.T) {
	dt := NewDecisionTreeClassifier()
	params := dt.GetParams()
	assert.Equal(t, "gini", params["criterion"].(string))
	assert.Equal(t, 2, params["min_samples_split"].(int))

	require.NoError(t, dt.SetParams(map[string]interface{}{
		"criterion":         "entropy",
		"max_depth":         5,
		"min_samples_split": 4,
		"min_samples_leaf":  2,
	}))
	assert.Equal(t, "entropy", dt.criterion)
	assert.Equal(t, 5, dt.maxDepth)
	assert.Equal(t, 4, dt.minSamplesSplit)
	assert.Equal(t, 2, dt.minSamplesLeaf)

	clone := dt.Clone().(*DecisionTreeClassifier)
	assert.Equal(t, dt.GetParams(), clone.GetParams())
	assert.False(t, clone.state.IsFitted())

	assert.Error(t, dt.SetParams(map[string]interface{}{"depth": 3}))
	require.NoError(t, dt.SetParams(map[string]interface{}{"criterion": "log_loss"}))
	X, y := separable()
	assert.Error(t, dt.Fit(X, y))
}

func TestDecisionTreeClassifier_NotFitted(t *testing.T) {
	dt := NewDecisionTreeClassifier()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	_, err := dt.Predict(X)
	var nf *errors.NotFittedError
	assert.ErrorAs(t, err, &nf)
	_, err = dt.PredictProba(X)
	assert.ErrorAs(t, err, &nf)
	_, err = dt.FeatureImportances()
	assert.ErrorAs(t, err, &nf)
}

func TestDecisionTreeClassifier_FeatureMismatch(t *testing.T) {
	X, y := separable()
	dt := NewDecisionTreeClassifier()
	require.NoError(t, dt.Fit(X, y))
	_, err := dt.Predict(mat.NewDense(1, 3, []float64{1, 2, 3}))
	var derr *errors.DimensionError
	assert.ErrorAs(t, err, &derr)
}
