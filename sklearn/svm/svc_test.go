package svm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/metrics"
	"github.com/mlps/physlearn/pkg/errors"
)

var (
	_ model.Model              = (*SVC)(nil)
	_ model.DecisionFunctioner = (*SVC)(nil)
)

func twoClusters() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		1, 0,
		0, 1,
		3, 3,
		4, 3,
		3, 4,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func TestSVC_LinearMaximumMargin(t *testing.T) {
	X, y := twoClusters()
	svc := NewSVC(WithKernel("linear"), WithC(10))
	require.NoError(t, svc.Fit(X, y))

	d, err := svc.DecisionFunction(X)
	require.NoError(t, err)
	_, c := d.Dims()
	require.Equal(t, 1, c)

	// The separating line is x0 + x1 = 3.5 with margin points at ±1.
	assert.InDelta(t, -1.4, d.At(0, 0), 1e-2)
	assert.InDelta(t, -1.0, d.At(1, 0), 1e-2)
	assert.InDelta(t, -1.0, d.At(2, 0), 1e-2)
	assert.InDelta(t, 1.0, d.At(3, 0), 1e-2)
	assert.InDelta(t, 1.4, d.At(4, 0), 1e-2)

	score, err := svc.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	assert.Subset(t, svc.SupportIndices(), []int{1, 2, 3})
	sv, err := svc.SupportVectors()
	require.NoError(t, err)
	r, p := sv.Dims()
	assert.Equal(t, len(svc.SupportIndices()), r)
	assert.Equal(t, 2, p)
}

func TestSVC_RBFSolvesXOR(t *testing.T) {
	X := mat.NewDense(8, 2, []float64{
		0, 0,
		0.1, 0.1,
		0, 1,
		0.1, 0.9,
		1, 0,
		0.9, 0.1,
		1, 1,
		0.9, 0.9,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 1, 1, 1, 1, 0, 0})

	svc := NewSVC(WithGamma(2), WithC(10))
	require.NoError(t, svc.Fit(X, y))
	assert.Equal(t, 2.0, svc.Gamma())

	pred, err := svc.Predict(mat.NewDense(2, 2, []float64{0.05, 0.05, 0.05, 0.95}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 1.0, pred.At(1, 0))

	linear := NewSVC(WithKernel("linear"))
	require.NoError(t, linear.Fit(X, y))
	score, err := linear.Score(X, y)
	require.NoError(t, err)
	assert.Less(t, score, 1.0)
}

func TestSVC_OneVsRest(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		0, 0,
		0.5, 0,
		0, 0.5,
		5, 0,
		5.5, 0,
		5, 0.5,
		0, 5,
		0.5, 5,
		0, 5.5,
	})
	y := mat.NewDense(9, 1, []float64{3, 3, 3, 7, 7, 7, 9, 9, 9})

	svc := NewSVC(WithKernel("linear"), WithC(10))
	require.NoError(t, svc.Fit(X, y))
	assert.Equal(t, []float64{3, 7, 9}, svc.Classes())

	d, err := svc.DecisionFunction(X)
	require.NoError(t, err)
	_, c := d.Dims()
	assert.Equal(t, 3, c)

	pred, err := svc.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "sample %d", i)
	}
}

func TestSVC_PolyKernel(t *testing.T) {
	X, y := twoClusters()
	svc := NewSVC(WithKernel("poly"), WithDegree(2), WithCoef0(1), WithGammaMode("auto"), WithC(10))
	require.NoError(t, svc.Fit(X, y))
	assert.Equal(t, 0.5, svc.Gamma())
	score, err := svc.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestSVC_RocAucUsesDecisionFunction(t *testing.T) {
	X, y := twoClusters()
	svc := NewSVC(WithKernel("linear"))
	require.NoError(t, svc.Fit(X, y))

	scorer, err := metrics.GetScorer("roc_auc")
	require.NoError(t, err)
	auc, err := scorer.Score(svc, X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, auc)
}

func TestSVC_ConvergenceWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(nil) })

	X, y := twoClusters()
	svc := NewSVC(WithKernel("linear"), WithC(10), WithMaxIter(1))
	require.NoError(t, svc.Fit(X, y))
	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	assert.ErrorAs(t, warnings[0], &cw)
}

func TestSVC_GammaScale(t *testing.T) {
	// Elements {0, 2, 0, 2}: variance 1 over p = 2 features.
	rows := [][]float64{{0, 2}, {0, 2}}
	g, err := resolveGamma("scale", 0, rows)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, g, 1e-12)

	g, err = resolveGamma("scale", 0, [][]float64{{1, 1}, {1, 1}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, g)

	_, err = resolveGamma("", -1, rows)
	assert.Error(t, err)
	_, err = resolveGamma("median", 0, rows)
	assert.Error(t, err)
}

func TestSVC_Validation(t *testing.T) {
	X, y := twoClusters()

	_, err := NewSVC().Predict(X)
	var nf *errors.NotFittedError
	assert.ErrorAs(t, err, &nf)

	one := mat.NewDense(6, 1, []float64{1, 1, 1, 1, 1, 1})
	var ve *errors.ValueError
	assert.ErrorAs(t, NewSVC().Fit(X, one), &ve)

	assert.Error(t, NewSVC(WithC(0)).Fit(X, y))
	assert.Error(t, NewSVC(WithKernel("sigmoid")).Fit(X, y))
	assert.Error(t, NewSVC(WithKernel("poly"), WithDegree(0)).Fit(X, y))

	svc := NewSVC()
	require.NoError(t, svc.Fit(X, y))
	_, err = svc.DecisionFunction(mat.NewDense(1, 3, nil))
	var de *errors.DimensionError
	assert.ErrorAs(t, err, &de)
}

func TestSVC_Params(t *testing.T) {
	svc := NewSVC()
	params := svc.GetParams()
	assert.Equal(t, "scale", params["gamma"])
	assert.Equal(t, 1.0, params["C"])

	require.NoError(t, svc.SetParams(map[string]interface{}{"gamma": 0.25, "C": "3", "kernel": "linear"}))
	params = svc.GetParams()
	assert.Equal(t, 0.25, params["gamma"])
	assert.Equal(t, 3.0, params["C"])
	assert.Equal(t, "linear", params["kernel"])

	require.NoError(t, svc.SetParams(map[string]interface{}{"gamma": "auto"}))
	assert.Equal(t, "auto", svc.GetParams()["gamma"])
	assert.Error(t, svc.SetParams(map[string]interface{}{"gamma": "wide"}))
	assert.Error(t, svc.SetParams(map[string]interface{}{"shrinking": true}))

	clone := svc.Clone().(*SVC)
	assert.Equal(t, svc.GetParams(), clone.GetParams())
	assert.False(t, clone.state.IsFitted())
}
